package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/signbench/internal/config"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRun_Text(t *testing.T) {
	stdout, _, err := execute(t, "run", "-t", "2", "-n", "5", "-o", "Sign", "-k", "ed25519", "--no-warmup")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "Performing 10 sign operations\n"), stdout)
	assert.Contains(t, stdout, "Thread 1: Started")
	assert.Contains(t, stdout, "Thread 2: Done")
	assert.Regexp(t, `(?m)^Speed: \d+\.\d{2} sign/s$`, stdout)
}

func TestRun_Quiet(t *testing.T) {
	stdout, _, err := execute(t, "run", "-t", "3", "-n", "2", "-o", "verify", "-k", "ecdsa", "-c", "secp256k1", "--no-warmup", "-q")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Performing 6 verify operations", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Speed: "))
}

func TestRun_Warmup(t *testing.T) {
	stdout, _, err := execute(t, "run", "-t", "1", "-n", "1", "-o", "sign", "-k", "ed448",
		"--warmup-ops", "3", "--warmup-settle", "1ms")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Warming up: 3 sign operations")
	assert.Contains(t, stdout, "Warm-up done in")
}

func TestRun_JSON(t *testing.T) {
	stdout, stderr, err := execute(t, "run", "-t", "2", "-n", "3", "-o", "keygen", "-k", "ecdsa", "-c", "nistp384",
		"--no-warmup", "--format", "json", "--seed", strings.Repeat("01", 32))
	require.NoError(t, err)

	require.True(t, gjson.Valid(stdout), stdout)
	assert.Equal(t, "keygen", gjson.Get(stdout, "operation").String())
	assert.Equal(t, "ecdsa-secp384r1", gjson.Get(stdout, "key").String())
	assert.Equal(t, int64(6), gjson.Get(stdout, "totalOps").Int())
	assert.Greater(t, gjson.Get(stdout, "throughput").Float(), 0.0)
	assert.Contains(t, stderr, "Performing 6 keygen operations")
}

func TestRun_ConfigFileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: from-file
threads: 1
ops: 2
operation: sign
key:
  type: ed25519
digest: sha512
warmup:
  enabled: false
output:
  format: yaml
`), 0o644))

	stdout, _, err := execute(t, "run", "--config", path, "-t", "4")
	require.NoError(t, err)

	assert.Contains(t, stdout, "name: from-file")
	assert.Contains(t, stdout, "digest: sha512")
	assert.Contains(t, stdout, "threads: 4")
	assert.Contains(t, stdout, "totalOps: 8")
}

func TestRun_PromTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signbench.prom")
	_, _, err := execute(t, "run", "-t", "1", "-n", "2", "-o", "sign", "-k", "ed25519", "--no-warmup", "-q",
		"--prom-textfile", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `signbench_operations_total{operation="sign"} 2`)
}

func TestRun_Profiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")

	_, _, err := execute(t, "run", "-t", "1", "-n", "3", "-o", "sign", "-k", "ed25519", "--no-warmup", "-q",
		"--cpuprofile", cpu, "--memprofile", mem)
	require.NoError(t, err)

	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}

func TestRun_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing thread count", []string{"run", "-n", "1", "-o", "sign", "-k", "rsa"}},
		{"missing operation", []string{"run", "-t", "1", "-n", "1", "-k", "rsa"}},
		{"unknown key type", []string{"run", "-t", "1", "-n", "1", "-o", "sign", "-k", "dsa"}},
		{"p192 rejected", []string{"run", "-t", "1", "-n", "1", "-o", "sign", "-k", "ecdsa", "-c", "nistp192"}},
		{"bad digest", []string{"run", "-t", "1", "-n", "1", "-o", "sign", "-k", "rsa", "-m", "md5"}},
		{"rsa too small", []string{"run", "-t", "1", "-n", "1", "-o", "sign", "-k", "rsa", "-s", "512"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)

			var verrs *config.ValidationErrors
			assert.True(t, errors.As(err, &verrs), "got %v", err)
			assert.NotContains(t, stdout, "Performing")
		})
	}
}

func TestRun_BadLogLevel(t *testing.T) {
	_, _, err := execute(t, "run", "--log-level", "loud")
	assert.Error(t, err)
}

func TestRun_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stdout, _, err := executeContext(t, ctx, "run", "-t", "2", "-n", "1", "-o", "sign", "-k", "ed25519", "--no-warmup")
	require.Error(t, err)

	var reported *reportedError
	assert.True(t, errors.As(err, &reported))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, stdout, "Benchmark failed")
	assert.NotContains(t, stdout, "Speed:")
}

func TestRun_DebugLogging(t *testing.T) {
	_, stderr, err := execute(t, "run", "-t", "1", "-n", "1", "-o", "sign", "-k", "ed25519", "--no-warmup", "-q",
		"--log-level", "debug")
	require.NoError(t, err)

	assert.Contains(t, stderr, "msg=\"starting benchmark\"")
	assert.Contains(t, stderr, "msg=\"run complete\"")
}

func TestAlgorithms(t *testing.T) {
	stdout, _, err := execute(t, "algorithms")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Operations: sign, verify, keygen\n")
	assert.Contains(t, stdout, "Key types: rsa, ecdsa, ed25519, ed448\n")
	assert.Contains(t, stdout, "secp256k1")
	assert.NotContains(t, stdout, "secp192r1")
	assert.Contains(t, stdout, "Digests: sha256, sha384, sha512\n")
}

func TestRoot_Help(t *testing.T) {
	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "signbench")
	assert.Contains(t, stdout, "run")
}
