package entropy

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "xof", want: KindXOF},
		{input: "XOF", want: KindXOF},
		{input: "", want: KindXOF},
		{input: " system ", want: KindSystem},
		{input: "rdrand", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed("")
	require.NoError(t, err)
	assert.Nil(t, seed)

	seed, err = ParseSeed("00ff10")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff, 0x10}, seed)

	_, err = ParseSeed("not-hex")
	assert.Error(t, err)
}

func TestNewFactory_UnknownKind(t *testing.T) {
	_, err := NewFactory(Kind("dice"), nil)
	assert.Error(t, err)
}

func TestFactory_XOFIsDeterministicPerSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, SeedSize)

	a, err := NewFactory(KindXOF, seed)
	require.NoError(t, err)
	b, err := NewFactory(KindXOF, seed)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		bufA := make([]byte, 64)
		bufB := make([]byte, 64)
		require.NoError(t, Fill(a.New(), bufA))
		require.NoError(t, Fill(b.New(), bufB))
		assert.Equal(t, bufA, bufB, "stream %d", i)
	}
}

func TestFactory_XOFStreamsAreDistinct(t *testing.T) {
	f, err := NewFactory(KindXOF, []byte("seed"))
	require.NoError(t, err)

	first := make([]byte, 32)
	second := make([]byte, 32)
	require.NoError(t, Fill(f.New(), first))
	require.NoError(t, Fill(f.New(), second))
	assert.NotEqual(t, first, second)
}

func TestFactory_XOFStreamKeepsAdvancing(t *testing.T) {
	f, err := NewFactory(KindXOF, []byte("seed"))
	require.NoError(t, err)

	r := f.New()
	first := make([]byte, 32)
	second := make([]byte, 32)
	require.NoError(t, Fill(r, first))
	require.NoError(t, Fill(r, second))
	assert.NotEqual(t, first, second)
}

func TestFactory_RandomSeedWhenEmpty(t *testing.T) {
	a, err := NewFactory(KindXOF, nil)
	require.NoError(t, err)
	b, err := NewFactory(KindXOF, nil)
	require.NoError(t, err)

	assert.Len(t, a.Seed(), SeedSize)
	assert.NotEqual(t, a.Seed(), b.Seed())
}

func TestFactory_System(t *testing.T) {
	f, err := NewFactory(KindSystem, []byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, KindSystem, f.Kind())
	assert.Nil(t, f.Seed())

	buf := make([]byte, 48)
	require.NoError(t, Fill(f.New(), buf))
	assert.NotEqual(t, make([]byte, 48), buf)
}

func TestFactory_ConcurrentStreams(t *testing.T) {
	f, err := NewFactory(KindXOF, nil)
	require.NoError(t, err)

	const workers = 8
	outputs := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := f.New()
			buf := make([]byte, 32)
			for j := 0; j < 100; j++ {
				if err := Fill(r, buf); err != nil {
					t.Error(err)
					return
				}
			}
			outputs[i] = buf
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, out := range outputs {
		seen[string(out)] = true
	}
	assert.Len(t, seen, workers)
}
