package workload

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/signer"
)

func TestParseOpType(t *testing.T) {
	for _, op := range OpTypes() {
		got, err := ParseOpType(" " + string(op) + " ")
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOpType("SIGN")
	require.NoError(t, err)
	assert.Equal(t, OpSign, got)

	_, err = ParseOpType("encrypt")
	assert.Error(t, err)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"unknown operation", Spec{Operation: "encrypt", Key: signer.Params{Kind: signer.KindEd25519}}},
		{"bad digest", Spec{Operation: OpSign, Key: signer.Params{Kind: signer.KindEd25519}, Digest: "md5"}},
		{"bad key", Spec{Operation: OpSign, Key: signer.Params{Kind: signer.KindRSA, Bits: 128}}},
		{"p192", Spec{Operation: OpSign, Key: signer.Params{Kind: signer.KindECDSA, Curve: signer.CurveP192}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestNew_Names(t *testing.T) {
	for _, op := range OpTypes() {
		d, err := New(Spec{Operation: op, Key: signer.Params{Kind: signer.KindEd25519}})
		require.NoError(t, err)
		assert.Equal(t, string(op), d.OperationName())
		assert.NoError(t, d.Validate())
	}
}

func TestWorkloads_RunInEngine(t *testing.T) {
	keys := []signer.Params{
		{Kind: signer.KindECDSA, Curve: signer.CurveP256},
		{Kind: signer.KindECDSA, Curve: signer.CurveSecp256k1},
		{Kind: signer.KindEd25519},
		{Kind: signer.KindEd448},
	}

	factory, err := entropy.NewFactory(entropy.KindXOF, make([]byte, entropy.SeedSize))
	require.NoError(t, err)

	for _, key := range keys {
		for _, op := range OpTypes() {
			t.Run(key.String()+"/"+string(op), func(t *testing.T) {
				d, err := New(Spec{Operation: op, Key: key, Digest: signer.SHA384, Entropy: factory})
				require.NoError(t, err)

				eng, err := engine.NewEngine(engine.Config{Threads: 2, OpsPerThread: 5})
				require.NoError(t, err)

				res, err := eng.Run(context.Background(), d)
				require.NoError(t, err)
				assert.Equal(t, int64(10), res.TotalOps)
				assert.Equal(t, string(op), res.Operation)
				assert.Greater(t, res.Throughput, 0.0)
			})
		}
	}
}

func TestSign_RSA(t *testing.T) {
	if testing.Short() {
		t.Skip("rsa key generation is slow")
	}

	d, err := New(Spec{
		Operation: OpSign,
		Key:       signer.Params{Kind: signer.KindRSA, Bits: signer.MinRSABits},
		Entropy:   mustFactory(t, entropy.KindSystem),
	})
	require.NoError(t, err)

	eng, err := engine.NewEngine(engine.Config{Threads: 2, OpsPerThread: 3})
	require.NoError(t, err)

	res, err := eng.Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.TotalOps)
}

func TestTeardown_ZeroesState(t *testing.T) {
	s := State{msg: []byte{1, 2, 3}, sig: []byte{4}}
	msg := s.msg

	require.NoError(t, teardown(&s))
	assert.Equal(t, []byte{0, 0, 0}, msg)
	assert.Nil(t, s.msg)
	assert.Nil(t, s.key)
}

func TestVerify_DetectsCorruption(t *testing.T) {
	w := &workload{spec: Spec{
		Operation: OpVerify,
		Key:       signer.Params{Kind: signer.KindEd25519},
		Digest:    signer.SHA256,
		Entropy:   mustFactory(t, entropy.KindXOF),
	}}

	s, err := w.setupSigned()
	require.NoError(t, err)
	require.NoError(t, w.verify(&s))

	s.msg[0] ^= 0xff
	assert.ErrorIs(t, w.verify(&s), signer.ErrVerification)
}

func mustFactory(t *testing.T, kind entropy.Kind) *entropy.Factory {
	t.Helper()
	f, err := entropy.NewFactory(kind, nil)
	require.NoError(t, err)
	return f
}
