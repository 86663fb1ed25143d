// Package workload builds the benchmark operations driven by the engine.
package workload

import (
	"fmt"
	"io"
	"strings"

	"github.com/wesleyorama2/signbench/internal/engine"
	"github.com/wesleyorama2/signbench/internal/entropy"
	"github.com/wesleyorama2/signbench/internal/signer"
)

// OpType names a benchmarked operation.
type OpType string

// Supported operations.
const (
	OpSign   OpType = "sign"
	OpVerify OpType = "verify"
	OpKeygen OpType = "keygen"
)

// OpTypes lists the supported operations.
func OpTypes() []OpType {
	return []OpType{OpSign, OpVerify, OpKeygen}
}

// ParseOpType parses an operation name, case-insensitively.
func ParseOpType(s string) (OpType, error) {
	op := OpType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range OpTypes() {
		if op == known {
			return op, nil
		}
	}
	return "", fmt.Errorf("unsupported operation type: %s", s)
}

// Spec selects the operation and the key material it works on.
type Spec struct {
	Operation OpType
	Key       signer.Params
	Digest    signer.Digest

	// Entropy hands out one random stream per worker. Nil means a freshly
	// seeded xof factory.
	Entropy *entropy.Factory
}

// State is the worker-private state of every workload.
type State struct {
	rand io.Reader
	key  signer.Key
	msg  []byte
	sig  []byte
}

// New returns the descriptor for spec.
func New(spec Spec) (engine.Descriptor, error) {
	if spec.Digest == "" {
		spec.Digest = signer.SHA256
	}
	if _, err := signer.ParseDigest(string(spec.Digest)); err != nil {
		return nil, err
	}
	if err := spec.Key.Validate(); err != nil {
		return nil, err
	}
	if spec.Entropy == nil {
		f, err := entropy.NewFactory(entropy.KindXOF, nil)
		if err != nil {
			return nil, err
		}
		spec.Entropy = f
	}

	w := &workload{spec: spec}
	switch spec.Operation {
	case OpSign:
		return engine.Operation[State]{
			Name:     string(OpSign),
			Setup:    w.setupKey,
			Execute:  w.sign,
			Teardown: teardown,
		}, nil
	case OpVerify:
		return engine.Operation[State]{
			Name:     string(OpVerify),
			Setup:    w.setupSigned,
			Execute:  w.verify,
			Teardown: teardown,
		}, nil
	case OpKeygen:
		return engine.Operation[State]{
			Name:     string(OpKeygen),
			Setup:    w.setupStream,
			Execute:  w.keygen,
			Teardown: teardown,
		}, nil
	}
	return nil, fmt.Errorf("unsupported operation type: %s", spec.Operation)
}

type workload struct {
	spec Spec
}

func (w *workload) setupStream() (State, error) {
	return State{rand: w.spec.Entropy.New()}, nil
}

func (w *workload) setupKey() (State, error) {
	s, _ := w.setupStream()
	key, err := signer.GenerateKey(s.rand, w.spec.Key)
	if err != nil {
		return State{}, err
	}
	s.key = key
	s.msg = make([]byte, w.spec.Digest.Size())
	return s, nil
}

func (w *workload) setupSigned() (State, error) {
	s, err := w.setupKey()
	if err != nil {
		return State{}, err
	}
	if err := entropy.Fill(s.rand, s.msg); err != nil {
		return State{}, err
	}
	s.sig, err = s.key.Sign(s.rand, w.spec.Digest, s.msg)
	if err != nil {
		return State{}, err
	}
	return s, nil
}

func (w *workload) sign(s *State) error {
	if err := entropy.Fill(s.rand, s.msg); err != nil {
		return err
	}
	_, err := s.key.Sign(s.rand, w.spec.Digest, s.msg)
	return err
}

func (w *workload) verify(s *State) error {
	return s.key.Verify(w.spec.Digest, s.msg, s.sig)
}

func (w *workload) keygen(s *State) error {
	key, err := signer.GenerateKey(s.rand, w.spec.Key)
	if err != nil {
		return err
	}
	s.key = key
	return nil
}

func teardown(s *State) error {
	clear(s.msg)
	*s = State{}
	return nil
}

