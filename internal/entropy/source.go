// Package entropy provides the random input used by benchmark operations.
//
// Every worker gets its own stream from a Factory. A stream is owned by one
// worker and never shared, so no locking is needed to draw from it.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/zeebo/blake3"
)

// Kind selects where random bytes come from.
type Kind string

const (
	// KindXOF derives a fast deterministic stream per worker from a process
	// seed using the BLAKE3 extendable output function.
	KindXOF Kind = "xof"

	// KindSystem reads from the operating system generator.
	KindSystem Kind = "system"
)

// SeedSize is the length of a process seed in bytes.
const SeedSize = 32

// Kinds lists the supported kinds.
func Kinds() []Kind {
	return []Kind{KindXOF, KindSystem}
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindXOF, "":
		return KindXOF, nil
	case KindSystem:
		return KindSystem, nil
	default:
		return "", fmt.Errorf("unsupported entropy source: %s", s)
	}
}

// ParseSeed decodes a hex seed. An empty string yields a nil seed.
func ParseSeed(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return seed, nil
}

// Factory hands out per-worker random streams.
type Factory struct {
	kind    Kind
	seed    []byte
	streams atomic.Uint64
}

// NewFactory creates a factory. For KindXOF a nil or empty seed is replaced
// by SeedSize bytes from the system generator, once per factory.
func NewFactory(kind Kind, seed []byte) (*Factory, error) {
	switch kind {
	case KindXOF:
		if len(seed) == 0 {
			seed = make([]byte, SeedSize)
			if _, err := io.ReadFull(rand.Reader, seed); err != nil {
				return nil, fmt.Errorf("failed to draw process seed: %w", err)
			}
		}
	case KindSystem:
	default:
		return nil, fmt.Errorf("unsupported entropy source: %s", kind)
	}

	return &Factory{
		kind: kind,
		seed: append([]byte(nil), seed...),
	}, nil
}

// Kind returns the factory's kind.
func (f *Factory) Kind() Kind {
	return f.kind
}

// Seed returns a copy of the process seed (nil for KindSystem).
func (f *Factory) Seed() []byte {
	if f.kind != KindXOF {
		return nil
	}
	return append([]byte(nil), f.seed...)
}

// New returns a fresh stream. Streams from one factory are pairwise
// distinct; the n-th stream of two factories with the same seed is equal.
func (f *Factory) New() io.Reader {
	n := f.streams.Add(1)
	if f.kind == KindSystem {
		return rand.Reader
	}

	h := blake3.New()
	_, _ = h.Write(f.seed)
	var counter [8]byte
	binary.LittleEndian.PutUint64(counter[:], n)
	_, _ = h.Write(counter[:])
	return h.Digest()
}

// Fill fills buf completely from r.
func Fill(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("failed to fill random bytes: %w", err)
	}
	return nil
}
