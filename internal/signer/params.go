// Package signer generates keys and produces signatures for the benchmark
// workloads. Every function is safe for concurrent use as long as each
// caller passes its own random stream.
package signer

import (
	"crypto"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for a recognized but unsupported algorithm.
var ErrUnsupported = errors.New("unsupported")

// KeyKind is the signature algorithm family.
type KeyKind string

// Supported key kinds.
const (
	KindRSA     KeyKind = "rsa"
	KindECDSA   KeyKind = "ecdsa"
	KindEd25519 KeyKind = "ed25519"
	KindEd448   KeyKind = "ed448"
)

// KeyKinds lists the supported key kinds.
func KeyKinds() []KeyKind {
	return []KeyKind{KindRSA, KindECDSA, KindEd25519, KindEd448}
}

// ParseKeyKind parses a key kind, case-insensitively.
func ParseKeyKind(s string) (KeyKind, error) {
	k := KeyKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KeyKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unsupported key type: %s", s)
}

// Curve names an elliptic curve for ECDSA keys.
type Curve string

// Supported curves, by their SEC 2 names.
const (
	CurveP224      Curve = "secp224r1"
	CurveP256      Curve = "secp256r1"
	CurveP384      Curve = "secp384r1"
	CurveP521      Curve = "secp521r1"
	CurveSecp256k1 Curve = "secp256k1"

	// CurveP192 is recognized so it can be rejected with a clear error.
	CurveP192 Curve = "secp192r1"
)

// Curves lists the supported curves.
func Curves() []Curve {
	return []Curve{CurveP224, CurveP256, CurveP384, CurveP521, CurveSecp256k1}
}

var curveAliases = map[string]Curve{
	"secp192r1": CurveP192,
	"nistp192":  CurveP192,
	"secp224r1": CurveP224,
	"nistp224":  CurveP224,
	"p224":      CurveP224,
	"secp256r1": CurveP256,
	"nistp256":  CurveP256,
	"p256":      CurveP256,
	"secp384r1": CurveP384,
	"nistp384":  CurveP384,
	"p384":      CurveP384,
	"secp521r1": CurveP521,
	"nistp521":  CurveP521,
	"p521":      CurveP521,
	"secp256k1": CurveSecp256k1,
}

// ParseCurve parses a curve name or one of its aliases, case-insensitively.
func ParseCurve(s string) (Curve, error) {
	c, ok := curveAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unsupported curve: %s", s)
	}
	if c == CurveP192 {
		return "", fmt.Errorf("curve %s: %w", s, ErrUnsupported)
	}
	return c, nil
}

// Digest is the message digest algorithm used when signing.
type Digest string

// Supported digests.
const (
	SHA256 Digest = "sha256"
	SHA384 Digest = "sha384"
	SHA512 Digest = "sha512"
)

// Digests lists the supported digests.
func Digests() []Digest {
	return []Digest{SHA256, SHA384, SHA512}
}

// ParseDigest parses a digest name, case-insensitively. "sha-256" style
// spellings are accepted too.
func ParseDigest(s string) (Digest, error) {
	d := Digest(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ""))
	switch d {
	case SHA256, SHA384, SHA512:
		return d, nil
	default:
		return "", fmt.Errorf("unsupported digest: %s", s)
	}
}

// Hash returns the crypto.Hash identifier of the digest.
func (d Digest) Hash() crypto.Hash {
	switch d {
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// Size returns the digest length in bytes.
func (d Digest) Size() int {
	return d.Hash().Size()
}

// Sum returns the digest of msg.
func (d Digest) Sum(msg []byte) []byte {
	switch d {
	case SHA384:
		sum := sha512.Sum384(msg)
		return sum[:]
	case SHA512:
		sum := sha512.Sum512(msg)
		return sum[:]
	default:
		sum := sha256.Sum256(msg)
		return sum[:]
	}
}

const (
	// DefaultRSABits matches the default key size of the command line.
	DefaultRSABits = 2048

	// MinRSABits and MaxRSABits bound the accepted RSA modulus sizes.
	MinRSABits = 1024
	MaxRSABits = 16384
)

// Params describes the key to generate.
type Params struct {
	Kind KeyKind `json:"kind" yaml:"kind"`

	// Bits is the RSA modulus size
	Bits int `json:"bits,omitempty" yaml:"bits,omitempty"`

	// Curve is the ECDSA curve
	Curve Curve `json:"curve,omitempty" yaml:"curve,omitempty"`
}

// Validate checks that the parameters describe a key this package can build.
func (p Params) Validate() error {
	switch p.Kind {
	case KindRSA:
		if p.Bits < MinRSABits || p.Bits > MaxRSABits {
			return fmt.Errorf("rsa key size must be between %d and %d bits, got %d", MinRSABits, MaxRSABits, p.Bits)
		}
	case KindECDSA:
		if _, err := ParseCurve(string(p.Curve)); err != nil {
			return err
		}
	case KindEd25519, KindEd448:
	default:
		return fmt.Errorf("unsupported key type: %s", p.Kind)
	}
	return nil
}

// String describes the key, e.g. "rsa-2048" or "ecdsa-secp256r1".
func (p Params) String() string {
	switch p.Kind {
	case KindRSA:
		return fmt.Sprintf("%s-%d", p.Kind, p.Bits)
	case KindECDSA:
		return fmt.Sprintf("%s-%s", p.Kind, p.Curve)
	default:
		return string(p.Kind)
	}
}
