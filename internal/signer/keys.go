package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
)

// ErrVerification is returned when a signature does not verify.
var ErrVerification = errors.New("signature verification failed")

// Key is a private key able to sign and verify.
type Key interface {
	// Params returns the parameters the key was generated with.
	Params() Params

	// Sign signs msg. For RSA and ECDSA keys msg is a digest and must be
	// exactly digest.Size() bytes long; EdDSA keys sign msg as is.
	Sign(rand io.Reader, digest Digest, msg []byte) ([]byte, error)

	// Verify checks sig over msg against the key's public half.
	Verify(digest Digest, msg, sig []byte) error

	// SignatureSize returns the maximum signature length in bytes.
	SignatureSize() int
}

// GenerateKey creates a new key described by p, drawing randomness from rand.
func GenerateKey(rand io.Reader, p Params) (Key, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch p.Kind {
	case KindRSA:
		priv, err := rsa.GenerateKey(rand, p.Bits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s key: %w", p, err)
		}
		return &rsaKey{params: p, priv: priv}, nil

	case KindECDSA:
		curve, _ := ParseCurve(string(p.Curve))
		p.Curve = curve
		if curve == CurveSecp256k1 {
			priv, err := secp256k1.GeneratePrivateKeyFromRand(rand)
			if err != nil {
				return nil, fmt.Errorf("failed to generate %s key: %w", p, err)
			}
			return &secp256k1Key{params: p, priv: priv, pub: priv.PubKey()}, nil
		}
		priv, err := ecdsa.GenerateKey(ellipticCurve(curve), rand)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s key: %w", p, err)
		}
		return &ecdsaKey{params: p, priv: priv}, nil

	case KindEd25519:
		pub, priv, err := ed25519.GenerateKey(rand)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s key: %w", p, err)
		}
		return &ed25519Key{params: p, priv: priv, pub: pub}, nil

	case KindEd448:
		pub, priv, err := ed448.GenerateKey(rand)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s key: %w", p, err)
		}
		return &ed448Key{params: p, priv: priv, pub: pub}, nil
	}

	return nil, fmt.Errorf("unsupported key type: %s", p.Kind)
}

func ellipticCurve(c Curve) elliptic.Curve {
	switch c {
	case CurveP224:
		return elliptic.P224()
	case CurveP384:
		return elliptic.P384()
	case CurveP521:
		return elliptic.P521()
	default:
		return elliptic.P256()
	}
}

func checkDigestLen(digest Digest, msg []byte) error {
	if len(msg) != digest.Size() {
		return fmt.Errorf("%s digest must be %d bytes, got %d", digest, digest.Size(), len(msg))
	}
	return nil
}

type rsaKey struct {
	params Params
	priv   *rsa.PrivateKey
}

func (k *rsaKey) Params() Params { return k.params }

func (k *rsaKey) SignatureSize() int { return k.priv.Size() }

func (k *rsaKey) Sign(rand io.Reader, digest Digest, msg []byte) ([]byte, error) {
	if err := checkDigestLen(digest, msg); err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(rand, k.priv, digest.Hash(), msg)
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (k *rsaKey) Verify(digest Digest, msg, sig []byte) error {
	if err := rsa.VerifyPKCS1v15(&k.priv.PublicKey, digest.Hash(), msg, sig); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}

type ecdsaKey struct {
	params Params
	priv   *ecdsa.PrivateKey
}

func (k *ecdsaKey) Params() Params { return k.params }

// SignatureSize is the largest ASN.1 encoding of (r, s) for the curve.
func (k *ecdsaKey) SignatureSize() int {
	n := (k.priv.Curve.Params().BitSize + 7) / 8
	return 2*(n+3) + 3
}

func (k *ecdsaKey) Sign(rand io.Reader, digest Digest, msg []byte) ([]byte, error) {
	if err := checkDigestLen(digest, msg); err != nil {
		return nil, err
	}
	sig, err := ecdsa.SignASN1(rand, k.priv, msg)
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	return sig, nil
}

func (k *ecdsaKey) Verify(_ Digest, msg, sig []byte) error {
	if !ecdsa.VerifyASN1(&k.priv.PublicKey, msg, sig) {
		return ErrVerification
	}
	return nil
}

// secp256k1Key signs deterministically (RFC 6979) and ignores rand.
type secp256k1Key struct {
	params Params
	priv   *secp256k1.PrivateKey
	pub    *secp256k1.PublicKey
}

func (k *secp256k1Key) Params() Params { return k.params }

func (k *secp256k1Key) SignatureSize() int { return 72 }

func (k *secp256k1Key) Sign(_ io.Reader, digest Digest, msg []byte) ([]byte, error) {
	if err := checkDigestLen(digest, msg); err != nil {
		return nil, err
	}
	return k1ecdsa.Sign(k.priv, msg).Serialize(), nil
}

func (k *secp256k1Key) Verify(_ Digest, msg, sig []byte) error {
	parsed, err := k1ecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if !parsed.Verify(msg, k.pub) {
		return ErrVerification
	}
	return nil
}

type ed25519Key struct {
	params Params
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
}

func (k *ed25519Key) Params() Params { return k.params }

func (k *ed25519Key) SignatureSize() int { return ed25519.SignatureSize }

func (k *ed25519Key) Sign(_ io.Reader, _ Digest, msg []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, msg), nil
}

func (k *ed25519Key) Verify(_ Digest, msg, sig []byte) error {
	if !ed25519.Verify(k.pub, msg, sig) {
		return ErrVerification
	}
	return nil
}

type ed448Key struct {
	params Params
	priv   ed448.PrivateKey
	pub    ed448.PublicKey
}

func (k *ed448Key) Params() Params { return k.params }

func (k *ed448Key) SignatureSize() int { return ed448.SignatureSize }

func (k *ed448Key) Sign(_ io.Reader, _ Digest, msg []byte) ([]byte, error) {
	return ed448.Sign(k.priv, msg, ""), nil
}

func (k *ed448Key) Verify(_ Digest, msg, sig []byte) error {
	if !ed448.Verify(k.pub, msg, sig, "") {
		return ErrVerification
	}
	return nil
}
