package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"math/big"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// MinKeySize is the smallest RSA modulus, in bits, NewPrivateKey accepts.
const MinKeySize = 2048

// DefaultKeySize is the modulus size offered when nothing else is configured.
const DefaultKeySize = 4096

// PrivateKey is the full key material of a container recipient and signer.
type PrivateKey struct {
	encryption  *rsa.PrivateKey
	signing     *rsa.PrivateKey
	precomputed bool
}

// PublicKey is what a sender needs to add files for a recipient.
type PublicKey struct {
	encryption *rsa.PublicKey
	signing    *rsa.PublicKey
}

// RsaPrivateKey signs files.
type RsaPrivateKey struct {
	key *rsa.PrivateKey
}

// RsaPublicKey verifies signatures and identifies signers.
type RsaPublicKey struct {
	key *rsa.PublicKey
}

// NewPrivateKey generates both halves of a private key with the given modulus size.
func NewPrivateKey(bits int) (*PrivateKey, error) {
	if bits < MinKeySize {
		return nil, fmt.Errorf("%w: %d bits requested, minimum is %d", kerrors.ErrKeySizeTooSmall, bits, MinKeySize)
	}
	enc, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	sig, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return &PrivateKey{encryption: enc, signing: sig}, nil
}

// PublicKey derives the public half of k.
func (k *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{
		encryption: copyPublic(&k.encryption.PublicKey),
		signing:    copyPublic(&k.signing.PublicKey),
	}
}

// RsaPrivateKey derives the signing key of k.
func (k *PrivateKey) RsaPrivateKey() *RsaPrivateKey {
	return &RsaPrivateKey{key: copyPrivate(k.signing)}
}

// RsaPublicKey derives the signer identity of k.
func (k *PrivateKey) RsaPublicKey() *RsaPublicKey {
	return &RsaPublicKey{key: copyPublic(&k.signing.PublicKey)}
}

// Precompute prepares the encryption half for repeated decryption. It only
// does work the first time it is called on k.
func (k *PrivateKey) Precompute() {
	if k.precomputed {
		return
	}
	k.encryption.Precompute()
	k.precomputed = true
}

// Precomputed reports whether Precompute has run on k.
func (k *PrivateKey) Precomputed() bool { return k.precomputed }

// Bits returns the modulus size of k.
func (k *PrivateKey) Bits() int { return k.encryption.N.BitLen() }

// UnwrapKey decrypts a file key that was wrapped for k's public key.
func (k *PrivateKey) UnwrapKey(wrapped, label []byte) ([]byte, error) {
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, k.encryption, wrapped, label)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyInvalid, err)
	}
	return key, nil
}

// RsaPublicKey derives the signer identity carried by k.
func (k *PublicKey) RsaPublicKey() *RsaPublicKey {
	return &RsaPublicKey{key: copyPublic(k.signing)}
}

// Bits returns the modulus size of k.
func (k *PublicKey) Bits() int { return k.encryption.N.BitLen() }

// WrapKey encrypts a file key so that only the matching PrivateKey can read it.
func (k *PublicKey) WrapKey(key, label []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, k.encryption, key, label)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapping file key: %v", kerrors.ErrCrypto, err)
	}
	return wrapped, nil
}

// Fingerprint identifies k by its encryption half.
func (k *PublicKey) Fingerprint() string { return fingerprint(k.encryption) }

// PublicKey derives the verification key of k.
func (k *RsaPrivateKey) PublicKey() *RsaPublicKey {
	return &RsaPublicKey{key: copyPublic(&k.key.PublicKey)}
}

// Bits returns the modulus size of k.
func (k *RsaPrivateKey) Bits() int { return k.key.N.BitLen() }

// Sign produces an RSA-PSS signature over a digest computed with h.
func (k *RsaPrivateKey) Sign(h crypto.Hash, digest []byte) ([]byte, error) {
	sig, err := rsa.SignPSS(rand.Reader, k.key, h, digest, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: signing digest: %v", kerrors.ErrCrypto, err)
	}
	return sig, nil
}

// Bits returns the modulus size of k.
func (k *RsaPublicKey) Bits() int { return k.key.N.BitLen() }

// Verify checks an RSA-PSS signature over a digest computed with h.
func (k *RsaPublicKey) Verify(h crypto.Hash, digest, sig []byte) error {
	if err := rsa.VerifyPSS(k.key, h, digest, sig, nil); err != nil {
		return kerrors.ErrInvalidSignature
	}
	return nil
}

// Equal reports whether k and other are the same public key.
func (k *RsaPublicKey) Equal(other *RsaPublicKey) bool {
	return other != nil && k.key.Equal(other.key)
}

// Fingerprint identifies k.
func (k *RsaPublicKey) Fingerprint() string { return fingerprint(k.key) }

func fingerprint(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

func copyPublic(pub *rsa.PublicKey) *rsa.PublicKey {
	return &rsa.PublicKey{N: new(big.Int).Set(pub.N), E: pub.E}
}

func copyPrivate(priv *rsa.PrivateKey) *rsa.PrivateKey {
	// A PKCS#1 round trip yields fully independent big.Int values, including
	// the precomputed CRT fields.
	cp, err := x509.ParsePKCS1PrivateKey(x509.MarshalPKCS1PrivateKey(priv))
	if err != nil {
		panic(fmt.Sprintf("keys: copying a valid private key failed: %v", err))
	}
	return cp
}
