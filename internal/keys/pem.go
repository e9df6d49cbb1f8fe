package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// Kinds under which key material is persisted.
const (
	KindPrivateKey    = "private-key"
	KindPublicKey     = "public-key"
	KindRsaPrivateKey = "rsa-private-key"
	KindRsaPublicKey  = "rsa-public-key"
)

const (
	pemPrivate = "RSA PRIVATE KEY"
	pemPublic  = "PUBLIC KEY"

	purposeHeader     = "Purpose"
	purposeEncryption = "encryption"
	purposeSigning    = "signing"
)

func (k *PrivateKey) Kind() string    { return KindPrivateKey }
func (k *PublicKey) Kind() string     { return KindPublicKey }
func (k *RsaPrivateKey) Kind() string { return KindRsaPrivateKey }
func (k *RsaPublicKey) Kind() string  { return KindRsaPublicKey }

// MarshalBinary encodes k as two PEM blocks.
func (k *PrivateKey) MarshalBinary() ([]byte, error) {
	out := encodePrivate(k.encryption, purposeEncryption)
	return append(out, encodePrivate(k.signing, purposeSigning)...), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (k *PrivateKey) UnmarshalBinary(data []byte) error {
	blocks, err := decodeBlocks(data, pemPrivate)
	if err != nil {
		return err
	}
	enc, sig := blocks[purposeEncryption], blocks[purposeSigning]
	if enc == nil || sig == nil || len(blocks) != 2 {
		return fmt.Errorf("%w: private key needs an encryption and a signing block", kerrors.ErrCorruptData)
	}
	encKey, err := parsePrivate(enc)
	if err != nil {
		return err
	}
	sigKey, err := parsePrivate(sig)
	if err != nil {
		return err
	}
	*k = PrivateKey{encryption: encKey, signing: sigKey}
	return nil
}

// MarshalBinary encodes k as two PEM blocks.
func (k *PublicKey) MarshalBinary() ([]byte, error) {
	enc, err := encodePublic(k.encryption, purposeEncryption)
	if err != nil {
		return nil, err
	}
	sig, err := encodePublic(k.signing, purposeSigning)
	if err != nil {
		return nil, err
	}
	return append(enc, sig...), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (k *PublicKey) UnmarshalBinary(data []byte) error {
	blocks, err := decodeBlocks(data, pemPublic)
	if err != nil {
		return err
	}
	enc, sig := blocks[purposeEncryption], blocks[purposeSigning]
	if enc == nil || sig == nil || len(blocks) != 2 {
		return fmt.Errorf("%w: public key needs an encryption and a signing block", kerrors.ErrCorruptData)
	}
	encKey, err := parsePublic(enc)
	if err != nil {
		return err
	}
	sigKey, err := parsePublic(sig)
	if err != nil {
		return err
	}
	*k = PublicKey{encryption: encKey, signing: sigKey}
	return nil
}

// MarshalBinary encodes k as a single PEM block.
func (k *RsaPrivateKey) MarshalBinary() ([]byte, error) {
	return encodePrivate(k.key, purposeSigning), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (k *RsaPrivateKey) UnmarshalBinary(data []byte) error {
	blocks, err := decodeBlocks(data, pemPrivate)
	if err != nil {
		return err
	}
	sig := blocks[purposeSigning]
	if sig == nil || len(blocks) != 1 {
		return fmt.Errorf("%w: expected a single signing key block", kerrors.ErrCorruptData)
	}
	key, err := parsePrivate(sig)
	if err != nil {
		return err
	}
	k.key = key
	return nil
}

// MarshalBinary encodes k as a single PEM block.
func (k *RsaPublicKey) MarshalBinary() ([]byte, error) {
	return encodePublic(k.key, purposeSigning)
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (k *RsaPublicKey) UnmarshalBinary(data []byte) error {
	blocks, err := decodeBlocks(data, pemPublic)
	if err != nil {
		return err
	}
	sig := blocks[purposeSigning]
	if sig == nil || len(blocks) != 1 {
		return fmt.Errorf("%w: expected a single signing key block", kerrors.ErrCorruptData)
	}
	key, err := parsePublic(sig)
	if err != nil {
		return err
	}
	k.key = key
	return nil
}

func encodePrivate(key *rsa.PrivateKey, purpose string) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:    pemPrivate,
		Headers: map[string]string{purposeHeader: purpose},
		Bytes:   x509.MarshalPKCS1PrivateKey(key),
	})
}

func encodePublic(key *rsa.PublicKey, purpose string) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:    pemPublic,
		Headers: map[string]string{purposeHeader: purpose},
		Bytes:   der,
	}), nil
}

// decodeBlocks splits data into PEM blocks of the wanted type keyed by purpose.
func decodeBlocks(data []byte, wantType string) (map[string]*pem.Block, error) {
	blocks := make(map[string]*pem.Block)
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != wantType {
			return nil, fmt.Errorf("%w: unexpected PEM block %q", kerrors.ErrCorruptData, block.Type)
		}
		purpose := block.Headers[purposeHeader]
		if _, dup := blocks[purpose]; dup {
			return nil, fmt.Errorf("%w: duplicate %s block", kerrors.ErrCorruptData, purpose)
		}
		blocks[purpose] = block
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: failed to decode PEM block containing key", kerrors.ErrCorruptData)
	}
	return blocks, nil
}

func parsePrivate(block *pem.Block) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrCorruptData, err)
	}
	return key, nil
}

func parsePublic(block *pem.Block) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrCorruptData, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", kerrors.ErrCorruptData)
	}
	return rsaPub, nil
}
