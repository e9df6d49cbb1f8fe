package persist

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding"
	"encoding/json"
	"fmt"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"golang.org/x/crypto/argon2"
)

const (
	envelopeFormat  = "lockbox"
	envelopeVersion = 1

	saltLen = 32
)

// Argon2id parameters used for new envelopes.
var (
	argon2Time    uint32 = 1
	argon2Memory  uint32 = 64 * 1024
	argon2Threads uint8  = 4
)

const argon2KeyLen = 32

// Upper bounds accepted when reading Argon2id parameters back from an envelope.
const (
	maxKDFTime    = 10
	maxKDFMemory  = 1 << 21 // KiB
	maxKDFThreads = 16
)

// Marshaler is an object that can be persisted.
type Marshaler interface {
	encoding.BinaryMarshaler
	Kind() string
}

// Unmarshaler is an object that can be restored.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	Kind() string
}

type kdfParams struct {
	Algorithm string `json:"algorithm"`
	Salt      []byte `json:"salt"`
	Time      uint32 `json:"time"`
	Memory    uint32 `json:"memory"`
	Threads   uint8  `json:"threads"`
}

type envelope struct {
	Format     string     `json:"format"`
	Version    int        `json:"version"`
	Kind       string     `json:"kind"`
	Payload    []byte     `json:"payload,omitempty"`
	KDF        *kdfParams `json:"kdf,omitempty"`
	Nonce      []byte     `json:"nonce,omitempty"`
	Ciphertext []byte     `json:"ciphertext,omitempty"`
}

// Marshal encodes v without a password.
func Marshal(v Marshaler) ([]byte, error) {
	payload, err := v.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", v.Kind(), err)
	}
	return json.MarshalIndent(envelope{
		Format:  envelopeFormat,
		Version: envelopeVersion,
		Kind:    v.Kind(),
		Payload: payload,
	}, "", "  ")
}

// MarshalWithPassword encodes v encrypted under password.
func MarshalWithPassword(v Marshaler, password []byte) ([]byte, error) {
	payload, err := v.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", v.Kind(), err)
	}

	kdf := &kdfParams{
		Algorithm: "argon2id",
		Salt:      make([]byte, saltLen),
		Time:      argon2Time,
		Memory:    argon2Memory,
		Threads:   argon2Threads,
	}
	if _, err := rand.Read(kdf.Salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, kdf)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return json.MarshalIndent(envelope{
		Format:     envelopeFormat,
		Version:    envelopeVersion,
		Kind:       v.Kind(),
		KDF:        kdf,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, payload, []byte(v.Kind())),
	}, "", "  ")
}

// IsEncrypted reports whether data is password protected.
func IsEncrypted(data []byte) (bool, error) {
	env, err := parse(data)
	if err != nil {
		return false, err
	}
	return env.KDF != nil, nil
}

// Unmarshal decodes unprotected data into v.
func Unmarshal(data []byte, v Unmarshaler) error {
	env, err := parse(data)
	if err != nil {
		return err
	}
	if err := checkKind(env, v); err != nil {
		return err
	}
	if env.KDF != nil {
		return fmt.Errorf("%w: data is password protected", kerrors.ErrCorruptData)
	}
	return decode(env.Payload, v)
}

// UnmarshalWithPassword decodes password protected data into v. A password
// that does not open the data yields ErrWrongPassword.
func UnmarshalWithPassword(data, password []byte, v Unmarshaler) error {
	env, err := parse(data)
	if err != nil {
		return err
	}
	if err := checkKind(env, v); err != nil {
		return err
	}
	if env.KDF == nil {
		return fmt.Errorf("%w: data is not password protected", kerrors.ErrCorruptData)
	}
	gcm, err := newGCM(password, env.KDF)
	if err != nil {
		return err
	}
	if len(env.Nonce) != gcm.NonceSize() {
		return fmt.Errorf("%w: bad nonce length", kerrors.ErrCorruptData)
	}
	payload, err := gcm.Open(nil, env.Nonce, env.Ciphertext, []byte(env.Kind))
	if err != nil {
		return kerrors.ErrWrongPassword
	}
	return decode(payload, v)
}

func parse(data []byte) (*envelope, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, kerrors.ErrDataIsEmpty
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrCorruptData, err)
	}
	if env.Format != envelopeFormat {
		return nil, fmt.Errorf("%w: not a lockbox file", kerrors.ErrCorruptData)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", kerrors.ErrCorruptData, env.Version)
	}
	if env.KDF != nil && env.KDF.Algorithm != "argon2id" {
		return nil, fmt.Errorf("%w: unsupported kdf %q", kerrors.ErrCorruptData, env.KDF.Algorithm)
	}
	return &env, nil
}

func checkKind(env *envelope, v Unmarshaler) error {
	if env.Kind != v.Kind() {
		return fmt.Errorf("%w: file holds a %s, expected a %s", kerrors.ErrKindMismatch, env.Kind, v.Kind())
	}
	return nil
}

func decode(payload []byte, v Unmarshaler) error {
	if err := v.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("failed to decode %s: %w", v.Kind(), err)
	}
	return nil
}

func newGCM(password []byte, kdf *kdfParams) (cipher.AEAD, error) {
	if kdf.Time == 0 || kdf.Memory == 0 || kdf.Threads == 0 || len(kdf.Salt) == 0 {
		return nil, fmt.Errorf("%w: invalid kdf parameters", kerrors.ErrCorruptData)
	}
	if kdf.Time > maxKDFTime || kdf.Memory > maxKDFMemory || kdf.Threads > maxKDFThreads {
		return nil, fmt.Errorf("%w: kdf parameters out of range (time %d, memory %d, threads %d)",
			kerrors.ErrCorruptData, kdf.Time, kdf.Memory, kdf.Threads)
	}
	key := argon2.IDKey(password, kdf.Salt, kdf.Time, kdf.Memory, kdf.Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
