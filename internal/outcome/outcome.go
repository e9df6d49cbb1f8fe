// Package outcome classifies the result of decrypting a file.
//
// There are three decrypt modes. Plain reports whether the content digest
// matched. Verify additionally checks the signature against one signer key.
// FindSigner looks for the registered signer whose key matches the signature.
// In the last two modes a file without any signature is not a failure: the
// file is decrypted plainly and reported as not signed.
package outcome

import (
	"errors"
	"fmt"
	"io"
	"iter"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
)

// SignerSet is a registry of named signer keys.
type SignerSet interface {
	All() iter.Seq2[string, *keys.RsaPublicKey]
}

// Mode selects how a file is decrypted. It is one of Plain, Verify or FindSigner.
type Mode interface {
	mode()
	String() string
}

// Plain decrypts and checks the digest only.
type Plain struct{}

// Verify checks the signature against Signer.
type Verify struct {
	Signer *keys.RsaPublicKey
}

// FindSigner looks the signature up in Signers.
type FindSigner struct {
	Signers SignerSet
}

func (Plain) mode()      {}
func (Verify) mode()     {}
func (FindSigner) mode() {}

func (Plain) String() string      { return "plain" }
func (Verify) String() string     { return "verify" }
func (FindSigner) String() string { return "find-signer" }

// Kind tells which variant an Outcome holds.
type Kind int

const (
	KindDecrypted Kind = iota
	KindDecryptedAndVerified
	KindDecryptedAndIdentified
	KindFailed
)

// FailureKind classifies why a decrypt failed. New kinds may be added.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureKeyInvalid
	FailureCorrupt
	FailureIO
	FailureNotFound
	FailureNoContent
	FailureDestinationExists
)

func (k FailureKind) String() string {
	switch k {
	case FailureKeyInvalid:
		return "key invalid"
	case FailureCorrupt:
		return "corrupt"
	case FailureIO:
		return "i/o"
	case FailureNotFound:
		return "not found"
	case FailureNoContent:
		return "no content"
	case FailureDestinationExists:
		return "destination exists"
	default:
		return "unknown"
	}
}

// Outcome is the result of decrypting one file.
//
// DigestValid is meaningful unless Kind is KindFailed. Signed is false when
// the file carries no signature; SignatureErr and Signer are then unset.
type Outcome struct {
	Kind        Kind
	DigestValid bool

	Signed       bool
	SignatureErr error

	Signer      string
	SignerFound bool

	Err     error
	Failure FailureKind
}

// Failed builds a failed outcome, classifying err.
func Failed(err error) Outcome {
	return Outcome{Kind: KindFailed, Err: err, Failure: Classify(err)}
}

// OK reports whether the file was decrypted, regardless of digest or signature.
func (o Outcome) OK() bool { return o.Kind != KindFailed }

// Trusted reports whether the file decrypted with a valid digest and, when a
// signature check was requested, a valid signature from a known signer.
func (o Outcome) Trusted() bool {
	switch o.Kind {
	case KindDecrypted:
		return o.DigestValid
	case KindDecryptedAndVerified:
		return o.DigestValid && o.Signed && o.SignatureErr == nil
	case KindDecryptedAndIdentified:
		return o.DigestValid && o.Signed && o.SignerFound
	default:
		return false
	}
}

func (o Outcome) String() string {
	digest := "digest valid"
	if !o.DigestValid {
		digest = "digest INVALID"
	}
	switch o.Kind {
	case KindDecrypted:
		return "decrypted, " + digest
	case KindDecryptedAndVerified:
		switch {
		case !o.Signed:
			return "decrypted, " + digest + ", not signed"
		case o.SignatureErr != nil:
			return "decrypted, " + digest + ", signature INVALID"
		default:
			return "decrypted, " + digest + ", signature valid"
		}
	case KindDecryptedAndIdentified:
		switch {
		case !o.Signed:
			return "decrypted, " + digest + ", not signed"
		case !o.SignerFound:
			return "decrypted, " + digest + ", signer unknown"
		default:
			return fmt.Sprintf("decrypted, %s, signed by %s", digest, o.Signer)
		}
	default:
		return fmt.Sprintf("failed (%s): %v", o.Failure, o.Err)
	}
}

// Classify maps an engine error to a FailureKind.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureUnknown
	case errors.Is(err, kerrors.ErrKeyInvalid):
		return FailureKeyInvalid
	case errors.Is(err, kerrors.ErrCorruptArchive), errors.Is(err, kerrors.ErrCrypto):
		return FailureCorrupt
	case errors.Is(err, kerrors.ErrPathNotFound):
		return FailureNotFound
	case errors.Is(err, kerrors.ErrNoContent):
		return FailureNoContent
	case errors.Is(err, kerrors.ErrDestinationExists):
		return FailureDestinationExists
	case errors.Is(err, kerrors.ErrIO):
		return FailureIO
	default:
		return FailureUnknown
	}
}

// Decrypter is the part of the archive engine the classifier drives.
//
// DecryptFileAndVerify and DecryptFileAndFindSigner must return
// ErrFileIsNotSigned before writing anything when the file has no signature.
type Decrypter interface {
	DecryptFile(path string, w io.Writer, key *keys.PrivateKey) (digestValid bool, err error)
	DecryptFileAndVerify(path string, w io.Writer, key *keys.PrivateKey, signer *keys.RsaPublicKey) (digestValid bool, sigErr error, err error)
	DecryptFileAndFindSigner(path string, w io.Writer, key *keys.PrivateKey, signers SignerSet) (digestValid bool, signer string, found bool, err error)
}

// Decrypt decrypts path into w according to mode and classifies the result.
func Decrypt(d Decrypter, path string, w io.Writer, key *keys.PrivateKey, mode Mode) Outcome {
	switch m := mode.(type) {
	case Verify:
		valid, sigErr, err := d.DecryptFileAndVerify(path, w, key, m.Signer)
		if errors.Is(err, kerrors.ErrFileIsNotSigned) {
			return unsigned(d, path, w, key, KindDecryptedAndVerified)
		}
		if err != nil {
			return Failed(err)
		}
		return Outcome{Kind: KindDecryptedAndVerified, DigestValid: valid, Signed: true, SignatureErr: sigErr}

	case FindSigner:
		valid, name, found, err := d.DecryptFileAndFindSigner(path, w, key, m.Signers)
		if errors.Is(err, kerrors.ErrFileIsNotSigned) {
			return unsigned(d, path, w, key, KindDecryptedAndIdentified)
		}
		if err != nil {
			return Failed(err)
		}
		return Outcome{Kind: KindDecryptedAndIdentified, DigestValid: valid, Signed: true, Signer: name, SignerFound: found}

	default:
		valid, err := d.DecryptFile(path, w, key)
		if err != nil {
			return Failed(err)
		}
		return Outcome{Kind: KindDecrypted, DigestValid: valid}
	}
}

// unsigned falls back to a plain decrypt and marks the result as not signed.
func unsigned(d Decrypter, path string, w io.Writer, key *keys.PrivateKey, kind Kind) Outcome {
	valid, err := d.DecryptFile(path, w, key)
	if err != nil {
		return Failed(err)
	}
	return Outcome{Kind: kind, DigestValid: valid}
}
