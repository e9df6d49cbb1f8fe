package archive

import (
	"archive/zip"
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/PolarWolf314/lockbox/internal/batch"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/outcome"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

// sealedFile is an opened file key plus the sealed parts of one file.
type sealedFile struct {
	path    string
	key     [32]byte
	content *zip.File
	digest  []byte
	sig     []byte
}

// openFile resolves path and unwraps its file key. When needSig is set a
// missing signature is reported as ErrFileIsNotSigned before anything else.
func (f *File) openFile(path string, priv *keys.PrivateKey, needSig bool) (*sealedFile, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	path, err := tree.CleanPath(path)
	if err != nil {
		return nil, err
	}
	content, err := f.DirectoryContent()
	if err != nil {
		return nil, err
	}
	entry, ok := content.File(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, path)
	}
	if !entry.HasContent {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNoContent, path)
	}
	if needSig && !entry.IsSigned {
		return nil, kerrors.ErrFileIsNotSigned
	}
	if !entry.HasKey {
		return nil, fmt.Errorf("%w: %s has no key", kerrors.ErrCorruptArchive, path)
	}

	wrapped, err := readEntry(f.entries[keyPrefix+path])
	if err != nil {
		return nil, err
	}
	fileKey, err := priv.UnwrapKey(wrapped, []byte(path))
	if err != nil {
		return nil, err
	}
	if len(fileKey) != 32 {
		return nil, fmt.Errorf("%w: file key has %d bytes", kerrors.ErrKeyInvalid, len(fileKey))
	}

	sf := &sealedFile{path: path, content: f.entries[contentPrefix+path]}
	copy(sf.key[:], fileKey)

	if entry.HasDigest {
		if sf.digest, err = f.openEntry(digestPrefix+path, &sf.key); err != nil {
			return nil, err
		}
	}
	if entry.IsSigned {
		if sf.sig, err = f.openEntry(signaturePrefix+path, &sf.key); err != nil {
			return nil, err
		}
	}
	return sf, nil
}

func (f *File) openEntry(name string, key *[32]byte) ([]byte, error) {
	sealed, err := readEntry(f.entries[name])
	if err != nil {
		return nil, err
	}
	return open(sealed, key)
}

// decryptBody writes the plaintext to w and reports whether it matches the
// stored digest.
func (sf *sealedFile) decryptBody(w io.Writer) (bool, error) {
	if sf.content == nil {
		return false, fmt.Errorf("%w: %s has no content entry", kerrors.ErrCorruptArchive, sf.path)
	}
	rc, err := sf.content.Open()
	if err != nil {
		return false, fmt.Errorf("%w: opening %s: %v", kerrors.ErrCorruptArchive, sf.path, err)
	}
	defer rc.Close()

	body, method, err := newOpenReader(rc, &sf.key)
	if err != nil {
		return false, err
	}
	dr, err := decompressor(method, body)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", kerrors.ErrCorruptArchive, sf.path, err)
	}
	defer dr.Close()

	h := sha3.New256()
	if _, err := io.Copy(io.MultiWriter(w, h), dr); err != nil {
		if errors.Is(err, kerrors.ErrCorruptArchive) || errors.Is(err, kerrors.ErrIO) {
			return false, err
		}
		return false, fmt.Errorf("%w: decrypting %s: %v", kerrors.ErrCorruptArchive, sf.path, err)
	}
	return sf.digest != nil && bytes.Equal(h.Sum(nil), sf.digest), nil
}

// DecryptFile writes the plaintext of path to w. It reports whether the
// content matched its digest.
func (f *File) DecryptFile(path string, w io.Writer, priv *keys.PrivateKey) (bool, error) {
	sf, err := f.openFile(path, priv, false)
	if err != nil {
		return false, err
	}
	return sf.decryptBody(w)
}

// DecryptFileAndVerify decrypts path and checks its signature against signer.
// A file without a signature yields ErrFileIsNotSigned and writes nothing.
func (f *File) DecryptFileAndVerify(path string, w io.Writer, priv *keys.PrivateKey, signer *keys.RsaPublicKey) (bool, error, error) {
	if signer == nil {
		return false, nil, fmt.Errorf("%w: no signer key", kerrors.ErrSignerNotFound)
	}
	sf, err := f.openFile(path, priv, true)
	if err != nil {
		return false, nil, err
	}
	sigErr := signer.Verify(crypto.SHA3_256, sf.digest, sf.sig)
	valid, err := sf.decryptBody(w)
	if err != nil {
		return false, nil, err
	}
	return valid, sigErr, nil
}

// DecryptFileAndFindSigner decrypts path and looks for the first signer, by
// registry order, whose key verifies the signature. found is false when none does.
func (f *File) DecryptFileAndFindSigner(path string, w io.Writer, priv *keys.PrivateKey, signers outcome.SignerSet) (bool, string, bool, error) {
	sf, err := f.openFile(path, priv, true)
	if err != nil {
		return false, "", false, err
	}
	var name string
	found := false
	if signers != nil {
		for n, key := range signers.All() {
			if key.Verify(crypto.SHA3_256, sf.digest, sf.sig) == nil {
				name, found = n, true
				break
			}
		}
	}
	valid, err := sf.decryptBody(w)
	if err != nil {
		return false, "", false, err
	}
	return valid, name, found, nil
}

// DecryptOptions controls where a directory decrypt writes.
type DecryptOptions struct {
	// Overwrite replaces existing output files instead of failing them.
	Overwrite bool
}

type decryptItem struct {
	path string
	out  string
}

// DecryptDirectory decrypts every file under src into destRoot, recreating
// the container layout. Each item carries its classified outcome; a failed
// item does not stop the batch. priv is precomputed once before the first item.
func (f *File) DecryptDirectory(src, destRoot string, priv *keys.PrivateKey, mode outcome.Mode, opts DecryptOptions) iter.Seq[batch.Event[outcome.Outcome]] {
	plan := func() (batch.Plan[decryptItem], error) {
		var p batch.Plan[decryptItem]
		if err := f.checkOpen(); err != nil {
			return p, err
		}
		src, err := tree.CleanPath(src)
		if err != nil {
			return p, err
		}
		content, err := f.DirectoryContent()
		if err != nil {
			return p, err
		}
		dir, ok := content.Dir(src)
		if !ok {
			return p, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, src)
		}
		if err := ensureDir(destRoot); err != nil {
			return p, err
		}
		priv.Precompute()

		for rel := range dir.Paths() {
			p.Items = append(p.Items, decryptItem{
				path: tree.Join(src, rel),
				out:  filepath.Join(destRoot, filepath.FromSlash(rel)),
			})
		}
		return p, nil
	}

	process := func(it decryptItem) batch.Item[outcome.Outcome] {
		res := f.decryptTo(it.path, it.out, priv, mode, opts.Overwrite)
		return batch.Item[outcome.Outcome]{Source: it.path, Dest: it.out, Result: res, Err: res.Err}
	}

	return batch.Sequence(plan, process)
}

// decryptTo decrypts one file into a new file on disk. Output of a failed
// decrypt is removed.
func (f *File) decryptTo(path, out string, priv *keys.PrivateKey, mode outcome.Mode, overwrite bool) outcome.Outcome {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return outcome.Failed(fmt.Errorf("%w: %v", kerrors.ErrIO, err))
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	w, err := os.OpenFile(out, flags, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return outcome.Failed(fmt.Errorf("%w: %s", kerrors.ErrDestinationExists, out))
		}
		return outcome.Failed(fmt.Errorf("%w: %v", kerrors.ErrIO, err))
	}

	res := outcome.Decrypt(f, path, w, priv, mode)
	if err := w.Close(); err != nil && res.OK() {
		res = outcome.Failed(fmt.Errorf("%w: %v", kerrors.ErrIO, err))
	}
	if !res.OK() {
		os.Remove(out)
	}
	return res
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", kerrors.ErrNotADirectory, path)
	}
	return nil
}
