package archive

import (
	"archive/zip"
	"crypto"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/crypto/sha3"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

// rewrite is a new copy of the container being assembled beside it.
type rewrite struct {
	f      *File
	tmp    *os.File
	zw     *zip.Writer
	broken []string
	done   bool
}

// beginRewrite copies every entry of f whose virtual path is not skipped.
func (f *File) beginRewrite(skip func(path string) bool) (*rewrite, error) {
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temporary container: %v", kerrors.ErrIO, err)
	}
	r := &rewrite{f: f, tmp: tmp, zw: zip.NewWriter(tmp)}
	if err := copyEntries(r.zw, f.rc.File, skip, nil); err != nil {
		r.abort()
		return nil, err
	}
	return r, nil
}

// copyEntries raw-copies entries into zw, leaving out the virtual paths for
// which skip returns true. A non-nil meta replaces the metadata entry.
func copyEntries(zw *zip.Writer, files []*zip.File, skip func(path string) bool, meta *metadata) error {
	if meta != nil {
		if err := writeMeta(zw, *meta); err != nil {
			return fmt.Errorf("%w: writing metadata: %v", kerrors.ErrIO, err)
		}
	}
	for _, zf := range files {
		if zf.Name == metaEntry && meta != nil {
			continue
		}
		if _, path, ok := splitEntry(zf.Name); ok && skip != nil && skip(path) {
			continue
		}
		if err := zw.Copy(zf); err != nil {
			return fmt.Errorf("%w: copying %s: %v", kerrors.ErrIO, zf.Name, err)
		}
	}
	return nil
}

// under returns a skip function matching every path under one of dirs.
func under(dirs []string) func(string) bool {
	return func(path string) bool {
		for _, dir := range dirs {
			if tree.HasPrefix(path, dir) {
				return true
			}
		}
		return false
	}
}

type entryPart struct {
	name string
	data []byte
}

// add encrypts src into the rewrite under path.
func (r *rewrite) add(path string, src io.Reader, opts FileOptions, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) error {
	var fileKey [32]byte
	if _, err := io.ReadFull(rand.Reader, fileKey[:]); err != nil {
		return fmt.Errorf("%w: generating file key: %v", kerrors.ErrCrypto, err)
	}
	wrapped, err := recipient.WrapKey(fileKey[:], []byte(path))
	if err != nil {
		return err
	}

	// Once the content entry exists the rewrite holds a partial file that
	// must be dropped on commit if anything below fails.
	digest, err := r.writeBody(path, src, opts, &fileKey)
	if err != nil {
		r.broken = append(r.broken, path)
		return err
	}

	sealedDigest, err := seal(digest, &fileKey)
	if err != nil {
		r.broken = append(r.broken, path)
		return err
	}
	parts := []entryPart{
		{keyPrefix + path, wrapped},
		{digestPrefix + path, sealedDigest},
	}
	if signer != nil {
		sig, err := signer.Sign(crypto.SHA3_256, digest)
		if err == nil {
			sig, err = seal(sig, &fileKey)
		}
		if err != nil {
			r.broken = append(r.broken, path)
			return err
		}
		parts = append(parts, entryPart{signaturePrefix + path, sig})
	}

	for _, p := range parts {
		if err := writeEntry(r.zw, p.name, p.data); err != nil {
			r.broken = append(r.broken, path)
			return fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, p.name, err)
		}
	}
	return nil
}

func (r *rewrite) writeBody(path string, src io.Reader, opts FileOptions, fileKey *[32]byte) ([]byte, error) {
	w, err := r.zw.CreateHeader(&zip.FileHeader{Name: contentPrefix + path, Method: zip.Store, Modified: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	sw, err := newSealWriter(w, fileKey, opts.Method)
	if err != nil {
		return nil, err
	}
	cw, err := opts.compressor(sw)
	if err != nil {
		return nil, err
	}
	h := sha3.New256()
	if _, err := io.Copy(cw, io.TeeReader(src, h)); err != nil {
		return nil, fmt.Errorf("%w: encrypting %s: %v", kerrors.ErrIO, path, err)
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("%w: compressing %s: %v", kerrors.ErrIO, path, err)
	}
	if err := sw.Close(); err != nil {
		return nil, fmt.Errorf("%w: encrypting %s: %v", kerrors.ErrIO, path, err)
	}
	return h.Sum(nil), nil
}

// commit replaces the container with the rewrite and reloads it.
func (r *rewrite) commit() error {
	if r.done {
		return nil
	}
	r.done = true
	name := r.tmp.Name()

	err := r.zw.Close()
	if err == nil {
		err = r.tmp.Sync()
	}
	if cerr := r.tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && len(r.broken) > 0 {
		name, err = dropBroken(name, r.broken)
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: finishing container: %v", kerrors.ErrIO, err)
	}

	f := r.f
	f.Close()
	if err := os.Rename(name, f.path); err != nil {
		os.Remove(name)
		if lerr := f.load(); lerr != nil {
			return lerr
		}
		return fmt.Errorf("%w: replacing container: %v", kerrors.ErrIO, err)
	}
	return f.load()
}

// dropBroken copies the archive at name without the given paths and removes
// the original. It returns the name of the copy.
func dropBroken(name string, broken []string) (string, error) {
	src, err := zip.OpenReader(name)
	if err != nil {
		return name, err
	}
	defer os.Remove(name)
	defer src.Close()

	dst, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".*")
	if err != nil {
		return name, err
	}
	zw := zip.NewWriter(dst)
	err = copyEntries(zw, src.File, func(path string) bool { return slices.Contains(broken, path) }, nil)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst.Name())
		return name, err
	}
	return dst.Name(), nil
}

// abort discards the rewrite.
func (r *rewrite) abort() {
	if r.done {
		return
	}
	r.done = true
	r.zw.Close()
	r.tmp.Close()
	os.Remove(r.tmp.Name())
}
