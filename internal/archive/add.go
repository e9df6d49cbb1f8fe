package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/lockbox/internal/batch"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

// AddFile encrypts size bytes read from src and stores them at dest for
// recipient. A non-nil signer also signs the content digest.
func (f *File) AddFile(src io.Reader, size int64, dest string, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) error {
	dest, err := f.checkDest(dest)
	if err != nil {
		return err
	}
	opts := f.options
	if err := opts.checkSize(size); err != nil {
		return err
	}

	r, err := f.beginRewrite(nil)
	if err != nil {
		return err
	}
	if err := r.add(dest, src, opts, recipient, signer); err != nil {
		r.abort()
		return err
	}
	if err := r.commit(); err != nil {
		return err
	}
	f.Log.Debugf("Added %s (%d bytes, %s)", dest, size, opts)
	return nil
}

// checkDest validates a destination file path and rejects existing files.
func (f *File) checkDest(dest string) (string, error) {
	dest, err := tree.CleanPath(dest)
	if err != nil {
		return "", err
	}
	if dest == "" {
		return "", fmt.Errorf("%w: destination must name a file", kerrors.ErrInvalidPath)
	}
	content, err := f.DirectoryContent()
	if err != nil {
		return "", err
	}
	if _, ok := content.File(dest); ok {
		return "", fmt.Errorf("%w: %s", kerrors.ErrPathConflict, dest)
	}
	return dest, nil
}

type addItem struct {
	src  string
	dest string
	err  error
}

// AddDirectory adds every file under srcRoot, keeping its relative layout
// beneath dest. The returned batch yields the container path of each added
// file. Nothing happens until the batch is consumed; the container is
// replaced once, after the last item.
func (f *File) AddDirectory(srcRoot, dest string, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) iter.Seq[batch.Event[string]] {
	var r *rewrite
	opts := f.options

	plan := func() (batch.Plan[addItem], error) {
		var p batch.Plan[addItem]
		info, err := os.Stat(srcRoot)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return p, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, srcRoot)
			}
			return p, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
		}
		if !info.IsDir() {
			return p, fmt.Errorf("%w: %s", kerrors.ErrNotADirectory, srcRoot)
		}
		root, err := tree.CleanPath(dest)
		if err != nil {
			return p, err
		}

		err = filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == srcRoot {
					return err
				}
				p.Items = append(p.Items, addItem{src: path, err: fmt.Errorf("%w: %v", kerrors.ErrIO, err)})
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(srcRoot, path)
			if err != nil {
				return err
			}
			p.Items = append(p.Items, addItem{src: path, dest: tree.Join(root, filepath.ToSlash(rel))})
			return nil
		})
		if err != nil {
			return p, fmt.Errorf("%w: walking %s: %v", kerrors.ErrIO, srcRoot, err)
		}

		if len(p.Items) > 0 {
			if r, err = f.beginRewrite(nil); err != nil {
				return p, err
			}
			p.Finish = func() error {
				f.Log.Debugf("Committing %s", f.path)
				return r.commit()
			}
			p.Abandoned = func(err error) {
				f.Log.Errorf("Failed to commit %s after stopping early: %v", f.path, err)
			}
		}
		return p, nil
	}

	process := func(it addItem) batch.Item[string] {
		out := batch.Item[string]{Source: it.src, Dest: it.dest, Err: it.err}
		if out.Err == nil {
			out.Err = f.addFromDisk(r, it.src, it.dest, opts, recipient, signer)
		}
		if out.Err == nil {
			out.Result = it.dest
		}
		return out
	}

	return batch.Sequence(plan, process)
}

func (f *File) addFromDisk(r *rewrite, src, dest string, opts FileOptions, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) error {
	dest, err := f.checkDest(dest)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", kerrors.ErrNotAFile, src)
	}
	if err := opts.checkSize(info.Size()); err != nil {
		return err
	}
	return r.add(dest, in, opts, recipient, signer)
}
