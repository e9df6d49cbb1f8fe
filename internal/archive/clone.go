package archive

import (
	"archive/zip"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

// resolveExcluded cleans paths and checks that each names a file or a
// directory of the container. The root is rejected.
func (f *File) resolveExcluded(paths []string) ([]string, error) {
	content, err := f.DirectoryContent()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		clean, err := tree.CleanPath(p)
		if err != nil {
			return nil, err
		}
		if clean == "" {
			return nil, fmt.Errorf("%w: cannot exclude the root", kerrors.ErrInvalidPath)
		}
		_, isFile := content.File(clean)
		_, isDir := content.Dir(clean)
		if !isFile && !isDir {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, clean)
		}
		out = append(out, clean)
	}
	return out, nil
}

// CloneExcluding writes a copy of the container to w without the excluded
// paths. A directory path excludes its whole subtree. The copy is a new
// container with its own id. Nothing is written if a path does not exist.
func (f *File) CloneExcluding(w io.Writer, excluded []string) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	excluded, err := f.resolveExcluded(excluded)
	if err != nil {
		return err
	}

	meta := newMetadata()
	zw := zip.NewWriter(w)
	if err := copyEntries(zw, f.rc.File, under(excluded), &meta); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finishing clone: %v", kerrors.ErrIO, err)
	}
	f.Log.Debugf("Cloned %s without %d path(s)", f.path, len(excluded))
	return nil
}

// Delete removes paths from the container by rewriting it without them.
func (f *File) Delete(paths []string) error {
	excluded, err := f.resolveExcluded(paths)
	if err != nil {
		return err
	}
	r, err := f.beginRewrite(under(excluded))
	if err != nil {
		return err
	}
	return r.commit()
}
