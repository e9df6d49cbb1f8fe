package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

const (
	metaEntry   = ".lockbox/meta.json"
	metaVersion = 1

	contentPrefix   = "content/"
	keyPrefix       = "key/"
	digestPrefix    = "digest/"
	signaturePrefix = "signature/"

	// maxSmallEntry bounds key, digest and signature entries.
	maxSmallEntry = 64 << 10
)

var entryPrefixes = []string{contentPrefix, keyPrefix, digestPrefix, signaturePrefix}

type metadata struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

func newMetadata() metadata {
	return metadata{Version: metaVersion, ID: uuid.NewString(), Created: time.Now().UTC()}
}

// File is an opened container. It is not safe for concurrent use.
type File struct {
	Log logger.Logger

	path    string
	meta    metadata
	rc      *zip.ReadCloser
	entries map[string]*zip.File
	options FileOptions
	content *tree.DirectoryContent
}

// Create writes a new, empty container at path. The path must not exist.
func Create(path string) (*File, error) {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrDestinationExists, path)
		}
		return nil, fmt.Errorf("%w: creating %s: %v", kerrors.ErrIO, path, err)
	}

	zw := zip.NewWriter(out)
	werr := writeMeta(zw, newMetadata())
	if cerr := zw.Close(); werr == nil {
		werr = cerr
	}
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, path, werr)
	}
	return Open(path)
}

// Open opens an existing container.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrNotAFile, path)
	}

	f := &File{path: path, options: DefaultOptions()}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// load (re)reads the central directory and the metadata entry.
func (f *File) load() error {
	rc, err := zip.OpenReader(f.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrCorruptArchive, f.path, err)
	}
	entries := make(map[string]*zip.File, len(rc.File))
	for _, zf := range rc.File {
		if err := checkEntryName(zf.Name); err != nil {
			rc.Close()
			return err
		}
		entries[zf.Name] = zf
	}

	mf, ok := entries[metaEntry]
	if !ok {
		rc.Close()
		return fmt.Errorf("%w: %s has no container metadata", kerrors.ErrCorruptArchive, f.path)
	}
	data, err := readEntry(mf)
	if err != nil {
		rc.Close()
		return err
	}
	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		rc.Close()
		return fmt.Errorf("%w: metadata: %v", kerrors.ErrCorruptArchive, err)
	}
	if meta.Version != metaVersion {
		rc.Close()
		return fmt.Errorf("%w: unsupported container version %d", kerrors.ErrCorruptArchive, meta.Version)
	}

	f.rc = rc
	f.entries = entries
	f.meta = meta
	f.content = nil
	return nil
}

// Close releases the container handle.
func (f *File) Close() error {
	if f.rc == nil {
		return nil
	}
	err := f.rc.Close()
	f.rc = nil
	return err
}

// Path returns the container location on disk.
func (f *File) Path() string { return f.path }

// ID returns the container identifier assigned at creation.
func (f *File) ID() string { return f.meta.ID }

// Created returns the creation time.
func (f *File) Created() time.Time { return f.meta.Created }

// Options returns the storage profile used for subsequent additions.
func (f *File) Options() FileOptions { return f.options }

// SetOptions replaces the storage profile.
func (f *File) SetOptions(o FileOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	f.options = o
	return nil
}

// DirectoryContent returns the container hierarchy. The result is cached until
// the next mutation and must not be modified.
func (f *File) DirectoryContent() (*tree.DirectoryContent, error) {
	if f.content != nil {
		return f.content, nil
	}
	root := tree.New("")
	for name := range f.entries {
		prefix, path, ok := splitEntry(name)
		if !ok {
			continue
		}
		err := root.Mark(path, func(e *tree.FileEntry) {
			switch prefix {
			case contentPrefix:
				e.HasContent = true
			case keyPrefix:
				e.HasKey = true
			case digestPrefix:
				e.HasDigest = true
			case signaturePrefix:
				e.IsSigned = true
			}
		})
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", kerrors.ErrCorruptArchive, name, err)
		}
	}
	f.content = root
	return root, nil
}

// splitEntry maps a ZIP entry name to its part prefix and virtual path.
func splitEntry(name string) (prefix, path string, ok bool) {
	for _, p := range entryPrefixes {
		if rest, found := strings.CutPrefix(name, p); found && rest != "" {
			return p, rest, true
		}
	}
	return "", "", false
}

// checkEntryName rejects part entries whose virtual path is not in canonical
// form, since lookups use the path exactly as listed.
func checkEntryName(name string) error {
	_, path, ok := splitEntry(name)
	if !ok {
		return nil
	}
	if clean, err := tree.CleanPath(path); err != nil || clean != path {
		return fmt.Errorf("%w: entry name %q is not canonical", kerrors.ErrCorruptArchive, name)
	}
	return nil
}

func readEntry(zf *zip.File) ([]byte, error) {
	if zf == nil {
		return nil, fmt.Errorf("%w: missing entry", kerrors.ErrCorruptArchive)
	}
	if zf.UncompressedSize64 > maxSmallEntry {
		return nil, fmt.Errorf("%w: entry %s too large", kerrors.ErrCorruptArchive, zf.Name)
	}
	r, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", kerrors.ErrCorruptArchive, zf.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, maxSmallEntry+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", kerrors.ErrCorruptArchive, zf.Name, err)
	}
	return data, nil
}

func writeMeta(zw *zip.Writer, meta metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return writeEntry(zw, metaEntry, data)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: time.Now()})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

var errClosed = fmt.Errorf("%w: container is closed", kerrors.ErrIO)

func (f *File) checkOpen() error {
	if f.rc == nil {
		return errClosed
	}
	return nil
}
