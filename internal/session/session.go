// Package session drives one opened container on behalf of the operator.
//
// A Session owns the container handle and a cached view of its hierarchy.
// Additions and deletions drop the cache so the next listing reads the
// container again. Every mutation is recorded in the audit trail.
package session

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/PolarWolf314/lockbox/internal/archive"
	"github.com/PolarWolf314/lockbox/internal/audit"
	"github.com/PolarWolf314/lockbox/internal/batch"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/outcome"
	"github.com/PolarWolf314/lockbox/internal/tree"
)

// Session is the controller for one container.
type Session struct {
	Log   logger.Logger
	Trail *audit.Trail

	file    *archive.File
	content *tree.DirectoryContent
}

// New wraps an opened container.
func New(f *archive.File, log logger.Logger, trail *audit.Trail) *Session {
	f.Log = log
	return &Session{Log: log, Trail: trail, file: f}
}

// Create creates a container at path and opens a session on it.
func Create(path string, log logger.Logger, trail *audit.Trail) (*Session, error) {
	f, err := archive.Create(path)
	if err != nil {
		return nil, err
	}
	s := New(f, log, trail)
	s.record(audit.Entry{Operation: audit.OpCreate})
	log.Infof("Created container %s", path)
	return s, nil
}

// Open opens a session on an existing container.
func Open(path string, log logger.Logger, trail *audit.Trail) (*Session, error) {
	f, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	log.Infof("Opened container %s (%s)", path, f.ID())
	return New(f, log, trail), nil
}

// Close releases the container.
func (s *Session) Close() error {
	s.content = nil
	return s.file.Close()
}

// Path returns the container location.
func (s *Session) Path() string { return s.file.Path() }

// ID returns the container id.
func (s *Session) ID() string { return s.file.ID() }

// Created returns when the container was first written.
func (s *Session) Created() time.Time { return s.file.Created() }

func (s *Session) record(e audit.Entry) {
	e.Container = s.file.Path()
	e.ContainerID = s.file.ID()
	s.Trail.Log(e)
}

func (s *Session) invalidate() { s.content = nil }

// ListContent returns the container hierarchy, reading it if the cached copy
// is stale.
func (s *Session) ListContent() (*tree.DirectoryContent, error) {
	if s.content == nil {
		content, err := s.file.DirectoryContent()
		if err != nil {
			return nil, err
		}
		s.content = content
	}
	return s.content, nil
}

// StorageProfile returns the profile applied to subsequent additions.
func (s *Session) StorageProfile() archive.FileOptions { return s.file.Options() }

// SetStorageProfile changes the profile for the rest of the session.
func (s *Session) SetStorageProfile(o archive.FileOptions) error {
	if err := s.file.SetOptions(o); err != nil {
		return err
	}
	s.Log.Debugf("Storage profile set to %s", o)
	return nil
}

// AddFile stores size bytes from src at dest. A non-nil signer signs the file.
func (s *Session) AddFile(src io.Reader, size int64, dest string, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) error {
	err := s.file.AddFile(src, size, dest, recipient, signer)
	if err != nil {
		return err
	}
	s.invalidate()
	s.record(audit.Entry{Operation: audit.OpAddFile, Paths: []string{dest}, Signed: signer != nil})
	s.Log.Infof("Added %s", dest)
	return nil
}

// AddFileFromPath stores the regular file at src under dest.
func (s *Session) AddFileFromPath(src, dest string, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, src)
		}
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
	return s.AddFile(in, info.Size(), dest, recipient, signer)
}

// AddDirectory adds every file under srcRoot beneath dest.
func (s *Session) AddDirectory(srcRoot, dest string, recipient *keys.PublicKey, signer *keys.RsaPrivateKey) iter.Seq[batch.Event[string]] {
	inner := s.file.AddDirectory(srcRoot, dest, recipient, signer)
	return func(yield func(batch.Event[string]) bool) {
		entry := audit.Entry{Operation: audit.OpAddDirectory, Source: srcRoot, Signed: signer != nil}
		defer func() {
			s.invalidate()
			if entry.FilesCount > 0 {
				s.record(entry)
			}
		}()
		for ev := range inner {
			if ev.Kind == batch.EventItem {
				if ev.Err != nil {
					entry.FailedCount++
				} else {
					entry.FilesCount++
					entry.Paths = append(entry.Paths, ev.Result)
				}
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// DecryptFile decrypts path into w. A path missing from the container yields
// a failed outcome without touching the engine.
func (s *Session) DecryptFile(path string, w io.Writer, priv *keys.PrivateKey, mode outcome.Mode) outcome.Outcome {
	if err := s.checkFile(path); err != nil {
		return outcome.Failed(err)
	}
	priv.Precompute()
	return outcome.Decrypt(s.file, path, w, priv, mode)
}

// DecryptFileToPath decrypts path into a new file at out. With overwrite
// unset an existing out fails with ErrDestinationExists.
func (s *Session) DecryptFileToPath(path, out string, priv *keys.PrivateKey, mode outcome.Mode, overwrite bool) outcome.Outcome {
	if err := s.checkFile(path); err != nil {
		return outcome.Failed(err)
	}
	w, err := createOutput(out, overwrite)
	if err != nil {
		return outcome.Failed(err)
	}
	priv.Precompute()
	res := outcome.Decrypt(s.file, path, w, priv, mode)
	if cerr := w.Close(); cerr != nil && res.OK() {
		res = outcome.Failed(fmt.Errorf("%w: %v", kerrors.ErrIO, cerr))
	}
	if !res.OK() {
		os.Remove(out)
	}
	s.record(audit.Entry{Operation: audit.OpDecryptFile, Paths: []string{path}, OutputPath: out})
	return res
}

func (s *Session) checkFile(path string) error {
	clean, err := tree.CleanPath(path)
	if err != nil {
		return err
	}
	content, err := s.ListContent()
	if err != nil {
		return err
	}
	if _, ok := content.File(clean); !ok {
		return fmt.Errorf("%w: %s", kerrors.ErrPathNotFound, path)
	}
	return nil
}

// DecryptDirectory decrypts every file under src into destRoot. The private
// key is precomputed once and reused for every item.
func (s *Session) DecryptDirectory(src, destRoot string, priv *keys.PrivateKey, mode outcome.Mode, overwrite bool) iter.Seq[batch.Event[outcome.Outcome]] {
	inner := s.file.DecryptDirectory(src, destRoot, priv, mode, archive.DecryptOptions{Overwrite: overwrite})
	return func(yield func(batch.Event[outcome.Outcome]) bool) {
		entry := audit.Entry{Operation: audit.OpDecryptDirectory, Paths: []string{src}, OutputPath: destRoot}
		defer func() {
			if entry.FilesCount+entry.FailedCount > 0 {
				s.record(entry)
			}
		}()
		for ev := range inner {
			if ev.Kind == batch.EventItem {
				if ev.Result.OK() {
					entry.FilesCount++
				} else {
					entry.FailedCount++
				}
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// CloneExcluding writes a copy of the container without excluded to w.
func (s *Session) CloneExcluding(w io.Writer, excluded []string) error {
	return s.file.CloneExcluding(w, excluded)
}

// CloneExcludingToPath writes the copy to a new file at out.
func (s *Session) CloneExcludingToPath(out string, excluded []string, overwrite bool) error {
	w, err := createOutput(out, overwrite)
	if err != nil {
		return err
	}
	err = s.file.CloneExcluding(w, excluded)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%w: %v", kerrors.ErrIO, cerr)
	}
	if err != nil {
		os.Remove(out)
		return err
	}
	s.record(audit.Entry{Operation: audit.OpClone, Paths: excluded, OutputPath: out})
	s.Log.Infof("Cloned %s to %s", s.Path(), out)
	return nil
}

// Delete removes paths (files or whole directories) from the container.
func (s *Session) Delete(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.file.Delete(paths); err != nil {
		return err
	}
	s.invalidate()
	s.record(audit.Entry{Operation: audit.OpDelete, Paths: paths})
	s.Log.Infof("Deleted %d path(s) from %s", len(paths), s.Path())
	return nil
}

// Select returns every file path matching at least one doublestar pattern,
// in listing order.
func (s *Session) Select(patterns []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: bad pattern %q", kerrors.ErrInvalidPath, p)
		}
	}
	content, err := s.ListContent()
	if err != nil {
		return nil, err
	}
	var out []string
	for path := range content.Paths() {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, path); ok {
				out = append(out, path)
				break
			}
		}
	}
	return out, nil
}

func createOutput(path string, overwrite bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	w, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrDestinationExists, path)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	return w, nil
}
