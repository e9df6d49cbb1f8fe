// Package signers stores named signer keys in a directory.
//
// The directory holds signers.toml, mapping each name to a key id, and one
// persisted RSA public key per signer under keys/<id>.pub.
package signers

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	"github.com/PolarWolf314/lockbox/internal/persist"
)

const (
	indexFile = "signers.toml"
	keysDir   = "keys"
	keyExt    = ".pub"
)

type index struct {
	Signers map[string]string `toml:"signers"`
}

// List is an opened signer registry. It is not safe for concurrent use.
type List struct {
	dir  string
	ids  map[string]string
	keys map[string]*keys.RsaPublicKey
}

// Create initializes an empty registry. dir must be missing or empty.
func Create(dir string) (*List, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		if info, serr := os.Stat(dir); serr == nil && !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrNotADirectory, dir)
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	case len(entries) > 0:
		return nil, fmt.Errorf("%w: %s is not empty", kerrors.ErrDestinationExists, dir)
	}

	if err := os.MkdirAll(filepath.Join(dir, keysDir), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	l := &List{dir: dir, ids: map[string]string{}, keys: map[string]*keys.RsaPublicKey{}}
	if err := l.save(); err != nil {
		return nil, err
	}
	return l, nil
}

// Open loads an existing registry and every key it lists.
func Open(dir string) (*List, error) {
	var idx index
	if _, err := toml.DecodeFile(filepath.Join(dir, indexFile), &idx); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrRegistryNotFound, dir)
		}
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrCorruptData, indexFile, err)
	}

	l := &List{dir: dir, ids: map[string]string{}, keys: map[string]*keys.RsaPublicKey{}}
	for name, id := range idx.Signers {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: signer %q has invalid key id %q", kerrors.ErrCorruptData, name, id)
		}
		data, err := os.ReadFile(l.keyPath(id))
		if err != nil {
			return nil, fmt.Errorf("%w: signer %q: %v", kerrors.ErrIO, name, err)
		}
		var key keys.RsaPublicKey
		if err := persist.Unmarshal(data, &key); err != nil {
			return nil, fmt.Errorf("signer %q: %w", name, err)
		}
		l.ids[name] = id
		l.keys[name] = &key
	}
	return l, nil
}

// Dir returns the registry directory.
func (l *List) Dir() string { return l.dir }

// Len returns the number of signers.
func (l *List) Len() int { return len(l.keys) }

// Contains reports whether name is registered.
func (l *List) Contains(name string) bool {
	_, ok := l.keys[strings.TrimSpace(name)]
	return ok
}

// Names returns the signer names in ascending order.
func (l *List) Names() []string {
	return slices.Sorted(maps.Keys(l.keys))
}

// All yields every signer and its key, ordered by name.
func (l *List) All() iter.Seq2[string, *keys.RsaPublicKey] {
	return func(yield func(string, *keys.RsaPublicKey) bool) {
		for _, name := range l.Names() {
			if !yield(name, l.keys[name]) {
				return
			}
		}
	}
}

// Key returns the key registered under name.
func (l *List) Key(name string) (*keys.RsaPublicKey, error) {
	key, ok := l.keys[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrSignerNotFound, name)
	}
	return key, nil
}

// ValidateName checks that name can be added. It is suitable for inline
// validation of user input.
func (l *List) ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return kerrors.ErrInvalidSignerName
	}
	if _, ok := l.keys[name]; ok {
		return fmt.Errorf("%w: %s", kerrors.ErrSignerExists, name)
	}
	return nil
}

// Add registers key under name.
func (l *List) Add(name string, key *keys.RsaPublicKey) error {
	if err := l.ValidateName(name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)

	data, err := persist.Marshal(key)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	if err := os.WriteFile(l.keyPath(id), data, 0o600); err != nil {
		return fmt.Errorf("%w: writing signer key: %v", kerrors.ErrIO, err)
	}

	l.ids[name] = id
	l.keys[name] = key
	if err := l.save(); err != nil {
		delete(l.ids, name)
		delete(l.keys, name)
		os.Remove(l.keyPath(id))
		return err
	}
	return nil
}

// Delete removes the signer called name.
func (l *List) Delete(name string) error {
	name = strings.TrimSpace(name)
	id, ok := l.ids[name]
	if !ok {
		return fmt.Errorf("%w: %s", kerrors.ErrSignerNotFound, name)
	}
	key := l.keys[name]

	delete(l.ids, name)
	delete(l.keys, name)
	if err := l.save(); err != nil {
		l.ids[name] = id
		l.keys[name] = key
		return err
	}
	_ = os.Remove(l.keyPath(id))
	return nil
}

func (l *List) keyPath(id string) string {
	return filepath.Join(l.dir, keysDir, id+keyExt)
}

// save rewrites the index through a temporary file.
func (l *List) save() error {
	tmp, err := os.CreateTemp(l.dir, "."+indexFile+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrIO, err)
	}
	err = toml.NewEncoder(tmp).Encode(index{Signers: l.ids})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filepath.Join(l.dir, indexFile))
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing %s: %v", kerrors.ErrIO, indexFile, err)
	}
	return nil
}
