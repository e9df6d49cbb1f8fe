package tree

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// FileEntry describes which parts of an encrypted file are present.
type FileEntry struct {
	HasContent bool
	HasKey     bool
	HasDigest  bool
	IsSigned   bool
}

// DirectoryContent is one directory of the container hierarchy.
type DirectoryContent struct {
	Name  string
	files map[string]FileEntry
	dirs  map[string]*DirectoryContent
}

// New returns an empty directory node.
func New(name string) *DirectoryContent {
	return &DirectoryContent{
		Name:  name,
		files: make(map[string]FileEntry),
		dirs:  make(map[string]*DirectoryContent),
	}
}

// Mark creates the file at path (and every missing parent directory) if needed
// and applies fn to its entry. It is meant for builders only.
func (d *DirectoryContent) Mark(path string, fn func(*FileEntry)) error {
	path, err := CleanPath(path)
	if err != nil {
		return err
	}
	segs := strings.Split(path, Separator)
	node := d
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node.dirs[seg]
		if !ok {
			child = New(seg)
			node.dirs[seg] = child
		}
		node = child
	}
	name := segs[len(segs)-1]
	entry := node.files[name]
	fn(&entry)
	node.files[name] = entry
	return nil
}

// Files yields the files directly inside d, ordered by name.
func (d *DirectoryContent) Files() iter.Seq2[string, FileEntry] {
	return func(yield func(string, FileEntry) bool) {
		for _, name := range slices.Sorted(maps.Keys(d.files)) {
			if !yield(name, d.files[name]) {
				return
			}
		}
	}
}

// Dirs yields the subdirectories directly inside d, ordered by name.
func (d *DirectoryContent) Dirs() iter.Seq2[string, *DirectoryContent] {
	return func(yield func(string, *DirectoryContent) bool) {
		for _, name := range slices.Sorted(maps.Keys(d.dirs)) {
			if !yield(name, d.dirs[name]) {
				return
			}
		}
	}
}

// FileCount returns the number of files directly inside d.
func (d *DirectoryContent) FileCount() int { return len(d.files) }

// DirCount returns the number of subdirectories directly inside d.
func (d *DirectoryContent) DirCount() int { return len(d.dirs) }

// Dir resolves a directory path relative to d. The empty path is d itself.
func (d *DirectoryContent) Dir(path string) (*DirectoryContent, bool) {
	path, err := CleanPath(path)
	if err != nil {
		return nil, false
	}
	if path == "" {
		return d, true
	}
	node := d
	for _, seg := range strings.Split(path, Separator) {
		child, ok := node.dirs[seg]
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// File resolves a file path relative to d.
func (d *DirectoryContent) File(path string) (FileEntry, bool) {
	path, err := CleanPath(path)
	if err != nil || path == "" {
		return FileEntry{}, false
	}
	dir, name := Split(path)
	parent, ok := d.Dir(dir)
	if !ok {
		return FileEntry{}, false
	}
	entry, ok := parent.files[name]
	return entry, ok
}

// Paths yields the full slash-joined path of every file under d, depth first.
// Within a directory, subdirectories are visited before files, each by name.
// Directories that hold no files never produce a path.
func (d *DirectoryContent) Paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		d.walk("", yield)
	}
}

func (d *DirectoryContent) walk(prefix string, yield func(string) bool) bool {
	for name, dir := range d.Dirs() {
		if !dir.walk(Join(prefix, name), yield) {
			return false
		}
	}
	for name := range d.Files() {
		if !yield(Join(prefix, name)) {
			return false
		}
	}
	return true
}

// Len returns the number of files in the whole subtree.
func (d *DirectoryContent) Len() int {
	n := len(d.files)
	for _, dir := range d.dirs {
		n += dir.Len()
	}
	return n
}
