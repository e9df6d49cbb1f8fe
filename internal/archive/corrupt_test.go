package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

// writeRawContainer writes valid metadata followed by entries holding junk.
func writeRawContainer(t *testing.T, names ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw.zip")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	meta, err := json.Marshal(newMetadata())
	if err != nil {
		t.Fatalf("Failed to encode metadata: %v", err)
	}
	if err := writeEntry(zw, metaEntry, meta); err != nil {
		t.Fatalf("Failed to write metadata: %v", err)
	}
	for _, name := range names {
		if err := writeEntry(zw, name, bytes.Repeat([]byte{0x42}, 300)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to finish zip: %v", err)
	}
	return path
}

func TestOpenRejectsNonCanonicalEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
	}{
		{"empty segment", []string{"content//x", "key//x"}},
		{"backslash", []string{"content/a\\b", "key/a\\b"}},
		{"dot segment", []string{"digest/./x"}},
		{"parent segment", []string{"signature/a/../x"}},
		{"trailing slash", []string{"content/x/"}},
		{"leading slash", []string{"key//"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRawContainer(t, tt.entries...)
			f, err := Open(path)
			if err == nil {
				f.Close()
				t.Fatal("Open accepted a container with non-canonical entry names")
			}
			if !errors.Is(err, kerrors.ErrCorruptArchive) {
				t.Errorf("expected ErrCorruptArchive, got %v", err)
			}
		})
	}
}

func TestDecryptJunkEntriesFails(t *testing.T) {
	priv, _ := testKeys(t)
	f, err := Open(writeRawContainer(t, "content/a/b", "key/a/b", "key/only-key"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.DecryptFile("a/b", &buf, priv); !errors.Is(err, kerrors.ErrKeyInvalid) {
		t.Errorf("junk key: expected ErrKeyInvalid, got %v", err)
	}
	if _, err := f.DecryptFile("only-key", &buf, priv); !errors.Is(err, kerrors.ErrNoContent) {
		t.Errorf("missing content: expected ErrNoContent, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("failed decrypts wrote %d bytes", buf.Len())
	}
}

func TestReadMissingEntry(t *testing.T) {
	if _, err := readEntry(nil); !errors.Is(err, kerrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}
