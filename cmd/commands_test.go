package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keys"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
	"github.com/PolarWolf314/lockbox/internal/persist"
	"github.com/PolarWolf314/lockbox/internal/session"
	"github.com/PolarWolf314/lockbox/internal/signers"
)

// newContainer creates a container holding files; "signed/..." paths are signed.
func newContainer(t *testing.T, files ...string) string {
	t.Helper()
	priv := privateKey(t)
	path := filepath.Join(t.TempDir(), "box.zip")
	s, err := session.Create(path, logger.Logger{}, nil)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer s.Close()
	for _, f := range files {
		var signer *keys.RsaPrivateKey
		if strings.HasPrefix(f, "signed/") {
			signer = priv.RsaPrivateKey()
		}
		if err := s.AddFile(strings.NewReader(f), int64(len(f)), f, priv.PublicKey(), signer); err != nil {
			t.Fatalf("Failed to add %s: %v", f, err)
		}
	}
	return path
}

func TestList_Text(t *testing.T) {
	path := newContainer(t, "a.txt", "signed/b.txt")

	out, err := executeCommand(t, "list", path)
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	for _, want := range []string{"<DIR> signed", "<FILE> b.txt", "<FILE> a.txt", "has_signature: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestList_EmptyContainer(t *testing.T) {
	path := newContainer(t)

	out, err := executeCommand(t, "list", path)
	if err != nil {
		t.Fatalf("list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, path+" is empty. Run `lockbox` to add files.") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestList_StructuredOutput(t *testing.T) {
	path := newContainer(t, "a.txt", "signed/b.txt")

	decoders := map[string]func([]byte, any) error{
		"json": json.Unmarshal,
		"yaml": yaml.Unmarshal,
	}
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			out, err := executeCommand(t, "list", path, "--output", format)
			if err != nil {
				t.Fatalf("list failed: %v\n%s", err, out)
			}
			var got listing
			if err := decode([]byte(out), &got); err != nil {
				t.Fatalf("Failed to decode %s output: %v\n%s", format, err, out)
			}
			if got.Container != path || got.ID == "" || got.Created.IsZero() {
				t.Errorf("Header = %q %q %v", got.Container, got.ID, got.Created)
			}
			want := []listedFile{
				{Path: "signed/b.txt", Content: true, Key: true, Digest: true, Signature: true},
				{Path: "a.txt", Content: true, Key: true, Digest: true},
			}
			if !slices.Equal(got.Files, want) {
				t.Errorf("Files = %+v, want %+v", got.Files, want)
			}
		})
	}
}

func TestList_Errors(t *testing.T) {
	path := newContainer(t)

	if _, err := executeCommand(t, "list", path, "--output", "xml"); !errors.Is(err, kerrors.ErrOutOfRange) {
		t.Errorf("Unknown format error = %v", err)
	}
	if _, err := executeCommand(t, "list", filepath.Join(t.TempDir(), "missing.zip")); !errors.Is(err, kerrors.ErrPathNotFound) {
		t.Errorf("Missing container error = %v", err)
	}
	if _, err := executeCommand(t, "list"); err == nil {
		t.Error("list without arguments succeeded")
	}
}

func TestKeygen(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "key")
	pub := filepath.Join(dir, "key.pub")

	out, err := executeCommand(t, "keygen", "--bits", "2048", "--out", priv, "--public", pub)
	if err != nil {
		t.Fatalf("keygen failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created private key") {
		t.Errorf("Unexpected output: %s", out)
	}

	data, err := os.ReadFile(priv)
	if err != nil {
		t.Fatalf("Failed to read private key: %v", err)
	}
	var k keys.PrivateKey
	if err := persist.Unmarshal(data, &k); err != nil {
		t.Fatalf("Private key does not decode: %v", err)
	}
	if k.Bits() != 2048 {
		t.Errorf("Bits = %d", k.Bits())
	}

	data, err = os.ReadFile(pub)
	if err != nil {
		t.Fatalf("Failed to read public key: %v", err)
	}
	var p keys.PublicKey
	if err := persist.Unmarshal(data, &p); err != nil {
		t.Fatalf("Public key does not decode: %v", err)
	}
	if p.Fingerprint() != k.PublicKey().Fingerprint() {
		t.Error("Public key does not belong to the private key")
	}

	if _, err := executeCommand(t, "keygen", "--bits", "2048", "--out", priv); !errors.Is(err, kerrors.ErrDestinationExists) {
		t.Errorf("Existing output error = %v", err)
	}
}

func TestKeygen_Validation(t *testing.T) {
	out := filepath.Join(t.TempDir(), "key")
	if _, err := executeCommand(t, "keygen", "--bits", "1024", "--out", out); !errors.Is(err, kerrors.ErrKeySizeTooSmall) {
		t.Errorf("Small key error = %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("Failed keygen left a file behind")
	}
	if _, err := executeCommand(t, "keygen"); err == nil {
		t.Error("keygen without --out succeeded")
	}
}

func TestSignersList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "signers")
	list, err := signers.Create(dir)
	if err != nil {
		t.Fatalf("Failed to create signer list: %v", err)
	}
	key := privateKey(t).RsaPublicKey()
	for _, name := range []string{"bob", "alice"} {
		if err := list.Add(name, key); err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
	}

	out, err := executeCommand(t, "signers", "list", dir)
	if err != nil {
		t.Fatalf("signers list failed: %v\n%s", err, out)
	}
	want := "alice\t" + key.Fingerprint() + "\nbob\t" + key.Fingerprint() + "\n"
	if out != want {
		t.Errorf("Output = %q, want %q", out, want)
	}

	if _, err := executeCommand(t, "signers", "list", t.TempDir()); !errors.Is(err, kerrors.ErrRegistryNotFound) {
		t.Errorf("Missing registry error = %v", err)
	}
}

func TestRoot_BadConfig(t *testing.T) {
	out := resetGlobalState(t)
	config := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(config, []byte("[keys]\ndefault_bits = 512\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	RootCmd.SetArgs([]string{"--config", config, "list", "box.zip"})
	err := RootCmd.Execute()
	if !errors.Is(err, kerrors.ErrKeySizeTooSmall) {
		t.Errorf("Bad config error = %v\n%s", err, out)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetErr(&buf)
	defer RootCmd.SetErr(nil)

	report(kerrors.ErrUserAbort)
	if buf.Len() != 0 {
		t.Errorf("Abort was reported: %q", buf.String())
	}
	report(kerrors.ErrCorruptArchive)
	if got := buf.String(); got != "✗ container is corrupt\n" {
		t.Errorf("Reported %q", got)
	}
}
