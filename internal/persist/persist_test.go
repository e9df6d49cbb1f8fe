package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
)

func TestMain(m *testing.M) {
	// Keep Argon2id cheap in tests; parameters are read back from the envelope.
	argon2Memory = 1024
	argon2Threads = 1
	os.Exit(m.Run())
}

type note struct {
	Text string
}

func (n *note) Kind() string { return "note" }

func (n *note) MarshalBinary() ([]byte, error) { return []byte(n.Text), nil }

func (n *note) UnmarshalBinary(data []byte) error {
	n.Text = string(data)
	return nil
}

type other struct{ note }

func (o *other) Kind() string { return "other" }

// scriptedPrompter answers prompts from fixed scripts and records what was asked.
type scriptedPrompter struct {
	passwords []string
	confirms  []bool
	asked     []string
}

func (p *scriptedPrompter) Password(label string) ([]byte, error) {
	p.asked = append(p.asked, "password:"+label)
	if len(p.passwords) == 0 {
		return nil, errors.New("unexpected password prompt")
	}
	pw := p.passwords[0]
	p.passwords = p.passwords[1:]
	return []byte(pw), nil
}

func (p *scriptedPrompter) Confirm(label string, def bool) (bool, error) {
	p.asked = append(p.asked, "confirm:"+label)
	if len(p.confirms) == 0 {
		return false, errors.New("unexpected confirm prompt")
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func TestPasswordRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		password string
	}{
		{"simple", "hello", "secret"},
		{"empty value", "", "secret"},
		{"unicode password", "payload", "pässwörd-🔑"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalWithPassword(&note{Text: tt.text}, []byte(tt.password))
			if err != nil {
				t.Fatalf("MarshalWithPassword failed: %v", err)
			}
			enc, err := IsEncrypted(data)
			if err != nil || !enc {
				t.Fatalf("IsEncrypted = %v, %v; want true", enc, err)
			}
			var got note
			if err := UnmarshalWithPassword(data, []byte(tt.password), &got); err != nil {
				t.Fatalf("UnmarshalWithPassword failed: %v", err)
			}
			if got.Text != tt.text {
				t.Errorf("round trip = %q, want %q", got.Text, tt.text)
			}
		})
	}
}

func TestPlainRoundTrip(t *testing.T) {
	data, err := Marshal(&note{Text: "plain"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	enc, err := IsEncrypted(data)
	if err != nil || enc {
		t.Fatalf("IsEncrypted = %v, %v; want false", enc, err)
	}
	var got note
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Text != "plain" {
		t.Errorf("round trip = %q", got.Text)
	}
}

func TestUnmarshalWithPassword_WrongPassword(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "x"}, []byte("right"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}
	var got note
	if err := UnmarshalWithPassword(data, []byte("wrong"), &got); !errors.Is(err, kerrors.ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	plain, err := Marshal(&note{Text: "x"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if _, err := IsEncrypted(nil); !errors.Is(err, kerrors.ErrDataIsEmpty) {
		t.Errorf("empty data: expected ErrDataIsEmpty, got %v", err)
	}
	if _, err := IsEncrypted([]byte("{not json")); !errors.Is(err, kerrors.ErrCorruptData) {
		t.Errorf("garbage: expected ErrCorruptData, got %v", err)
	}
	if err := Unmarshal(plain, &other{}); !errors.Is(err, kerrors.ErrKindMismatch) {
		t.Errorf("kind mismatch: expected ErrKindMismatch, got %v", err)
	}
}

func TestUnmarshalWithPassword_KDFLimits(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "x"}, []byte("pw"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*kdfParams)
	}{
		{"time", func(k *kdfParams) { k.Time = 1 << 30 }},
		{"memory", func(k *kdfParams) { k.Memory = 1 << 22 }},
		{"threads", func(k *kdfParams) { k.Threads = 255 }},
		{"zero time", func(k *kdfParams) { k.Time = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("Failed to parse envelope: %v", err)
			}
			tt.mutate(env.KDF)
			tampered, err := json.Marshal(env)
			if err != nil {
				t.Fatalf("Failed to encode envelope: %v", err)
			}
			var got note
			if err := UnmarshalWithPassword(tampered, []byte("pw"), &got); !errors.Is(err, kerrors.ErrCorruptData) {
				t.Errorf("expected ErrCorruptData, got %v", err)
			}
		})
	}
}

func TestLoad_EmptyIsDistinctFailure(t *testing.T) {
	p := &scriptedPrompter{}
	_, err := Load[note](Loader{Prompter: p}, []byte{})
	if !errors.Is(err, kerrors.ErrDataIsEmpty) {
		t.Fatalf("expected ErrDataIsEmpty, got %v", err)
	}
	if len(p.asked) != 0 {
		t.Errorf("empty data must not prompt, asked %v", p.asked)
	}
}

func TestLoad_Unprotected(t *testing.T) {
	data, err := Marshal(&note{Text: "open"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	p := &scriptedPrompter{}
	got, err := Load[note](Loader{Prompter: p}, data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Text != "open" || len(p.asked) != 0 {
		t.Errorf("got %q, prompts %v", got.Text, p.asked)
	}
}

func TestLoad_WrongPasswordThenDecline(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "x"}, []byte("right"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}
	p := &scriptedPrompter{passwords: []string{"wrong"}, confirms: []bool{false}}

	got, err := Load[note](Loader{Prompter: p}, data)
	if got != nil {
		t.Errorf("expected no value, got %+v", got)
	}
	if !errors.Is(err, kerrors.ErrUserAbort) || !errors.Is(err, kerrors.ErrWrongPassword) {
		t.Errorf("expected user abort after wrong password, got %v", err)
	}
	want := []string{"password:Password", "confirm:Wrong password. Try again?"}
	if len(p.asked) != len(want) {
		t.Fatalf("prompts = %v, want %v", p.asked, want)
	}
	for i := range want {
		if p.asked[i] != want[i] {
			t.Errorf("prompt %d = %q, want %q", i, p.asked[i], want[i])
		}
	}
}

func TestLoad_WrongPasswordThenRetry(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "treasure"}, []byte("right"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}
	p := &scriptedPrompter{passwords: []string{"wrong", "also wrong", "right"}, confirms: []bool{true, true}}

	got, err := Load[note](Loader{Prompter: p}, data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Text != "treasure" {
		t.Errorf("got %q", got.Text)
	}
	if len(p.passwords) != 0 || len(p.confirms) != 0 {
		t.Errorf("unused answers: %v %v", p.passwords, p.confirms)
	}
}

func TestLoad_BoundedAttempts(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "x"}, []byte("right"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}
	p := &scriptedPrompter{passwords: []string{"a", "b"}, confirms: []bool{true}}

	_, err = Load[note](Loader{Prompter: p, MaxAttempts: 2}, data)
	if !errors.Is(err, kerrors.ErrWrongPassword) || errors.Is(err, kerrors.ErrUserAbort) {
		t.Errorf("expected plain ErrWrongPassword after the last attempt, got %v", err)
	}
}

func TestLoad_OtherErrorsAreNotRetried(t *testing.T) {
	data, err := MarshalWithPassword(&note{Text: "x"}, []byte("right"))
	if err != nil {
		t.Fatalf("MarshalWithPassword failed: %v", err)
	}
	p := &scriptedPrompter{}
	_, err = Load[other](Loader{Prompter: p}, data)
	if !errors.Is(err, kerrors.ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
	if len(p.asked) != 1 {
		t.Errorf("expected a single password prompt, got %v", p.asked)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.lbk")

	if err := SaveFile(path, &note{Text: "saved"}, []byte("pw")); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat saved file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("saved file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadFile[note](Loader{Prompter: &scriptedPrompter{passwords: []string{"pw"}}}, path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got.Text != "saved" {
		t.Errorf("got %q", got.Text)
	}

	if _, err := LoadFile[note](Loader{}, filepath.Join(dir, "missing")); !errors.Is(err, kerrors.ErrPathNotFound) {
		t.Errorf("missing file: expected ErrPathNotFound, got %v", err)
	}
	if _, err := LoadFile[note](Loader{}, dir); !errors.Is(err, kerrors.ErrNotAFile) {
		t.Errorf("directory: expected ErrNotAFile, got %v", err)
	}
}
