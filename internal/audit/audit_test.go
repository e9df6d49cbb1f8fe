package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLog_CreatesFileAndAppends(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "lockbox-audit-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	logPath := filepath.Join(tempDir, "nested", "audit.jsonl")
	trail := NewTrail(logPath)
	trail.Log(Entry{Operation: OpCreate, Container: "box.zip"})
	trail.Log(Entry{Operation: OpAddFile, Container: "box.zip", Paths: []string{"a/b"}})

	entries, err := ReadEntries(logPath)
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != OpCreate || entries[1].Operation != OpAddFile {
		t.Errorf("Unexpected operations: %q, %q", entries[0].Operation, entries[1].Operation)
	}
	for _, e := range entries {
		if e.Session != trail.Session || e.Session == "" {
			t.Errorf("Entry session %q, want %q", e.Session, trail.Session)
		}
	}
}

func TestLog_TimestampFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	NewTrail(logPath).Log(Entry{Operation: OpDelete})

	entries, _ := ReadEntries(logPath)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	ts := entries[0].Timestamp
	if !strings.HasSuffix(ts, "Z") {
		t.Errorf("Timestamp should be UTC: %s", ts)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000000Z", ts); err != nil {
		t.Errorf("Timestamp has wrong layout %q: %v", ts, err)
	}
}

func TestLog_OmitsEmptyFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	NewTrail(logPath).Log(Entry{Operation: OpClone, Container: "box.zip"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Log line is not valid JSON: %v", err)
	}
	for _, field := range []string{"paths", "source", "output_path", "files_count", "failed_count", "signed", "container_id"} {
		if _, ok := raw[field]; ok {
			t.Errorf("Empty field %q should be omitted", field)
		}
	}
	for _, field := range []string{"ts", "session", "op", "container"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("Field %q missing", field)
		}
	}
}

func TestLog_DisabledTrail(t *testing.T) {
	var nilTrail *Trail
	nilTrail.Log(Entry{Operation: OpCreate})

	empty := &Trail{}
	empty.Log(Entry{Operation: OpCreate})
}

func TestLog_UnwritablePathIsIgnored(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, []byte("x"), 0o600)

	NewTrail(filepath.Join(blocker, "audit.jsonl")).Log(Entry{Operation: OpCreate})
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"valid", `{"op":"create"}` + "\n" + `{"op":"delete"}` + "\n", 2},
		{"no trailing newline", `{"op":"create"}`, 1},
		{"malformed lines skipped", `{"op":"create"}` + "\nnot json\n\n" + `{"op":"clone"}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEntries([]byte(tt.data)); len(got) != tt.want {
				t.Errorf("Expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := ReadEntries(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || entries != nil {
		t.Errorf("Expected nil, nil; got %v, %v", entries, err)
	}
}
