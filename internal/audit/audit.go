package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Operation names.
const (
	OpCreate           = "create"
	OpAddFile          = "add_file"
	OpAddDirectory     = "add_directory"
	OpDecryptFile      = "decrypt_file"
	OpDecryptDirectory = "decrypt_directory"
	OpDelete           = "delete"
	OpClone            = "clone"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`      // RFC3339 with microseconds.
	Session   string `json:"session"` // Id of the session that acted.
	Operation string `json:"op"`      // Operation name.

	Container   string `json:"container"`              // Container path on disk.
	ContainerID string `json:"container_id,omitempty"` // Id from the container metadata.

	// Optional fields depending on operation.
	Paths       []string `json:"paths,omitempty"`        // Container paths touched.
	Source      string   `json:"source,omitempty"`       // For add directory.
	OutputPath  string   `json:"output_path,omitempty"`  // For clone and decrypt.
	FilesCount  int      `json:"files_count,omitempty"`  // For batches.
	FailedCount int      `json:"failed_count,omitempty"` // For batches.
	Signed      bool     `json:"signed,omitempty"`       // For additions.
}

// Trail appends entries to one log file on behalf of one session.
// A nil Trail or one with an empty Path records nothing.
type Trail struct {
	Path    string
	Session string
}

// NewTrail returns a trail writing to path with a fresh session id.
func NewTrail(path string) *Trail {
	return &Trail{Path: path, Session: uuid.NewString()}
}

// Log appends an entry to the audit log.
// If logging fails, nothing is reported: operations should not fail just
// because audit logging failed.
func (t *Trail) Log(entry Entry) {
	if t == nil || t.Path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.Session == "" {
		entry.Session = t.Session
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0o700); err != nil {
		return
	}
	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the log at path.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data), nil
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) []Entry {
	var entries []Entry
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
