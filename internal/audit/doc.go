// Package audit records container mutations in an append-only log.
//
// Every change to a container (create, add, delete, clone) and every batch
// decrypt is recorded by the session that performed it. This shows who
// touched a container, from which session, and when.
//
// # Log Format
//
// The log is stored as JSON Lines (one JSON object per line), by default at:
//
//	$XDG_DATA_HOME/lockbox/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Session id, shared by all entries of one interactive session
//   - Operation name
//   - Container path and id
//   - Operation-specific details (paths, counts, output path)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries to parse a log for display. Malformed entries are silently
// skipped to handle partial writes.
package audit
