// Package errors provides typed error values for the lockbox application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by how the interactive layer reacts to them:
//
//   - User aborts: the operator declined something (ErrUserAbort). Silent no-op.
//   - Validation errors: bad input that is reported inline before re-prompting
//     (ErrInvalidPath, ErrSignerExists, ErrOutOfRange, ...).
//   - Engine errors: I/O, corrupt containers, cryptographic failures. The
//     operation aborts but the session stays usable.
//   - Security outcomes: wrong passwords, missing signatures and the like. These
//     are expected results that callers branch on, not faults.
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("adding %s: %w", dest, kerrors.ErrPathConflict)
//
// Handle errors in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrUserAbort) {
//	    return
//	}
package errors
