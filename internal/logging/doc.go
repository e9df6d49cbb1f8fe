// Package logger provides leveled logging for lockbox.
//
// Output is formatted with colored semantic prefixes. Verbosity is controlled by
// the root command's flags:
//
//   - --verbose: shows info messages
//   - --debug: shows debug messages as well
//
// Warnings and errors are always shown.
//
// # Usage
//
//	log := logger.Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Added %d files", count)
//
// The zero value writes warnings and errors to stderr and drops everything else.
// Out and Err may be replaced to capture output in tests.
package logger
