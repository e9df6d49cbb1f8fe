// Package utils provides terminal helpers shared by the lockbox commands:
// hidden passphrase entry and path and size formatting.
package utils
