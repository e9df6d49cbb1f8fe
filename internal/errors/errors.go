package errors

import "errors"

// ErrUserAbort indicates the operator declined an overwrite, a retry or a
// selection. It is never reported as a fault.
var ErrUserAbort = errors.New("aborted by user")

// Validation errors indicate input that should be corrected and re-entered.
var (
	// ErrInvalidPath indicates a container path is empty or contains illegal segments.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotADirectory indicates a path that must be a directory is not one.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile indicates a path that must be a regular file is not one.
	ErrNotAFile = errors.New("not a file")

	// ErrPathNotFound indicates a path does not exist in the container or on disk.
	ErrPathNotFound = errors.New("path not found")

	// ErrPathConflict indicates a file already exists at the destination path.
	ErrPathConflict = errors.New("path already exists in container")

	// ErrDestinationExists indicates an output file already exists on disk.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrOutOfRange indicates a number outside its permitted range.
	ErrOutOfRange = errors.New("value out of range")

	// ErrSignerExists indicates a signer with the same name is already registered.
	ErrSignerExists = errors.New("signer with such name already exists")

	// ErrInvalidSignerName indicates an empty signer name.
	ErrInvalidSignerName = errors.New("invalid signer name")

	// ErrKeySizeTooSmall indicates a requested key size below the minimum.
	ErrKeySizeTooSmall = errors.New("key size too small")

	// ErrLargeFileProfile indicates a file at or above the large-file threshold
	// was added without the large-file storage profile.
	ErrLargeFileProfile = errors.New("file requires the large-file storage profile")

	// ErrInvalidStorageProfile indicates an unknown compression method or a level
	// outside the method's range.
	ErrInvalidStorageProfile = errors.New("invalid storage profile")
)

// Engine errors indicate the operation failed and was aborted.
var (
	// ErrIO indicates a filesystem or stream failure.
	ErrIO = errors.New("i/o failure")

	// ErrCorruptArchive indicates the container is malformed or was tampered with.
	ErrCorruptArchive = errors.New("container is corrupt")

	// ErrCrypto indicates a cryptographic primitive failed.
	ErrCrypto = errors.New("cryptographic failure")

	// ErrKeyInvalid indicates the supplied private key cannot open the file key.
	ErrKeyInvalid = errors.New("key is not valid for this file")

	// ErrNoContent indicates a container entry carries no encrypted content.
	ErrNoContent = errors.New("file has no content")

	// ErrSignerNotFound indicates the named signer is not registered.
	ErrSignerNotFound = errors.New("signer not found")

	// ErrRegistryNotFound indicates a directory is not a signer registry.
	ErrRegistryNotFound = errors.New("signer registry not found")
)

// Security outcomes are expected results, not faults.
var (
	// ErrFileIsNotSigned indicates the file carries no signature at all.
	ErrFileIsNotSigned = errors.New("file is not signed")

	// ErrInvalidSignature indicates the signature does not match the signer key.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrWrongPassword indicates the password does not open the protected data.
	ErrWrongPassword = errors.New("wrong password")

	// ErrDataIsEmpty indicates there is no data to decode.
	ErrDataIsEmpty = errors.New("data is empty")

	// ErrCorruptData indicates persisted data cannot be decoded.
	ErrCorruptData = errors.New("data is corrupt")

	// ErrKindMismatch indicates persisted data holds a different kind of object.
	ErrKindMismatch = errors.New("data holds a different kind of object")
)
