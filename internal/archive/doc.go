// Package archive implements the encrypted container.
//
// A container is a ZIP file. Every virtual path p owns up to four entries:
//
//	content/p    the compressed and encrypted body
//	key/p        the 32-byte file key wrapped for the recipient (RSA-OAEP, label p)
//	digest/p     the SHA3-256 digest of the plaintext, sealed with the file key
//	signature/p  an RSA-PSS signature over that digest, sealed with the file key
//
// The body is split into 64 KiB chunks, each sealed with NaCl secretbox under
// a nonce made of a random prefix and a chunk counter. The last chunk is
// flagged in the counter so truncation is detected.
//
// ZIP archives cannot drop entries in place. Every mutation writes a new
// archive beside the original, copying existing entries without recompressing
// them, and renames it over the original once complete.
package archive
