// Package persist saves and loads lockbox objects, optionally protected by a
// password.
//
// Every persisted object is a small JSON envelope naming the kind of object it
// holds. Plain envelopes carry the object's binary form in base64. Protected
// envelopes carry it encrypted with AES-256-GCM under a key derived from the
// password with Argon2id; the KDF parameters travel inside the envelope so they
// can be raised later without breaking old files.
//
// # Loading
//
// Loader drives the interactive side: it checks whether the data is protected,
// asks for a password through a Prompter, and on a wrong password asks whether
// to try again. Any other decode failure ends the load immediately.
//
//	l := persist.Loader{Prompter: console}
//	key, err := persist.LoadFile[keys.PrivateKey](l, path)
//	if errors.Is(err, kerrors.ErrUserAbort) {
//	    return
//	}
package persist
