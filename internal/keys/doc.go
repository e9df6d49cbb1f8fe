// Package keys holds the four kinds of key material lockbox works with and the
// one-directional derivations between them.
//
//	PrivateKey ──► PublicKey ──► RsaPublicKey
//	     │                            ▲
//	     └──────► RsaPrivateKey ──────┘
//
// A PrivateKey is made of two RSA key pairs: an encryption half that unwraps
// per-file keys and a signing half. PublicKey carries the public parts of
// both. RsaPrivateKey and RsaPublicKey are the signing half alone and are what
// signers hand out and what the signer registry stores.
//
// Every accessor returns an independent copy. Nothing derived can be used to
// get back to its source.
package keys
