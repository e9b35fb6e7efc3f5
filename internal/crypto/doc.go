// Package crypto exposes the OpenPGP primitives used by WhisperChat.
//
// Contents
//
//   - Key generation for RSA (2048/4096) and Curve25519, with the private
//     half locked under a passphrase before it ever leaves this package
//     (Generate)
//   - Passphrase lock/unlock of armored private keys with an explicit
//     IsLocked predicate (Unlock, PrivateKey.Lock, IsLocked)
//   - Sealing a message to a set of recipient public keys with a sender
//     signature, and opening/verifying it (Seal, PrivateKey.Open)
//   - Short public-key fingerprints for display (KeyFingerprint)
//
// # Notes
//
// All key and message material crosses package boundaries in ASCII-armored
// form (domain.ArmoredKey, domain.ArmoredMessage). Unlocked private material
// lives only inside PrivateKey; callers should Clear it when the session
// ends to reduce its lifetime in memory.
package crypto
