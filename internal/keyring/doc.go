// Package keyring owns the client-side private key lifecycle.
//
// The Session holds the one decrypted private key for the active login and
// moves through three states: Locked (no usable material), Unlocking (a
// passphrase attempt in flight) and Usable (decrypted, in memory). Locking
// again wipes the material. The only persisted form is the passphrase-locked
// armored blob in the Store, plus a small plaintext profile file.
//
// Export and Import wrap the locked blob in an additional passphrase-derived
// envelope (Argon2id + ChaCha20-Poly1305) for carrying a key to another
// device by hand.
package keyring
