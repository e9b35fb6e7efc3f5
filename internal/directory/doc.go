// Package directory serves the public identity record: armored public key
// plus display name and avatar URL. Entries are readable by any
// authenticated identity and writable only by their owner; key rotation is
// a plain overwrite with no history kept.
package directory
