package keyring

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"whisperchat/internal/domain"
	"whisperchat/internal/util/memzero"
)

// The current supported version of the export bundle format.
const bundleFormatVersion = 1

const (
	saltBytes = 16
	keyBytes  = chacha20poly1305.KeySize
)

// bundle is the on-disk JSON structure for an exported key: the locked
// armored blob sealed once more under a transport passphrase.
type bundle struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// deriveKEK derives a key-encryption key from a passphrase and salt using
// Argon2id.
func deriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 1<<16, 4, keyBytes)
}

// Export seals the locked key blob under transportPassphrase for manual
// transfer to another device.
func Export(locked domain.ArmoredKey, transportPassphrase string) ([]byte, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	kek := deriveKEK(transportPassphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, []byte(locked), salt)

	return json.Marshal(bundle{V: bundleFormatVersion, Salt: salt, Nonce: nonce, Cipher: ct})
}

// Import opens an export bundle. A wrong transport passphrase (or tampered
// bundle) fails with domain.ErrWrongPassphrase.
func Import(blob []byte, transportPassphrase string) (domain.ArmoredKey, error) {
	var b bundle
	if err := json.Unmarshal(blob, &b); err != nil {
		return "", err
	}
	if b.V > bundleFormatVersion {
		return "", fmt.Errorf("unsupported bundle version %d", b.V)
	}

	kek := deriveKEK(transportPassphrase, b.Salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return "", err
	}
	pt, err := aead.Open(nil, b.Nonce, b.Cipher, b.Salt)
	if err != nil {
		return "", domain.ErrWrongPassphrase
	}
	return domain.ArmoredKey(pt), nil
}
