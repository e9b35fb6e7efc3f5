package crypto

import (
	"errors"
	"fmt"

	pgp "github.com/ProtonMail/gopenpgp/v2/crypto"

	"whisperchat/internal/domain"
)

// Supported RSA strengths. Curve25519 keys have a fixed strength and ignore
// the bits parameter.
const (
	RSABits2048 = 2048
	RSABits4096 = 4096
)

// PrivateKey is unlocked private key material held in memory. It is the only
// form in which decrypted secrets exist; everything persisted or transmitted
// is armored and locked.
type PrivateKey struct {
	key *pgp.Key
}

// Generate creates a fresh key pair and returns the armored public half plus
// the private half locked under passphrase. Nothing is persisted here.
//
// Invalid parameters (empty passphrase, unsupported type or RSA strength)
// fail with domain.ErrKeyGen.
func Generate(name, email string, keyType domain.KeyType, bits int, passphrase string) (pub, locked domain.ArmoredKey, err error) {
	if passphrase == "" {
		return "", "", fmt.Errorf("%w: empty passphrase", domain.ErrKeyGen)
	}

	var pgpType string
	switch keyType {
	case domain.KeyTypeRSA:
		if bits != RSABits2048 && bits != RSABits4096 {
			return "", "", fmt.Errorf("%w: unsupported RSA strength %d", domain.ErrKeyGen, bits)
		}
		pgpType = "rsa"
	case domain.KeyTypeECC:
		pgpType = "x25519"
		bits = 0
	default:
		return "", "", fmt.Errorf("%w: unsupported key type %q", domain.ErrKeyGen, keyType)
	}

	key, err := pgp.GenerateKey(name, email, pgpType, bits)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrKeyGen, err)
	}
	defer key.ClearPrivateParams()

	pubArmored, err := key.GetArmoredPublicKey()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrKeyGen, err)
	}

	lockedKey, err := key.Lock([]byte(passphrase))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrKeyGen, err)
	}
	lockedArmored, err := lockedKey.Armor()
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrKeyGen, err)
	}

	return domain.ArmoredKey(pubArmored), domain.ArmoredKey(lockedArmored), nil
}

// IsLocked reports whether the armored private key still needs a passphrase.
// Checking this up front replaces "try to unlock and match the error string"
// as the way to detect already-usable material.
func IsLocked(armored domain.ArmoredKey) (bool, error) {
	key, err := pgp.NewKeyFromArmored(string(armored))
	if err != nil {
		return false, err
	}
	if !key.IsPrivate() {
		return false, errors.New("not a private key")
	}
	locked, err := key.IsLocked()
	if err != nil {
		return false, err
	}
	return locked, nil
}

// Unlock decrypts an armored private key with the passphrase. Material that
// is already unlocked is accepted as-is; that is an expected state for keys
// generated without a passphrase, not an error. A wrong passphrase fails
// with domain.ErrWrongPassphrase and leaves nothing usable behind.
func Unlock(armored domain.ArmoredKey, passphrase string) (*PrivateKey, error) {
	key, err := pgp.NewKeyFromArmored(string(armored))
	if err != nil {
		return nil, err
	}
	if !key.IsPrivate() {
		return nil, errors.New("not a private key")
	}

	locked, err := key.IsLocked()
	if err != nil {
		return nil, err
	}
	if !locked {
		return &PrivateKey{key: key}, nil
	}

	unlocked, err := key.Unlock([]byte(passphrase))
	if err != nil {
		return nil, domain.ErrWrongPassphrase
	}
	return &PrivateKey{key: unlocked}, nil
}

// Lock re-encrypts the private material under passphrase and returns the
// armored blob, the only form fit for persistence.
func (k *PrivateKey) Lock(passphrase string) (domain.ArmoredKey, error) {
	locked, err := k.key.Lock([]byte(passphrase))
	if err != nil {
		return "", err
	}
	armored, err := locked.Armor()
	if err != nil {
		return "", err
	}
	return domain.ArmoredKey(armored), nil
}

// PublicKey returns the armored public half.
func (k *PrivateKey) PublicKey() (domain.ArmoredKey, error) {
	pub, err := k.key.GetArmoredPublicKey()
	if err != nil {
		return "", err
	}
	return domain.ArmoredKey(pub), nil
}

// Fingerprint returns the key fingerprint for display.
func (k *PrivateKey) Fingerprint() domain.Fingerprint {
	return domain.Fingerprint(k.key.GetFingerprint())
}

// Clear wipes the private parameters from memory. The key is unusable
// afterwards.
func (k *PrivateKey) Clear() {
	if k.key != nil {
		k.key.ClearPrivateParams()
		k.key = nil
	}
}

// Seal encrypts plaintext to every recipient public key and signs with
// signer. Including the sender's own key in recipients is what keeps sent
// messages readable to their author; callers pass {senderPub, peerPub}.
func Seal(plaintext string, recipients []domain.ArmoredKey, signer *PrivateKey) (domain.ArmoredMessage, error) {
	if len(recipients) == 0 {
		return "", errors.New("no recipient keys")
	}

	ring, err := recipientRing(recipients)
	if err != nil {
		return "", err
	}
	signRing, err := pgp.NewKeyRing(signer.key)
	if err != nil {
		return "", err
	}

	msg, err := ring.Encrypt(pgp.NewPlainMessageFromString(plaintext), signRing)
	if err != nil {
		return "", err
	}
	armored, err := msg.GetArmored()
	if err != nil {
		return "", err
	}
	return domain.ArmoredMessage(armored), nil
}

// Open decrypts a sealed envelope. When senderPub is non-empty the embedded
// signature is verified against it; a decryptable message with a bad
// signature returns the plaintext together with domain.ErrBadSignature so
// the caller can flag rather than drop it. Undecryptable input fails with
// domain.ErrDecryptionFailure.
func (k *PrivateKey) Open(cipher domain.ArmoredMessage, senderPub domain.ArmoredKey) (string, error) {
	msg, err := pgp.NewPGPMessageFromArmored(string(cipher))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}

	ring, err := pgp.NewKeyRing(k.key)
	if err != nil {
		return "", err
	}

	var verifyRing *pgp.KeyRing
	if senderPub != "" {
		verifyRing, err = recipientRing([]domain.ArmoredKey{senderPub})
		if err != nil {
			return "", err
		}
	}

	plain, err := ring.Decrypt(msg, verifyRing, pgp.GetUnixTime())
	if err != nil {
		var sigErr pgp.SignatureVerificationError
		if errors.As(err, &sigErr) && plain != nil {
			return plain.GetString(), domain.ErrBadSignature
		}
		return "", fmt.Errorf("%w: %v", domain.ErrDecryptionFailure, err)
	}
	return plain.GetString(), nil
}

// KeyFingerprint returns the fingerprint of an armored public key.
func KeyFingerprint(pub domain.ArmoredKey) (domain.Fingerprint, error) {
	key, err := pgp.NewKeyFromArmored(string(pub))
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(key.GetFingerprint()), nil
}

// recipientRing parses armored public keys into a key ring.
func recipientRing(keys []domain.ArmoredKey) (*pgp.KeyRing, error) {
	ring, err := pgp.NewKeyRing(nil)
	if err != nil {
		return nil, err
	}
	for _, armored := range keys {
		key, err := pgp.NewKeyFromArmored(string(armored))
		if err != nil {
			return nil, err
		}
		if err := ring.AddKey(key); err != nil {
			return nil, err
		}
	}
	return ring, nil
}
