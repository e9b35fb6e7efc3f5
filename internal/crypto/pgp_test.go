package crypto_test

import (
	"errors"
	"testing"

	"whisperchat/internal/crypto"
	"whisperchat/internal/domain"
)

func generate(t *testing.T, keyType domain.KeyType, bits int) (pub, locked domain.ArmoredKey) {
	t.Helper()
	pub, locked, err := crypto.Generate("test", "test@example.com", keyType, bits, "correct horse")
	if err != nil {
		t.Fatalf("Generate(%s/%d): %v", keyType, bits, err)
	}
	return pub, locked
}

func TestGenerate_InvalidParams(t *testing.T) {
	cases := []struct {
		name       string
		keyType    domain.KeyType
		bits       int
		passphrase string
	}{
		{"empty passphrase", domain.KeyTypeECC, 0, ""},
		{"bad rsa strength", domain.KeyTypeRSA, 1024, "pw"},
		{"unknown type", domain.KeyType("dsa"), 0, "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := crypto.Generate("t", "t@t", tc.keyType, tc.bits, tc.passphrase)
			if !errors.Is(err, domain.ErrKeyGen) {
				t.Fatalf("want ErrKeyGen, got %v", err)
			}
		})
	}
}

func TestUnlock_WrongPassphrase(t *testing.T) {
	_, locked := generate(t, domain.KeyTypeECC, 0)

	if _, err := crypto.Unlock(locked, "nope"); !errors.Is(err, domain.ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
	// Still locked and recoverable with the right passphrase.
	key, err := crypto.Unlock(locked, "correct horse")
	if err != nil {
		t.Fatalf("unlock after failed attempt: %v", err)
	}
	key.Clear()
}

func TestIsLocked(t *testing.T) {
	_, locked := generate(t, domain.KeyTypeECC, 0)

	isLocked, err := crypto.IsLocked(locked)
	if err != nil {
		t.Fatalf("IsLocked: %v", err)
	}
	if !isLocked {
		t.Fatal("freshly generated blob should be locked")
	}
}

func TestSealOpen_BothRecipientsRecoverPlaintext(t *testing.T) {
	for _, tc := range []struct {
		name    string
		keyType domain.KeyType
		bits    int
	}{
		{"ecc", domain.KeyTypeECC, 0},
		{"rsa2048", domain.KeyTypeRSA, crypto.RSABits2048},
	} {
		t.Run(tc.name, func(t *testing.T) {
			senderPub, senderLocked := generate(t, tc.keyType, tc.bits)
			peerPub, peerLocked := generate(t, tc.keyType, tc.bits)

			sender, err := crypto.Unlock(senderLocked, "correct horse")
			if err != nil {
				t.Fatalf("unlock sender: %v", err)
			}
			peer, err := crypto.Unlock(peerLocked, "correct horse")
			if err != nil {
				t.Fatalf("unlock peer: %v", err)
			}

			const plaintext = "hello"
			sealed, err := crypto.Seal(plaintext, []domain.ArmoredKey{senderPub, peerPub}, sender)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}

			// Either recipient's private key opens the envelope.
			got, err := sender.Open(sealed, senderPub)
			if err != nil {
				t.Fatalf("sender Open: %v", err)
			}
			if got != plaintext {
				t.Fatalf("sender got %q, want %q", got, plaintext)
			}
			got, err = peer.Open(sealed, senderPub)
			if err != nil {
				t.Fatalf("peer Open: %v", err)
			}
			if got != plaintext {
				t.Fatalf("peer got %q, want %q", got, plaintext)
			}
		})
	}
}

func TestOpen_RotatedAwayKeyFails(t *testing.T) {
	senderPub, senderLocked := generate(t, domain.KeyTypeECC, 0)
	peerOldPub, peerOldLocked := generate(t, domain.KeyTypeECC, 0)
	_, peerNewLocked := generate(t, domain.KeyTypeECC, 0)

	sender, err := crypto.Unlock(senderLocked, "correct horse")
	if err != nil {
		t.Fatalf("unlock sender: %v", err)
	}

	sealed, err := crypto.Seal("old mail", []domain.ArmoredKey{senderPub, peerOldPub}, sender)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	// The retained old private key still opens the old envelope.
	oldKey, err := crypto.Unlock(peerOldLocked, "correct horse")
	if err != nil {
		t.Fatalf("unlock old key: %v", err)
	}
	if got, err := oldKey.Open(sealed, senderPub); err != nil || got != "old mail" {
		t.Fatalf("old key Open: got %q err %v", got, err)
	}

	// The rotated-to key was never a recipient; decryption fails cleanly.
	newKey, err := crypto.Unlock(peerNewLocked, "correct horse")
	if err != nil {
		t.Fatalf("unlock new key: %v", err)
	}
	if _, err := newKey.Open(sealed, senderPub); !errors.Is(err, domain.ErrDecryptionFailure) {
		t.Fatalf("want ErrDecryptionFailure, got %v", err)
	}
}

func TestKeyFingerprint_MatchesPrivate(t *testing.T) {
	pub, locked := generate(t, domain.KeyTypeECC, 0)

	key, err := crypto.Unlock(locked, "correct horse")
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	fromPub, err := crypto.KeyFingerprint(pub)
	if err != nil {
		t.Fatalf("KeyFingerprint: %v", err)
	}
	if fromPub != key.Fingerprint() {
		t.Fatalf("fingerprint mismatch: %s vs %s", fromPub, key.Fingerprint())
	}
}
