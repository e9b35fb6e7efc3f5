package keyring

import (
	"fmt"
	"sync"

	"whisperchat/internal/crypto"
	"whisperchat/internal/domain"
)

// State is the in-memory key lifecycle state.
type State int

const (
	// Locked: no usable private material in memory.
	Locked State = iota
	// Unlocking: a passphrase attempt is in flight.
	Unlocking
	// Usable: the decrypted key is held in memory for this session.
	Usable
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocking:
		return "unlocking"
	case Usable:
		return "usable"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session owns the active login's private key. It is passed explicitly to
// everything that needs to seal or open messages; there is no ambient global
// key state.
type Session struct {
	store *Store

	mu    sync.Mutex
	state State
	key   *crypto.PrivateKey
}

// NewSession returns a locked session over the given store.
func NewSession(store *Store) *Session {
	return &Session{store: store, state: Locked}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate creates a key pair locked under passphrase, persists the locked
// blob, and leaves the session Usable with the new key. The armored public
// half is returned for publication to the directory.
//
// A passphrase/confirmation mismatch or empty passphrase fails with
// domain.ErrKeyGen before any key material is produced or persisted.
func (s *Session) Generate(name, email string, keyType domain.KeyType, bits int, passphrase, confirm string) (domain.ArmoredKey, error) {
	if passphrase == "" || passphrase != confirm {
		return "", fmt.Errorf("%w: passphrase empty or confirmation mismatch", domain.ErrKeyGen)
	}

	pub, locked, err := crypto.Generate(name, email, keyType, bits, passphrase)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveLockedKey(locked); err != nil {
		return "", err
	}

	key, err := crypto.Unlock(locked, passphrase)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.key != nil {
		s.key.Clear()
	}
	s.key = key
	s.state = Usable
	s.mu.Unlock()

	return pub, nil
}

// Unlock loads the locked blob and decrypts it with passphrase. On a wrong
// passphrase the session stays Locked and the caller may retry; material
// stored without a passphrase unlocks as-is.
func (s *Session) Unlock(passphrase string) error {
	s.mu.Lock()
	if s.state == Usable {
		s.mu.Unlock()
		return nil
	}
	s.state = Unlocking
	s.mu.Unlock()

	locked, err := s.store.LoadLockedKey()
	if err != nil {
		s.setLocked()
		return err
	}

	key, err := crypto.Unlock(locked, passphrase)
	if err != nil {
		s.setLocked()
		return err
	}

	s.mu.Lock()
	s.key = key
	s.state = Usable
	s.mu.Unlock()
	return nil
}

// Lock wipes the in-memory key. Called on logout and component teardown.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		s.key.Clear()
		s.key = nil
	}
	s.state = Locked
}

// Key returns the usable private key, or domain.ErrKeyLocked.
func (s *Session) Key() (*crypto.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Usable || s.key == nil {
		return nil, domain.ErrKeyLocked
	}
	return s.key, nil
}

// Rotate generates a replacement key pair under passphrase, persists the new
// locked blob and swaps it into the session. The new public half is returned
// for republication; the directory keeps no history, so only holders of the
// old private key can still read old ciphertext.
func (s *Session) Rotate(name, email string, keyType domain.KeyType, bits int, passphrase string) (domain.ArmoredKey, error) {
	return s.Generate(name, email, keyType, bits, passphrase, passphrase)
}

// Seal implements domain.Codec using the session key.
func (s *Session) Seal(plaintext string, recipients []domain.ArmoredKey) (domain.ArmoredMessage, error) {
	key, err := s.Key()
	if err != nil {
		return "", err
	}
	return crypto.Seal(plaintext, recipients, key)
}

// Open implements domain.Codec using the session key.
func (s *Session) Open(cipher domain.ArmoredMessage, senderKey domain.ArmoredKey) (string, error) {
	key, err := s.Key()
	if err != nil {
		return "", err
	}
	return key.Open(cipher, senderKey)
}

func (s *Session) setLocked() {
	s.mu.Lock()
	s.state = Locked
	s.mu.Unlock()
}

// Compile-time assertion that Session implements domain.Codec.
var _ domain.Codec = (*Session)(nil)
