package keyring

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"whisperchat/internal/domain"
)

const (
	keyFile     = "private_key.asc"
	profileFile = "profile.json"
)

// Profile is the small plaintext state kept alongside the key blob: who is
// logged in and where. It carries no secrets besides the bearer token.
type Profile struct {
	UID         domain.UID `json:"uid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	ServerURL   string     `json:"serverUrl"`
	Token       string     `json:"token,omitempty"`
}

// Store persists the locked key blob and profile under a config directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store { return &Store{dir: dir} }

// SaveLockedKey writes the locked armored private key. This is the only
// on-disk form key material ever takes.
func (s *Store) SaveLockedKey(locked domain.ArmoredKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFile(filepath.Join(s.dir, keyFile), []byte(locked), 0o600)
}

// LoadLockedKey reads the locked blob. Absence means the user has no local
// key yet and must generate or import one.
func (s *Store) LoadLockedKey() (domain.ArmoredKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, keyFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", domain.ErrNoKey
	}
	if err != nil {
		return "", err
	}
	return domain.ArmoredKey(b), nil
}

// SaveProfile writes the profile as JSON.
func (s *Store) SaveProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, profileFile), b, 0o600)
}

// LoadProfile reads the profile; a missing file yields a zero Profile.
func (s *Store) LoadProfile() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if errors.Is(err, os.ErrNotExist) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
