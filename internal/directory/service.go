package directory

import (
	"context"

	"whisperchat/internal/domain"
)

// DefaultPhotoURL is the avatar used for placeholder entries.
const DefaultPhotoURL = "/avatars/default.png"

// Service reads and writes directory entries.
type Service struct {
	store domain.DirectoryStore
}

// New returns a Service over the given store.
func New(store domain.DirectoryStore) *Service { return &Service{store: store} }

// Publish upserts the caller's entry. Last write wins; rotating a key simply
// overwrites the public half, so old ciphertext stays readable only to
// whoever kept the old private key.
func (s *Service) Publish(ctx context.Context, entry domain.DirectoryEntry) error {
	if entry.UID == "" {
		return domain.ErrInvalidUID
	}
	return s.store.PutEntry(ctx, entry)
}

// Lookup returns the entry for uid, or domain.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, uid domain.UID) (domain.DirectoryEntry, error) {
	return s.store.GetEntry(ctx, uid)
}

// BatchLookup resolves a set of identities in one round trip. Missing uids
// get a placeholder entry (truncated uid as display name, default avatar)
// instead of failing the whole batch.
func (s *Service) BatchLookup(ctx context.Context, uids []domain.UID) (map[domain.UID]domain.DirectoryEntry, error) {
	found, err := s.store.GetEntries(ctx, uids)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UID]domain.DirectoryEntry, len(uids))
	for _, uid := range uids {
		if entry, ok := found[uid]; ok {
			out[uid] = entry
			continue
		}
		out[uid] = Placeholder(uid)
	}
	return out, nil
}

// Placeholder synthesises a display-only entry for an unknown identity.
func Placeholder(uid domain.UID) domain.DirectoryEntry {
	name := uid.String()
	if len(name) > 8 {
		name = name[:8]
	}
	return domain.DirectoryEntry{
		UID:         uid,
		DisplayName: name,
		PhotoURL:    DefaultPhotoURL,
		Placeholder: true,
	}
}
