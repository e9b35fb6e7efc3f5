package friends

import (
	"context"
	"errors"
	"time"

	"whisperchat/internal/domain"
)

// ErrSelfFriend is returned when a user tries to friend themselves.
var ErrSelfFriend = errors.New("cannot friend yourself")

// Service manages friend lists and requests over the given stores.
type Service struct {
	friends   domain.FriendStore
	directory domain.DirectoryStore
}

// New returns a Service over the given stores.
func New(friends domain.FriendStore, directory domain.DirectoryStore) *Service {
	return &Service{friends: friends, directory: directory}
}

// Add copies uid's current directory snapshot into owner's friends list.
// The snapshot is not kept in sync with later profile or key changes.
func (s *Service) Add(ctx context.Context, owner, uid domain.UID) error {
	if owner == uid {
		return ErrSelfFriend
	}
	entry, err := s.directory.GetEntry(ctx, uid)
	if err != nil {
		return err
	}
	return s.friends.UpsertFriend(ctx, snapshot(owner, entry))
}

// SendRequest records a pending friend request from -> to. Re-sending
// overwrites the existing pending record.
func (s *Service) SendRequest(ctx context.Context, from, to domain.UID) error {
	if from == to {
		return ErrSelfFriend
	}
	if _, err := s.directory.GetEntry(ctx, to); err != nil {
		return err
	}
	return s.friends.PutRequest(ctx, domain.FriendRequest{
		From:      from,
		To:        to,
		CreatedAt: time.Now().UTC(),
	})
}

// Respond resolves the pending request from -> actor. Accepting writes
// reciprocal friend entries on both sides; either way the request record is
// deleted.
func (s *Service) Respond(ctx context.Context, actor, from domain.UID, accept bool) error {
	if _, err := s.friends.GetRequest(ctx, from, actor); err != nil {
		return err
	}

	if accept {
		fromEntry, err := s.directory.GetEntry(ctx, from)
		if err != nil {
			return err
		}
		actorEntry, err := s.directory.GetEntry(ctx, actor)
		if err != nil {
			return err
		}
		if err := s.friends.UpsertFriend(ctx, snapshot(actor, fromEntry)); err != nil {
			return err
		}
		if err := s.friends.UpsertFriend(ctx, snapshot(from, actorEntry)); err != nil {
			return err
		}
	}
	return s.friends.DeleteRequest(ctx, from, actor)
}

// List returns owner's friends.
func (s *Service) List(ctx context.Context, owner domain.UID) ([]domain.Friend, error) {
	return s.friends.ListFriends(ctx, owner)
}

// Requests returns the pending requests addressed to uid.
func (s *Service) Requests(ctx context.Context, uid domain.UID) ([]domain.FriendRequest, error) {
	return s.friends.ListRequests(ctx, uid)
}

func snapshot(owner domain.UID, entry domain.DirectoryEntry) domain.Friend {
	return domain.Friend{
		Owner:       owner,
		UID:         entry.UID,
		DisplayName: entry.DisplayName,
		PhotoURL:    entry.PhotoURL,
		PublicKey:   entry.PublicKey,
		AddedAt:     time.Now().UTC(),
	}
}
