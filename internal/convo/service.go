package convo

import (
	"context"
	"strings"

	"whisperchat/internal/domain"
)

// Service runs the conversation state machine over a conversation store,
// using the directory to validate that counterparties exist.
type Service struct {
	conversations domain.ConversationStore
	directory     domain.DirectoryStore
}

// New returns a Service over the given stores.
func New(conversations domain.ConversationStore, directory domain.DirectoryStore) *Service {
	return &Service{conversations: conversations, directory: directory}
}

// Request creates (or finds) the conversation between initiator and
// counterparty. The initiator's approval flag is set, the counterparty's is
// pending. Created reports whether a new record was inserted; repeated and
// concurrent requests for the same pair return the same id with
// created=false.
func (s *Service) Request(ctx context.Context, initiator, counterparty domain.UID) (domain.Conversation, bool, error) {
	if err := validateUID(initiator); err != nil {
		return domain.Conversation{}, false, err
	}
	if err := validateUID(counterparty); err != nil {
		return domain.Conversation{}, false, err
	}
	if initiator == counterparty {
		return domain.Conversation{}, false, domain.ErrSelfConversation
	}

	// The counterparty must be a real identity with a directory record.
	if _, err := s.directory.GetEntry(ctx, counterparty); err != nil {
		return domain.Conversation{}, false, err
	}

	conv := domain.Conversation{
		ID:           domain.PairID(initiator, counterparty),
		Participants: []domain.UID{initiator, counterparty},
		Approved: map[domain.UID]bool{
			initiator:    true,
			counterparty: false,
		},
	}
	return s.conversations.CreateIfAbsent(ctx, conv)
}

// Approve sets the actor's own approval flag on the conversation. Only a
// participant may approve, and only for themselves; approving twice is a
// no-op.
func (s *Service) Approve(ctx context.Context, actor domain.UID, id domain.ConversationID) error {
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(actor) {
		return domain.ErrNotParticipant
	}
	if conv.Approved[actor] {
		return nil
	}
	return s.conversations.SetApproved(ctx, id, actor)
}

// Get returns the conversation if uid participates in it.
func (s *Service) Get(ctx context.Context, uid domain.UID, id domain.ConversationID) (domain.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.HasParticipant(uid) {
		return domain.Conversation{}, domain.ErrNotParticipant
	}
	return conv, nil
}

// ListPending returns conversations where uid has not yet approved.
func (s *Service) ListPending(ctx context.Context, uid domain.UID) ([]domain.Conversation, error) {
	all, err := s.conversations.ListByParticipant(ctx, uid)
	if err != nil {
		return nil, err
	}
	var out []domain.Conversation
	for _, conv := range all {
		if !conv.Approved[uid] {
			out = append(out, conv)
		}
	}
	return out, nil
}

// ListApproved returns conversations where every participant has approved.
func (s *Service) ListApproved(ctx context.Context, uid domain.UID) ([]domain.Conversation, error) {
	all, err := s.conversations.ListByParticipant(ctx, uid)
	if err != nil {
		return nil, err
	}
	var out []domain.Conversation
	for _, conv := range all {
		if conv.FullyApproved() {
			out = append(out, conv)
		}
	}
	return out, nil
}

// ListAwaitingPeer returns conversations the caller approved that the
// counterparty has not: "sent, awaiting them", as opposed to the
// counterparty's "awaiting my action" view of the same record.
func (s *Service) ListAwaitingPeer(ctx context.Context, uid domain.UID) ([]domain.Conversation, error) {
	all, err := s.conversations.ListByParticipant(ctx, uid)
	if err != nil {
		return nil, err
	}
	var out []domain.Conversation
	for _, conv := range all {
		if conv.Approved[uid] && !conv.FullyApproved() {
			out = append(out, conv)
		}
	}
	return out, nil
}

// validateUID rejects empty or whitespace-bearing identifiers before they
// reach the store.
func validateUID(uid domain.UID) error {
	s := uid.String()
	if s == "" || strings.ContainsAny(s, " \t\r\n/") {
		return domain.ErrInvalidUID
	}
	return nil
}
