// Package memory is an in-process implementation of the whisperd store
// contracts. It backs tests and single-node development runs; production
// deployments use the mongo package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"whisperchat/internal/domain"
)

// Store keeps all state in maps guarded by one RWMutex. Watchers are woken
// through a broadcast channel that is closed and replaced on every mutation.
type Store struct {
	mu            sync.RWMutex
	conversations map[domain.ConversationID]domain.Conversation
	directory     map[domain.UID]domain.DirectoryEntry
	messages      map[domain.ConversationID][]domain.Message
	accounts      map[domain.UID]domain.Account
	emails        map[string]domain.UID
	friends       map[domain.UID]map[domain.UID]domain.Friend
	requests      map[requestKey]domain.FriendRequest
	seq           int64
	notify        chan struct{}
}

type requestKey struct {
	from, to domain.UID
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		conversations: make(map[domain.ConversationID]domain.Conversation),
		directory:     make(map[domain.UID]domain.DirectoryEntry),
		messages:      make(map[domain.ConversationID][]domain.Message),
		accounts:      make(map[domain.UID]domain.Account),
		emails:        make(map[string]domain.UID),
		friends:       make(map[domain.UID]map[domain.UID]domain.Friend),
		requests:      make(map[requestKey]domain.FriendRequest),
		notify:        make(chan struct{}),
	}
}

// broadcast wakes all watchers. Callers must hold the write lock.
func (s *Store) broadcast() {
	close(s.notify)
	s.notify = make(chan struct{})
}

func (s *Store) notifyCh() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notify
}

// ---------- ConversationStore ----------

func (s *Store) CreateIfAbsent(ctx context.Context, conv domain.Conversation) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.conversations[conv.ID]; ok {
		return existing, false, nil
	}
	conv.CreatedAt = time.Now().UTC()
	s.conversations[conv.ID] = cloneConversation(conv)
	return conv, true, nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (s *Store) ListByParticipant(ctx context.Context, uid domain.UID) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Conversation
	for _, conv := range s.conversations {
		if conv.HasParticipant(uid) {
			out = append(out, cloneConversation(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SetApproved(ctx context.Context, id domain.ConversationID, uid domain.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	conv.Approved[uid] = true
	return nil
}

// ---------- DirectoryStore ----------

func (s *Store) PutEntry(ctx context.Context, entry domain.DirectoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory[entry.UID] = entry
	return nil
}

func (s *Store) GetEntry(ctx context.Context, uid domain.UID) (domain.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.directory[uid]
	if !ok {
		return domain.DirectoryEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (s *Store) GetEntries(ctx context.Context, uids []domain.UID) (map[domain.UID]domain.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.UID]domain.DirectoryEntry, len(uids))
	for _, uid := range uids {
		if entry, ok := s.directory[uid]; ok {
			out[uid] = entry
		}
	}
	return out, nil
}

// ---------- MessageStore ----------

func (s *Store) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	msg.Seq = s.seq
	msg.Timestamp = time.Now().UTC()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], cloneMessage(msg))
	s.broadcast()
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[id]
	out := make([]domain.Message, len(msgs))
	for i, m := range msgs {
		out[i] = cloneMessage(m)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, id domain.ConversationID, msg domain.MessageID, uid domain.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[id]
	for i := range msgs {
		if msgs[i].ID != msg {
			continue
		}
		if !msgs[i].SeenBy(uid) {
			msgs[i].ReadBy = append(msgs[i].ReadBy, uid)
			s.broadcast()
		}
		return nil
	}
	return domain.ErrNotFound
}

// Watch replays history in insertion order, then emits every append and
// read-set growth until ctx is cancelled. Messages are keyed by Seq, so a
// watcher never re-emits a record unless its read set grew.
func (s *Store) Watch(ctx context.Context, id domain.ConversationID) (<-chan domain.MessageEvent, error) {
	out := make(chan domain.MessageEvent)

	go func() {
		defer close(out)

		emitted := make(map[domain.MessageID]int) // message id -> readBy size last sent

		for {
			wake := s.notifyCh()

			s.mu.RLock()
			var pending []domain.Message
			for _, m := range s.messages[id] {
				if last, ok := emitted[m.ID]; !ok || len(m.ReadBy) > last {
					pending = append(pending, cloneMessage(m))
				}
			}
			s.mu.RUnlock()

			for _, m := range pending {
				select {
				case out <- domain.MessageEvent{Message: m}:
					emitted[m.ID] = len(m.ReadBy)
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// ---------- AccountStore ----------

func (s *Store) CreateAccount(ctx context.Context, acct domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emails[acct.Email]; ok {
		return domain.ErrAlreadyExists
	}
	s.accounts[acct.UID] = acct
	s.emails[acct.Email] = acct.UID
	return nil
}

func (s *Store) GetAccount(ctx context.Context, uid domain.UID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[uid]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return acct, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, ok := s.emails[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return s.accounts[uid], nil
}

// ---------- FriendStore ----------

func (s *Store) UpsertFriend(ctx context.Context, f domain.Friend) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.friends[f.Owner] == nil {
		s.friends[f.Owner] = make(map[domain.UID]domain.Friend)
	}
	s.friends[f.Owner][f.UID] = f
	return nil
}

func (s *Store) ListFriends(ctx context.Context, owner domain.UID) ([]domain.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Friend
	for _, f := range s.friends[owner] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (s *Store) PutRequest(ctx context.Context, r domain.FriendRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[requestKey{r.From, r.To}] = r
	return nil
}

func (s *Store) GetRequest(ctx context.Context, from, to domain.UID) (domain.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[requestKey{from, to}]
	if !ok {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) DeleteRequest(ctx context.Context, from, to domain.UID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, requestKey{from, to})
	return nil
}

func (s *Store) ListRequests(ctx context.Context, to domain.UID) ([]domain.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.FriendRequest
	for k, r := range s.requests {
		if k.to == to {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneConversation(c domain.Conversation) domain.Conversation {
	out := c
	out.Participants = append([]domain.UID(nil), c.Participants...)
	out.Approved = make(map[domain.UID]bool, len(c.Approved))
	for k, v := range c.Approved {
		out.Approved[k] = v
	}
	return out
}

func cloneMessage(m domain.Message) domain.Message {
	out := m
	out.ReadBy = append([]domain.UID(nil), m.ReadBy...)
	return out
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.DirectoryStore    = (*Store)(nil)
	_ domain.MessageStore      = (*Store)(nil)
	_ domain.AccountStore      = (*Store)(nil)
	_ domain.FriendStore       = (*Store)(nil)
)
