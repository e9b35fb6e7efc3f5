package stream

import (
	"context"
	"errors"
	"fmt"

	"whisperchat/internal/domain"
)

// Event is one item on a subscription: a decrypted display record, or a
// terminal error after which the channel closes.
type Event struct {
	Record domain.DecryptedMessage
	Err    error
}

// Service runs the message pipeline for one logged-in identity.
type Service struct {
	relay domain.RelayClient
	codec domain.Codec
	me    domain.UID
}

// New returns a Service for uid using the given relay and codec.
func New(relay domain.RelayClient, codec domain.Codec, me domain.UID) *Service {
	return &Service{relay: relay, codec: codec, me: me}
}

// Send seals plaintext to both participants' current public keys and appends
// it to the conversation. It requires a fully approved conversation, both
// directory keys, and a usable session key; readBy starts as {sender}.
func (s *Service) Send(ctx context.Context, id domain.ConversationID, plaintext string) (domain.Message, error) {
	conv, err := s.relay.Conversation(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.FullyApproved() {
		return domain.Message{}, domain.ErrNotApproved
	}

	recipients, err := s.recipientKeys(ctx, conv)
	if err != nil {
		return domain.Message{}, err
	}

	cipher, err := s.codec.Seal(plaintext, recipients)
	if err != nil {
		return domain.Message{}, err
	}
	return s.relay.SendMessage(ctx, id, cipher)
}

// Subscribe opens a live feed over the conversation: full history in
// timestamp order, then updates. Each sealed record is opened with the
// session key; records from the counterparty that the subscriber has not
// seen are marked read in the background. The returned channel closes after
// a terminal event or when ctx is cancelled; work completing after that is
// discarded.
func (s *Service) Subscribe(ctx context.Context, id domain.ConversationID) (<-chan Event, error) {
	conv, err := s.relay.Conversation(ctx, id)
	if err != nil {
		return nil, err
	}

	// Sender keys for signature verification; placeholders resolve to no key,
	// which downgrades verification rather than blocking the feed.
	entries, err := s.relay.BatchLookup(ctx, conv.Participants)
	if err != nil {
		return nil, err
	}
	senderKeys := make(map[domain.UID]domain.ArmoredKey, len(entries))
	for uid, entry := range entries {
		if !entry.Placeholder {
			senderKeys[uid] = entry.PublicKey
		}
	}

	feed, err := s.relay.WatchMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for ev := range feed {
			if ev.Err != nil {
				select {
				case out <- Event{Err: ev.Err}:
				case <-ctx.Done():
				}
				return
			}

			record := s.open(ev.Message, senderKeys[ev.Message.Sender])
			select {
			case out <- Event{Record: record}:
			case <-ctx.Done():
				return
			}

			if !record.IsMine && !ev.Message.SeenBy(s.me) {
				// Read receipts are additive set union; a racing marker from
				// another tab converges on the same superset, so a failure
				// here is not worth failing the feed over.
				go func(msg domain.MessageID) {
					_ = s.relay.MarkRead(ctx, id, msg)
				}(ev.Message.ID)
			}
		}
	}()
	return out, nil
}

// open decrypts one record, degrading per the failure mode: bad signature
// keeps the plaintext but flags it, anything else renders the placeholder.
func (s *Service) open(m domain.Message, senderKey domain.ArmoredKey) domain.DecryptedMessage {
	record := domain.DecryptedMessage{
		ID:        m.ID,
		Sender:    m.Sender,
		IsMine:    m.Sender == s.me,
		Timestamp: m.Timestamp,
		ReadBy:    m.ReadBy,
	}

	text, err := s.codec.Open(m.CipherText, senderKey)
	switch {
	case err == nil:
		record.Text = text
	case errors.Is(err, domain.ErrBadSignature):
		record.Text = text
		record.Unverified = true
	default:
		record.Text = domain.UnreadablePlaceholder
		record.Unreadable = true
	}
	return record
}

// recipientKeys resolves both participants' armored public keys. The
// sender's own key is always included so sent messages stay readable to
// their author.
func (s *Service) recipientKeys(ctx context.Context, conv domain.Conversation) ([]domain.ArmoredKey, error) {
	entries, err := s.relay.BatchLookup(ctx, conv.Participants)
	if err != nil {
		return nil, err
	}
	keys := make([]domain.ArmoredKey, 0, len(conv.Participants))
	for _, uid := range conv.Participants {
		entry, ok := entries[uid]
		if !ok || entry.Placeholder || entry.PublicKey == "" {
			return nil, fmt.Errorf("%w: no public key for %s", domain.ErrNotFound, uid)
		}
		keys = append(keys, entry.PublicKey)
	}
	return keys, nil
}
