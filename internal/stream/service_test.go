package stream_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"whisperchat/internal/directory"
	"whisperchat/internal/domain"
	"whisperchat/internal/keyring"
	"whisperchat/internal/store/memory"
	"whisperchat/internal/stream"
)

// fakeRelay serves the stream service straight off the memory store, skipping
// HTTP. Methods the stream never calls stay on the embedded nil interface.
type fakeRelay struct {
	domain.RelayClient
	store *memory.Store
	dir   *directory.Service
	me    domain.UID
}

func (f *fakeRelay) Conversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	return f.store.GetConversation(ctx, id)
}

func (f *fakeRelay) BatchLookup(ctx context.Context, uids []domain.UID) (map[domain.UID]domain.DirectoryEntry, error) {
	return f.dir.BatchLookup(ctx, uids)
}

func (f *fakeRelay) SendMessage(ctx context.Context, id domain.ConversationID, cipher domain.ArmoredMessage) (domain.Message, error) {
	return f.store.Append(ctx, domain.Message{
		ID:             domain.MessageID(uuid.NewString()),
		ConversationID: id,
		Sender:         f.me,
		CipherText:     cipher,
		ReadBy:         []domain.UID{f.me},
	})
}

func (f *fakeRelay) WatchMessages(ctx context.Context, id domain.ConversationID) (<-chan domain.MessageEvent, error) {
	return f.store.Watch(ctx, id)
}

func (f *fakeRelay) MarkRead(ctx context.Context, id domain.ConversationID, msg domain.MessageID) error {
	return f.store.MarkRead(ctx, id, msg, f.me)
}

type party struct {
	uid    domain.UID
	sess   *keyring.Session
	stream *stream.Service
	relay  *fakeRelay
}

// newParties builds alice and bob over one shared store with published keys
// and a fully approved conversation between them.
func newParties(t *testing.T) (alice, bob party, convID domain.ConversationID, st *memory.Store) {
	t.Helper()
	ctx := context.Background()
	st = memory.New()
	dir := directory.New(st)

	mk := func(uid domain.UID) party {
		sess := keyring.NewSession(keyring.NewStore(t.TempDir()))
		pub, err := sess.Generate(uid.String(), uid.String()+"@example.com", domain.KeyTypeECC, 0, "pw pw pw", "pw pw pw")
		require.NoError(t, err)
		require.NoError(t, dir.Publish(ctx, domain.DirectoryEntry{UID: uid, PublicKey: pub, DisplayName: uid.String()}))
		relay := &fakeRelay{store: st, dir: dir, me: uid}
		return party{uid: uid, sess: sess, stream: stream.New(relay, sess, uid), relay: relay}
	}
	alice = mk("alice")
	bob = mk("bob")

	conv := domain.Conversation{
		ID:           domain.PairID("alice", "bob"),
		Participants: []domain.UID{"alice", "bob"},
		Approved:     map[domain.UID]bool{"alice": true, "bob": true},
	}
	conv, _, err := st.CreateIfAbsent(ctx, conv)
	require.NoError(t, err)
	return alice, bob, conv.ID, st
}

func recvEvent(t *testing.T, ch <-chan stream.Event) stream.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "feed closed unexpectedly")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return stream.Event{}
	}
}

func TestSend_RequiresFullApproval(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := directory.New(st)

	sess := keyring.NewSession(keyring.NewStore(t.TempDir()))
	pub, err := sess.Generate("alice", "alice@example.com", domain.KeyTypeECC, 0, "pw pw pw", "pw pw pw")
	require.NoError(t, err)
	require.NoError(t, dir.Publish(ctx, domain.DirectoryEntry{UID: "alice", PublicKey: pub}))

	conv := domain.Conversation{
		ID:           domain.PairID("alice", "bob"),
		Participants: []domain.UID{"alice", "bob"},
		Approved:     map[domain.UID]bool{"alice": true, "bob": false},
	}
	_, _, err = st.CreateIfAbsent(ctx, conv)
	require.NoError(t, err)

	relay := &fakeRelay{store: st, dir: dir, me: "alice"}
	svc := stream.New(relay, sess, "alice")

	_, err = svc.Send(ctx, conv.ID, "too soon")
	require.ErrorIs(t, err, domain.ErrNotApproved)
}

func TestSubscribe_DeliversAndMarksRead(t *testing.T) {
	alice, bob, convID, st := newParties(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent, err := alice.stream.Send(ctx, convID, "hello")
	require.NoError(t, err)
	require.Equal(t, []domain.UID{"alice"}, sent.ReadBy)

	feed, err := bob.stream.Subscribe(ctx, convID)
	require.NoError(t, err)

	ev := recvEvent(t, feed)
	require.NoError(t, ev.Err)
	require.Equal(t, "hello", ev.Record.Text)
	require.False(t, ev.Record.IsMine)
	require.False(t, ev.Record.Unreadable)
	require.False(t, ev.Record.Unverified)

	// Bob's subscription marks the message read in the background; the read
	// set only ever grows and converges on the union.
	require.Eventually(t, func() bool {
		msgs, err := st.ListMessages(context.Background(), convID)
		return err == nil && len(msgs) == 1 && msgs[0].SeenBy("bob") && msgs[0].SeenBy("alice")
	}, 5*time.Second, 10*time.Millisecond)

	// The sender reads back their own message through their own feed.
	aliceFeed, err := alice.stream.Subscribe(ctx, convID)
	require.NoError(t, err)
	ev = recvEvent(t, aliceFeed)
	require.NoError(t, ev.Err)
	require.Equal(t, "hello", ev.Record.Text)
	require.True(t, ev.Record.IsMine)
}

func TestSubscribe_OrderedByTimestamp(t *testing.T) {
	alice, bob, convID, _ := newParties(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, text := range []string{"one", "two", "three"} {
		_, err := alice.stream.Send(ctx, convID, text)
		require.NoError(t, err)
	}

	feed, err := bob.stream.Subscribe(ctx, convID)
	require.NoError(t, err)

	for _, want := range []string{"one", "two", "three"} {
		ev := recvEvent(t, feed)
		require.NoError(t, ev.Err)
		require.Equal(t, want, ev.Record.Text)
	}
}

func TestSubscribe_DecryptFailureIsIsolated(t *testing.T) {
	alice, bob, convID, st := newParties(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A record sealed to nobody bob knows: simulates mail encrypted to a
	// rotated-away key.
	_, err := st.Append(ctx, domain.Message{
		ID:             "garbled",
		ConversationID: convID,
		Sender:         "alice",
		CipherText:     "-----BEGIN PGP MESSAGE-----\n\nnot really\n-----END PGP MESSAGE-----",
		ReadBy:         []domain.UID{"alice"},
	})
	require.NoError(t, err)

	_, err = alice.stream.Send(ctx, convID, "still readable")
	require.NoError(t, err)

	feed, err := bob.stream.Subscribe(ctx, convID)
	require.NoError(t, err)

	ev := recvEvent(t, feed)
	require.NoError(t, ev.Err)
	require.True(t, ev.Record.Unreadable)
	require.Equal(t, domain.UnreadablePlaceholder, ev.Record.Text)

	ev = recvEvent(t, feed)
	require.NoError(t, ev.Err)
	require.Equal(t, "still readable", ev.Record.Text)
}

func TestSubscribe_LockedSessionRendersPlaceholders(t *testing.T) {
	alice, bob, convID, _ := newParties(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := alice.stream.Send(ctx, convID, "secret")
	require.NoError(t, err)

	bob.sess.Lock()
	feed, err := bob.stream.Subscribe(ctx, convID)
	require.NoError(t, err)

	// The locked key degrades every record to a placeholder but never kills
	// the feed.
	ev := recvEvent(t, feed)
	require.NoError(t, ev.Err)
	require.True(t, ev.Record.Unreadable)
	require.Equal(t, domain.UnreadablePlaceholder, ev.Record.Text)
}
