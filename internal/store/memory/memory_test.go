package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"whisperchat/internal/domain"
	"whisperchat/internal/store/memory"
)

func appendMsg(t *testing.T, st *memory.Store, conv domain.ConversationID, id domain.MessageID, sender domain.UID) domain.Message {
	t.Helper()
	msg, err := st.Append(context.Background(), domain.Message{
		ID:             id,
		ConversationID: conv,
		Sender:         sender,
		CipherText:     "sealed",
		ReadBy:         []domain.UID{sender},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return msg
}

func nextEvent(t *testing.T, ch <-chan domain.MessageEvent) domain.Message {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("feed closed unexpectedly")
		}
		if ev.Err != nil {
			t.Fatalf("feed error: %v", ev.Err)
		}
		return ev.Message
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.Message{}
}

func TestWatch_ReplayThenLive(t *testing.T) {
	st := memory.New()
	conv := domain.ConversationID("conv")

	appendMsg(t, st, conv, "m1", "alice")
	appendMsg(t, st, conv, "m2", "bob")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := st.Watch(ctx, conv)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if got := nextEvent(t, ch); got.ID != "m1" {
		t.Fatalf("replay order: got %s, want m1", got.ID)
	}
	if got := nextEvent(t, ch); got.ID != "m2" {
		t.Fatalf("replay order: got %s, want m2", got.ID)
	}

	appendMsg(t, st, conv, "m3", "alice")
	if got := nextEvent(t, ch); got.ID != "m3" {
		t.Fatalf("live append: got %s, want m3", got.ID)
	}
}

func TestWatch_ReEmitsOnReadByGrowth(t *testing.T) {
	st := memory.New()
	conv := domain.ConversationID("conv")
	appendMsg(t, st, conv, "m1", "alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := st.Watch(ctx, conv)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	first := nextEvent(t, ch)
	if len(first.ReadBy) != 1 {
		t.Fatalf("initial readBy = %v", first.ReadBy)
	}

	if err := st.MarkRead(context.Background(), conv, "m1", "bob"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	updated := nextEvent(t, ch)
	if updated.ID != "m1" || len(updated.ReadBy) != 2 {
		t.Fatalf("expected re-emit with grown read set, got %+v", updated)
	}

	// Marking again with the same uid grows nothing and re-emits nothing.
	if err := st.MarkRead(context.Background(), conv, "m1", "bob"); err != nil {
		t.Fatalf("MarkRead repeat: %v", err)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_CancelClosesFeed(t *testing.T) {
	st := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := st.Watch(ctx, "conv")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not close after cancel")
	}
}

func TestWatch_IgnoresOtherConversations(t *testing.T) {
	st := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := st.Watch(ctx, "conv-a")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	appendMsg(t, st, "conv-b", "other", "alice")
	appendMsg(t, st, "conv-a", "mine", "alice")

	if got := nextEvent(t, ch); got.ID != "mine" {
		t.Fatalf("got %s, want mine", got.ID)
	}
}

func TestMarkRead_ConcurrentUnion(t *testing.T) {
	st := memory.New()
	conv := domain.ConversationID("conv")
	appendMsg(t, st, conv, "m1", "alice")

	uids := []domain.UID{"bob", "carol", "dave", "erin"}
	var wg sync.WaitGroup
	for _, uid := range uids {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(u domain.UID) {
				defer wg.Done()
				_ = st.MarkRead(context.Background(), conv, "m1", u)
			}(uid)
		}
	}
	wg.Wait()

	msgs, err := st.ListMessages(context.Background(), conv)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("ListMessages = %v, %v", msgs, err)
	}
	// alice (sender) plus each marker exactly once.
	if len(msgs[0].ReadBy) != len(uids)+1 {
		t.Fatalf("readBy = %v, want %d distinct entries", msgs[0].ReadBy, len(uids)+1)
	}
	seen := make(map[domain.UID]bool)
	for _, u := range msgs[0].ReadBy {
		if seen[u] {
			t.Fatalf("duplicate %s in read set %v", u, msgs[0].ReadBy)
		}
		seen[u] = true
	}
}

func TestCreateIfAbsent_Race(t *testing.T) {
	st := memory.New()
	conv := domain.Conversation{
		ID:           domain.PairID("alice", "bob"),
		Participants: []domain.UID{"alice", "bob"},
		Approved:     map[domain.UID]bool{"alice": true, "bob": false},
	}

	var wg sync.WaitGroup
	createdCount := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := st.CreateIfAbsent(context.Background(), conv)
			if err != nil {
				t.Errorf("CreateIfAbsent: %v", err)
				return
			}
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	var wins int
	for created := range createdCount {
		if created {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one creator expected, got %d", wins)
	}
}
