package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"whisperchat/internal/accounts"
	"whisperchat/internal/convo"
	"whisperchat/internal/directory"
	"whisperchat/internal/domain"
	"whisperchat/internal/friends"
	"whisperchat/internal/server"
	"whisperchat/internal/store/memory"
)

type okVerifier struct{}

func (okVerifier) Verify(ctx context.Context, token string) (float64, error) {
	if token == "bot" {
		return 0.1, nil
	}
	return 0.9, nil
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	st := memory.New()
	acct := accounts.New(st, okVerifier{}, []byte("test-secret"), time.Hour, 0.5)
	srv := server.New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		acct,
		convo.New(st, st),
		directory.New(st),
		friends.New(st, st),
		st,
	)
	return srv.Router()
}

// call performs a JSON request and decodes the response body into out (when
// out is non-nil).
func call(t *testing.T, app *fiber.App, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup creates an account and publishes a directory entry for it.
func signup(t *testing.T, app *fiber.App, name string) domain.Session {
	t.Helper()

	var sess domain.Session
	status := call(t, app, http.MethodPost, "/signup", "", fiber.Map{
		"email":          name + "@example.com",
		"password":       "correct horse",
		"challengeToken": "tok",
	}, &sess)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, sess.UID)
	require.NotEmpty(t, sess.Token)

	status = call(t, app, http.MethodPut, "/directory", sess.Token, domain.DirectoryEntry{
		UID:         sess.UID,
		PublicKey:   domain.ArmoredKey("key-" + name),
		DisplayName: name,
	}, nil)
	require.Equal(t, http.StatusNoContent, status)
	return sess
}

func TestSignup_ChallengeGate(t *testing.T) {
	app := newApp(t)
	status := call(t, app, http.MethodPost, "/signup", "", fiber.Map{
		"email":          "bot@example.com",
		"password":       "correct horse",
		"challengeToken": "bot",
	}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestAuth_Rejections(t *testing.T) {
	app := newApp(t)

	status := call(t, app, http.MethodGet, "/conversations?mode=pending", "", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status = call(t, app, http.MethodGet, "/conversations?mode=pending", "not.a.jwt", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestLogin(t *testing.T) {
	app := newApp(t)
	sess := signup(t, app, "alice")

	var again domain.Session
	status := call(t, app, http.MethodPost, "/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "correct horse",
	}, &again)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, sess.UID, again.UID)

	status = call(t, app, http.MethodPost, "/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestDirectory_OwnerOnlyPublish(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	status := call(t, app, http.MethodPut, "/directory", alice.Token, domain.DirectoryEntry{
		UID:       bob.UID,
		PublicKey: "forged",
	}, nil)
	require.Equal(t, http.StatusForbidden, status)

	// Bob's real entry is untouched.
	var entry domain.DirectoryEntry
	status = call(t, app, http.MethodGet, "/directory/"+bob.UID.String(), alice.Token, nil, &entry)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, domain.ArmoredKey("key-bob"), entry.PublicKey)
}

func TestDirectory_BatchPlaceholders(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")

	var out struct {
		Entries map[domain.UID]domain.DirectoryEntry `json:"entries"`
	}
	status := call(t, app, http.MethodPost, "/directory/batch", alice.Token, fiber.Map{
		"uids": []domain.UID{alice.UID, "ghost-uid"},
	}, &out)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, out.Entries, 2)
	require.False(t, out.Entries[alice.UID].Placeholder)
	require.True(t, out.Entries["ghost-uid"].Placeholder)
}

func TestInvite_PublicSnapshot(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")

	// No token needed.
	var entry domain.DirectoryEntry
	status := call(t, app, http.MethodGet, "/invite/"+alice.UID.String(), "", nil, &entry)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, alice.UID, entry.UID)

	status = call(t, app, http.MethodGet, "/invite/ghost", "", nil, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestConversations_RequestApproveFlow(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	type convResp struct {
		ConvID domain.ConversationID `json:"convId"`
		State  domain.ApprovalState  `json:"state"`
	}

	body := fiber.Map{"participants": []domain.UID{alice.UID, bob.UID}}

	var created convResp
	status := call(t, app, http.MethodPost, "/conversations", alice.Token, body, &created)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, domain.PairID(alice.UID, bob.UID), created.ConvID)
	require.Equal(t, domain.AwaitingPeer, created.State)

	// Repeat request, either caller: same id, 200.
	var again convResp
	status = call(t, app, http.MethodPost, "/conversations", bob.Token, body, &again)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, created.ConvID, again.ConvID)
	require.Equal(t, domain.AwaitingMe, again.State)

	// Bob sees it pending, approves, then both see it approved.
	var listing struct {
		Conversations []convResp `json:"conversations"`
	}
	status = call(t, app, http.MethodGet, "/conversations?mode=pending", bob.Token, nil, &listing)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, listing.Conversations, 1)

	status = call(t, app, http.MethodPatch, "/conversations", bob.Token, fiber.Map{"convId": created.ConvID}, nil)
	require.Equal(t, http.StatusNoContent, status)

	for _, tok := range []string{alice.Token, bob.Token} {
		listing.Conversations = nil
		status = call(t, app, http.MethodGet, "/conversations?mode=approved", tok, nil, &listing)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, listing.Conversations, 1)
		require.Equal(t, domain.Ready, listing.Conversations[0].State)
	}
}

func TestConversations_Validation(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	cases := []struct {
		name         string
		participants []domain.UID
		want         int
	}{
		{"self pair", []domain.UID{alice.UID, alice.UID}, http.StatusBadRequest},
		{"caller excluded", []domain.UID{bob.UID, "other"}, http.StatusBadRequest},
		{"one participant", []domain.UID{alice.UID}, http.StatusBadRequest},
		{"unknown peer", []domain.UID{alice.UID, "ghost"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := call(t, app, http.MethodPost, "/conversations", alice.Token,
				fiber.Map{"participants": tc.participants}, nil)
			require.Equal(t, tc.want, status)
		})
	}
}

func TestConversations_ApproveOutsider(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")
	eve := signup(t, app, "eve")

	var created struct {
		ConvID domain.ConversationID `json:"convId"`
	}
	status := call(t, app, http.MethodPost, "/conversations", alice.Token,
		fiber.Map{"participants": []domain.UID{alice.UID, bob.UID}}, &created)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, app, http.MethodPatch, "/conversations", eve.Token,
		fiber.Map{"convId": created.ConvID}, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestMessages_SendHistoryRead(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	var created struct {
		ConvID domain.ConversationID `json:"convId"`
	}
	status := call(t, app, http.MethodPost, "/conversations", alice.Token,
		fiber.Map{"participants": []domain.UID{alice.UID, bob.UID}}, &created)
	require.Equal(t, http.StatusCreated, status)
	base := "/messages/" + string(created.ConvID)

	// Not yet fully approved.
	status = call(t, app, http.MethodPost, base, alice.Token, fiber.Map{"cipherText": "sealed-1"}, nil)
	require.Equal(t, http.StatusForbidden, status)

	status = call(t, app, http.MethodPatch, "/conversations", bob.Token, fiber.Map{"convId": created.ConvID}, nil)
	require.Equal(t, http.StatusNoContent, status)

	var sent domain.Message
	status = call(t, app, http.MethodPost, base, alice.Token, fiber.Map{"cipherText": "sealed-1"}, &sent)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, alice.UID, sent.Sender)
	require.Equal(t, []domain.UID{alice.UID}, sent.ReadBy)
	require.False(t, sent.Timestamp.IsZero())

	status = call(t, app, http.MethodPost, base, bob.Token, fiber.Map{"cipherText": "sealed-2"}, nil)
	require.Equal(t, http.StatusCreated, status)

	var history struct {
		Messages []domain.Message `json:"messages"`
	}
	status = call(t, app, http.MethodGet, base, bob.Token, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history.Messages, 2)
	require.True(t, history.Messages[0].Seq < history.Messages[1].Seq)

	// Bob marks alice's message read; the union now holds both.
	status = call(t, app, http.MethodPost, base+"/read", bob.Token, fiber.Map{"messageId": sent.ID}, nil)
	require.Equal(t, http.StatusNoContent, status)

	history.Messages = nil
	status = call(t, app, http.MethodGet, base, alice.Token, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.ElementsMatch(t, []domain.UID{alice.UID, bob.UID}, history.Messages[0].ReadBy)

	// Outsiders get nothing.
	eve := signup(t, app, "eve")
	status = call(t, app, http.MethodGet, base, eve.Token, nil, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestFriends_Flow(t *testing.T) {
	app := newApp(t)
	alice := signup(t, app, "alice")
	bob := signup(t, app, "bob")

	status := call(t, app, http.MethodPost, "/friends/request", alice.Token,
		fiber.Map{"to": bob.UID}, nil)
	require.Equal(t, http.StatusNoContent, status)

	var reqs struct {
		Requests []domain.FriendRequest `json:"requests"`
	}
	status = call(t, app, http.MethodGet, "/friends/requests", bob.Token, nil, &reqs)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, reqs.Requests, 1)
	require.Equal(t, alice.UID, reqs.Requests[0].From)

	status = call(t, app, http.MethodPost, "/friends/respond", bob.Token,
		fiber.Map{"from": alice.UID, "accept": true}, nil)
	require.Equal(t, http.StatusNoContent, status)

	for i, tok := range []string{alice.Token, bob.Token} {
		var list struct {
			Friends []domain.Friend `json:"friends"`
		}
		status = call(t, app, http.MethodGet, "/friends", tok, nil, &list)
		require.Equal(t, http.StatusOK, status, fmt.Sprintf("side %d", i))
		require.Len(t, list.Friends, 1)
	}
}
