package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"whisperchat/internal/domain"
	"whisperchat/pkg/apperr"
)

// HTTPClient talks to a whisperd server. UID and Token are set after
// Signup or Login; every authenticated call sends the bearer token.
type HTTPClient struct {
	Base  string
	UID   domain.UID
	Token string
	HTTP  *http.Client
}

// NewHTTP returns a client for the server at base.
func NewHTTP(base string) *HTTPClient {
	return &HTTPClient{Base: base, HTTP: http.DefaultClient}
}

var _ domain.RelayClient = (*HTTPClient)(nil)

// SetSession installs the identity used for authenticated calls.
func (c *HTTPClient) SetSession(sess domain.Session) {
	c.UID = sess.UID
	c.Token = sess.Token
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, challengeToken string) (domain.Session, error) {
	var sess domain.Session
	_, err := c.do(ctx, http.MethodPost, "/signup", map[string]string{
		"email":          email,
		"password":       password,
		"challengeToken": challengeToken,
	}, &sess)
	if err != nil {
		return domain.Session{}, err
	}
	c.SetSession(sess)
	return sess, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var sess domain.Session
	_, err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &sess)
	if err != nil {
		return domain.Session{}, err
	}
	c.SetSession(sess)
	return sess, nil
}

func (c *HTTPClient) PublishKey(ctx context.Context, entry domain.DirectoryEntry) error {
	_, err := c.do(ctx, http.MethodPut, "/directory", entry, nil)
	return err
}

func (c *HTTPClient) Lookup(ctx context.Context, uid domain.UID) (domain.DirectoryEntry, error) {
	var entry domain.DirectoryEntry
	_, err := c.do(ctx, http.MethodGet, "/directory/"+url.PathEscape(uid.String()), nil, &entry)
	return entry, err
}

func (c *HTTPClient) BatchLookup(ctx context.Context, uids []domain.UID) (map[domain.UID]domain.DirectoryEntry, error) {
	var out struct {
		Entries map[domain.UID]domain.DirectoryEntry `json:"entries"`
	}
	_, err := c.do(ctx, http.MethodPost, "/directory/batch", map[string]any{"uids": uids}, &out)
	return out.Entries, err
}

func (c *HTTPClient) Invite(ctx context.Context, uid domain.UID) (domain.DirectoryEntry, error) {
	var entry domain.DirectoryEntry
	_, err := c.do(ctx, http.MethodGet, "/invite/"+url.PathEscape(uid.String()), nil, &entry)
	return entry, err
}

func (c *HTTPClient) RequestConversation(ctx context.Context, peer domain.UID) (domain.ConversationID, bool, error) {
	var conv domain.Conversation
	status, err := c.do(ctx, http.MethodPost, "/conversations", map[string]any{
		"participants": []domain.UID{c.UID, peer},
	}, &conv)
	if err != nil {
		return "", false, err
	}
	return conv.ID, status == http.StatusCreated, nil
}

func (c *HTTPClient) ApproveConversation(ctx context.Context, id domain.ConversationID) error {
	_, err := c.do(ctx, http.MethodPatch, "/conversations", map[string]any{"convId": id}, nil)
	return err
}

func (c *HTTPClient) Conversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	var conv domain.Conversation
	_, err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(string(id)), nil, &conv)
	return conv, err
}

func (c *HTTPClient) Conversations(ctx context.Context, mode string) ([]domain.Conversation, error) {
	var out struct {
		Conversations []domain.Conversation `json:"conversations"`
	}
	_, err := c.do(ctx, http.MethodGet, "/conversations?mode="+url.QueryEscape(mode), nil, &out)
	return out.Conversations, err
}

func (c *HTTPClient) SendMessage(ctx context.Context, id domain.ConversationID, cipher domain.ArmoredMessage) (domain.Message, error) {
	var msg domain.Message
	_, err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(string(id)), map[string]any{
		"cipherText": cipher,
	}, &msg)
	return msg, err
}

func (c *HTTPClient) History(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	var out struct {
		Messages []domain.Message `json:"messages"`
	}
	_, err := c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(string(id)), nil, &out)
	return out.Messages, err
}

func (c *HTTPClient) MarkRead(ctx context.Context, id domain.ConversationID, msg domain.MessageID) error {
	_, err := c.do(ctx, http.MethodPost, "/messages/"+url.PathEscape(string(id))+"/read", map[string]any{
		"messageId": msg,
	}, nil)
	return err
}

func (c *HTTPClient) AddFriend(ctx context.Context, uid domain.UID) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/add", map[string]any{"uid": uid}, nil)
	return err
}

func (c *HTTPClient) SendFriendRequest(ctx context.Context, to domain.UID) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/request", map[string]any{"to": to}, nil)
	return err
}

func (c *HTTPClient) RespondFriendRequest(ctx context.Context, from domain.UID, accept bool) error {
	_, err := c.do(ctx, http.MethodPost, "/friends/respond", map[string]any{
		"from":   from,
		"accept": accept,
	}, nil)
	return err
}

func (c *HTTPClient) ListFriends(ctx context.Context) ([]domain.Friend, error) {
	var out struct {
		Friends []domain.Friend `json:"friends"`
	}
	_, err := c.do(ctx, http.MethodGet, "/friends", nil, &out)
	return out.Friends, err
}

// do performs one JSON round trip and returns the response status. Non-2xx
// responses are decoded and mapped back to domain errors.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return 0, err
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, decodeError(method, path, resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("relay %s %s: decode response: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// decodeError turns a server error body back into a domain sentinel where
// one applies, so errors.Is works the same against the relay as it does
// against a local store.
func decodeError(method, path string, resp *http.Response) error {
	var body struct {
		Code    apperr.Code `json:"code"`
		Message string      `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("relay %s %s: %s", method, path, resp.Status)
	}

	var sentinel error
	switch body.Code {
	case apperr.CodeNotFound:
		sentinel = domain.ErrNotFound
	case apperr.CodeAlreadyExists:
		sentinel = domain.ErrAlreadyExists
	case apperr.CodePermissionDenied:
		sentinel = domain.ErrNotParticipant
	case apperr.CodeFailedPrecondition:
		sentinel = domain.ErrNotApproved
	}
	if sentinel != nil {
		return fmt.Errorf("relay %s %s: %s: %w", method, path, body.Message, sentinel)
	}
	return apperr.Wrap(body.Code, fmt.Sprintf("relay %s %s", method, path), fmt.Errorf("%s", body.Message))
}
