package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fasthttp/websocket"

	"whisperchat/internal/domain"
)

// feedFrame mirrors the server's websocket framing.
type feedFrame struct {
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// wsURL rewrites the HTTP base into the websocket feed address for id. The
// token rides a query parameter because browser websockets cannot set
// headers; the Go dialer does the same for parity.
func (c *HTTPClient) wsURL(id domain.ConversationID) string {
	base := c.Base
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws/messages/" + url.PathEscape(string(id)) + "?token=" + url.QueryEscape(c.Token)
}

// WatchMessages opens the live feed for id: full history first, then live
// records, until ctx is cancelled or the server closes the connection. A
// server-sent error frame terminates the channel with that error.
func (c *HTTPClient) WatchMessages(ctx context.Context, id domain.ConversationID) (<-chan domain.MessageEvent, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("dial message feed: %w", err)
	}

	out := make(chan domain.MessageEvent)
	go func() {
		defer close(out)
		defer conn.Close()

		// Close the connection when the caller walks away, which unblocks
		// ReadJSON below.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		for {
			var frame feedFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				select {
				case out <- domain.MessageEvent{Err: fmt.Errorf("message feed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			if frame.Error != "" {
				select {
				case out <- domain.MessageEvent{Err: errors.New(frame.Error)}:
				case <-ctx.Done():
				}
				return
			}
			if frame.Message == nil {
				continue
			}
			select {
			case out <- domain.MessageEvent{Message: *frame.Message}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
