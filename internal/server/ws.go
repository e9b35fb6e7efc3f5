package server

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"whisperchat/internal/domain"
)

// feedFrame is one websocket message on the live feed. Exactly one of the
// fields is set; an error frame is terminal and the client resubscribes.
type feedFrame struct {
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// upgradeWS gates the feed endpoint: the caller must be a participant and
// the request must be a websocket upgrade.
func (s *Server) upgradeWS(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id := domain.ConversationID(c.Params("convId"))
	if _, err := s.convos.Get(c.Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.Next()
}

// handleMessageFeed streams the conversation to the client: full history in
// order first, then live appends and read-set updates, until the client
// disconnects or the store fails.
func (s *Server) handleMessageFeed(conn *websocket.Conn) {
	id := domain.ConversationID(conn.Params("convId"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain the read side so client close frames cancel the watch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events, err := s.messages.Watch(ctx, id)
	if err != nil {
		_ = conn.WriteJSON(feedFrame{Error: err.Error()})
		return
	}

	for ev := range events {
		if ev.Err != nil {
			_ = conn.WriteJSON(feedFrame{Error: ev.Err.Error()})
			return
		}
		msg := ev.Message
		if err := conn.WriteJSON(feedFrame{Message: &msg}); err != nil {
			return
		}
	}
}
