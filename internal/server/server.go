package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"whisperchat/internal/accounts"
	"whisperchat/internal/convo"
	"whisperchat/internal/directory"
	"whisperchat/internal/domain"
	"whisperchat/internal/friends"
)

// Server wires the whisperd services behind a fiber app.
type Server struct {
	log       *slog.Logger
	accounts  *accounts.Service
	convos    *convo.Service
	directory *directory.Service
	friends   *friends.Service
	messages  domain.MessageStore
}

// New returns a Server over the given services and message store.
func New(log *slog.Logger, acct *accounts.Service, convos *convo.Service, dir *directory.Service, fr *friends.Service, messages domain.MessageStore) *Server {
	return &Server{
		log:       log,
		accounts:  acct,
		convos:    convos,
		directory: dir,
		friends:   fr,
		messages:  messages,
	}
}

// Router builds the fiber app with all routes mounted.
func (s *Server) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return fail(c, err)
		},
	})
	app.Use(s.requestLogger())

	app.Post("/signup", s.handleSignup)
	app.Post("/login", s.handleLogin)
	app.Get("/invite/:uid", s.handleInvite)

	auth := app.Group("", s.requireAuth)

	auth.Put("/directory", s.handlePublish)
	auth.Get("/directory/:uid", s.handleLookup)
	auth.Post("/directory/batch", s.handleBatchLookup)

	auth.Post("/conversations", s.handleRequestConversation)
	auth.Get("/conversations", s.handleListConversations)
	auth.Get("/conversations/:id", s.handleGetConversation)
	auth.Patch("/conversations", s.handleApprove)

	auth.Post("/messages/:convId", s.handleSendMessage)
	auth.Get("/messages/:convId", s.handleHistory)
	auth.Post("/messages/:convId/read", s.handleMarkRead)

	auth.Get("/ws/messages/:convId", s.upgradeWS, websocket.New(s.handleMessageFeed))

	auth.Post("/friends/add", s.handleAddFriend)
	auth.Post("/friends/request", s.handleFriendRequest)
	auth.Post("/friends/respond", s.handleFriendRespond)
	auth.Get("/friends", s.handleListFriends)
	auth.Get("/friends/requests", s.handleListFriendRequests)

	return app
}

// requireAuth resolves the bearer token to the caller's uid. Websocket
// clients cannot set headers from a browser, so a token query parameter is
// accepted as a fallback.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return fail(c, accounts.ErrInvalidToken)
	}
	uid, err := s.accounts.Resolve(token)
	if err != nil {
		return fail(c, err)
	}
	c.Locals("uid", uid)
	return c.Next()
}

func caller(c *fiber.Ctx) domain.UID {
	uid, _ := c.Locals("uid").(domain.UID)
	return uid
}

func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		s.log.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}
