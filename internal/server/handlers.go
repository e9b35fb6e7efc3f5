package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"whisperchat/internal/domain"
	"whisperchat/pkg/apperr"
)

// conversationView is a conversation plus the approval state as seen by the
// caller, so clients can render "awaiting me" vs "awaiting them" directly.
type conversationView struct {
	domain.Conversation
	State domain.ApprovalState `json:"state"`
}

func viewFor(conv domain.Conversation, uid domain.UID) conversationView {
	return conversationView{Conversation: conv, State: conv.StateFor(uid)}
}

// ---------- accounts ----------

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var body struct {
		Email          string `json:"email"`
		Password       string `json:"password"`
		ChallengeToken string `json:"challengeToken"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, apperr.InvalidArg("malformed signup body"))
	}
	sess, err := s.accounts.Signup(c.Context(), body.Email, body.Password, body.ChallengeToken)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, apperr.InvalidArg("malformed login body"))
	}
	sess, err := s.accounts.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess)
}

// ---------- directory ----------

func (s *Server) handlePublish(c *fiber.Ctx) error {
	var entry domain.DirectoryEntry
	if err := c.BodyParser(&entry); err != nil {
		return fail(c, apperr.InvalidArg("malformed directory entry"))
	}
	// Owner-only writes: the entry key is always the authenticated caller.
	if entry.UID != "" && entry.UID != caller(c) {
		return fail(c, apperr.Forbidden("cannot publish another user's entry"))
	}
	entry.UID = caller(c)
	entry.Placeholder = false
	if err := s.directory.Publish(c.Context(), entry); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleLookup(c *fiber.Ctx) error {
	entry, err := s.directory.Lookup(c.Context(), domain.UID(c.Params("uid")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entry)
}

func (s *Server) handleBatchLookup(c *fiber.Ctx) error {
	var body struct {
		UIDs []domain.UID `json:"uids"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fail(c, apperr.InvalidArg("malformed batch body"))
	}
	entries, err := s.directory.BatchLookup(c.Context(), body.UIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// handleInvite serves the directory snapshot behind an invite link. Public:
// an invitee has no token yet.
func (s *Server) handleInvite(c *fiber.Ctx) error {
	entry, err := s.directory.Lookup(c.Context(), domain.UID(c.Params("uid")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entry)
}

// ---------- conversations ----------

func (s *Server) handleRequestConversation(c *fiber.Ctx) error {
	var body struct {
		Participants []domain.UID `json:"participants"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.Participants) != 2 {
		return fail(c, apperr.InvalidArg("participants must name exactly two uids"))
	}

	me := caller(c)
	var peer domain.UID
	switch {
	case body.Participants[0] == me:
		peer = body.Participants[1]
	case body.Participants[1] == me:
		peer = body.Participants[0]
	default:
		return fail(c, apperr.InvalidArg("caller must be a participant"))
	}

	conv, created, err := s.convos.Request(c.Context(), me, peer)
	if err != nil {
		return fail(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(viewFor(conv, me))
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	me := caller(c)

	var (
		convs []domain.Conversation
		err   error
	)
	switch mode := c.Query("mode"); mode {
	case "pending":
		convs, err = s.convos.ListPending(c.Context(), me)
	case "approved":
		convs, err = s.convos.ListApproved(c.Context(), me)
	case "awaiting_peer":
		convs, err = s.convos.ListAwaitingPeer(c.Context(), me)
	default:
		return fail(c, apperr.InvalidArg("mode must be pending, approved or awaiting_peer"))
	}
	if err != nil {
		return fail(c, err)
	}

	views := make([]conversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, viewFor(conv, me))
	}
	return c.JSON(fiber.Map{"conversations": views})
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	conv, err := s.convos.Get(c.Context(), caller(c), domain.ConversationID(c.Params("id")))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(viewFor(conv, caller(c)))
}

func (s *Server) handleApprove(c *fiber.Ctx) error {
	var body struct {
		ConvID domain.ConversationID `json:"convId"`
	}
	if err := c.BodyParser(&body); err != nil || body.ConvID == "" {
		return fail(c, apperr.InvalidArg("convId required"))
	}
	if err := s.convos.Approve(c.Context(), caller(c), body.ConvID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- messages ----------

// requireApproved loads the conversation and checks the caller may exchange
// messages in it.
func (s *Server) requireApproved(c *fiber.Ctx, id domain.ConversationID) (domain.Conversation, error) {
	conv, err := s.convos.Get(c.Context(), caller(c), id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.FullyApproved() {
		return domain.Conversation{}, domain.ErrNotApproved
	}
	return conv, nil
}

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	id := domain.ConversationID(c.Params("convId"))
	if _, err := s.requireApproved(c, id); err != nil {
		return fail(c, err)
	}

	var body struct {
		CipherText domain.ArmoredMessage `json:"cipherText"`
	}
	if err := c.BodyParser(&body); err != nil || body.CipherText == "" {
		return fail(c, apperr.InvalidArg("cipherText required"))
	}

	me := caller(c)
	msg, err := s.messages.Append(c.Context(), domain.Message{
		ID:             domain.MessageID(uuid.NewString()),
		ConversationID: id,
		Sender:         me,
		CipherText:     body.CipherText,
		ReadBy:         []domain.UID{me},
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	id := domain.ConversationID(c.Params("convId"))
	// History is readable as soon as you participate, approved or not; there
	// is simply nothing in it before approval.
	if _, err := s.convos.Get(c.Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	msgs, err := s.messages.ListMessages(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (s *Server) handleMarkRead(c *fiber.Ctx) error {
	id := domain.ConversationID(c.Params("convId"))
	if _, err := s.convos.Get(c.Context(), caller(c), id); err != nil {
		return fail(c, err)
	}

	var body struct {
		MessageID domain.MessageID `json:"messageId"`
	}
	if err := c.BodyParser(&body); err != nil || body.MessageID == "" {
		return fail(c, apperr.InvalidArg("messageId required"))
	}
	if err := s.messages.MarkRead(c.Context(), id, body.MessageID, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ---------- friends ----------

func (s *Server) handleAddFriend(c *fiber.Ctx) error {
	var body struct {
		UID domain.UID `json:"uid"`
	}
	if err := c.BodyParser(&body); err != nil || body.UID == "" {
		return fail(c, apperr.InvalidArg("uid required"))
	}
	if err := s.friends.Add(c.Context(), caller(c), body.UID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleFriendRequest(c *fiber.Ctx) error {
	var body struct {
		To domain.UID `json:"to"`
	}
	if err := c.BodyParser(&body); err != nil || body.To == "" {
		return fail(c, apperr.InvalidArg("to required"))
	}
	if err := s.friends.SendRequest(c.Context(), caller(c), body.To); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleFriendRespond(c *fiber.Ctx) error {
	var body struct {
		From   domain.UID `json:"from"`
		Accept bool       `json:"accept"`
	}
	if err := c.BodyParser(&body); err != nil || body.From == "" {
		return fail(c, apperr.InvalidArg("from required"))
	}
	if err := s.friends.Respond(c.Context(), caller(c), body.From, body.Accept); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListFriends(c *fiber.Ctx) error {
	list, err := s.friends.List(c.Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"friends": list})
}

func (s *Server) handleListFriendRequests(c *fiber.Ctx) error {
	reqs, err := s.friends.Requests(c.Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"requests": reqs})
}
