package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"whisperchat/internal/accounts"
	"whisperchat/internal/domain"
	"whisperchat/internal/friends"
	"whisperchat/pkg/apperr"
)

// httpError is the JSON error body every failing handler returns.
type httpError struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// fail writes err as a JSON error response with the mapped status.
func fail(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	return c.Status(status).JSON(httpError{Code: code, Message: err.Error()})
}

// classify maps service errors to an HTTP status and a wire code. Domain
// sentinels take priority; anything unrecognised is a 500.
func classify(err error) (int, apperr.Code) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, apperr.CodeNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict, apperr.CodeAlreadyExists
	case errors.Is(err, domain.ErrNotParticipant):
		return fiber.StatusForbidden, apperr.CodePermissionDenied
	case errors.Is(err, domain.ErrNotApproved):
		return fiber.StatusForbidden, apperr.CodeFailedPrecondition
	case errors.Is(err, domain.ErrInvalidUID),
		errors.Is(err, domain.ErrSelfConversation),
		errors.Is(err, friends.ErrSelfFriend),
		errors.Is(err, accounts.ErrChallengeFailed):
		return fiber.StatusBadRequest, apperr.CodeInvalidArgument
	case errors.Is(err, accounts.ErrBadCredentials),
		errors.Is(err, accounts.ErrInvalidToken):
		return fiber.StatusUnauthorized, apperr.CodeUnauthenticated
	}

	switch apperr.CodeOf(err) {
	case apperr.CodeInvalidArgument:
		return fiber.StatusBadRequest, apperr.CodeInvalidArgument
	case apperr.CodeNotFound:
		return fiber.StatusNotFound, apperr.CodeNotFound
	case apperr.CodeAlreadyExists:
		return fiber.StatusConflict, apperr.CodeAlreadyExists
	case apperr.CodeUnauthenticated:
		return fiber.StatusUnauthorized, apperr.CodeUnauthenticated
	case apperr.CodePermissionDenied:
		return fiber.StatusForbidden, apperr.CodePermissionDenied
	case apperr.CodeFailedPrecondition:
		return fiber.StatusConflict, apperr.CodeFailedPrecondition
	}
	return fiber.StatusInternalServerError, apperr.CodeInternal
}
