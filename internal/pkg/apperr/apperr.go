package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for HTTP mapping and retry policy.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidState
	KindQuotaExceeded
	KindBadRequest
	KindExternal // transient upstream failure, caller may retry
)

// Error carries a kind plus a user-facing message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Code: "invalid_state", Message: msg}
}

func QuotaExceeded(msg string) *Error {
	return &Error{Kind: KindQuotaExceeded, Code: "quota_exceeded", Message: msg}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Code: "bad_request", Message: msg}
}

func External(msg string, err error) *Error {
	return &Error{Kind: KindExternal, Code: "external_service_failure", Message: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_server_error", Message: msg, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the API surfaces.
func HTTPStatus(err error) int {
	var ae *Error
	if !errors.As(err, &ae) {
		return fiber.StatusInternalServerError
	}
	switch ae.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidState, KindBadRequest:
		return fiber.StatusBadRequest
	case KindQuotaExceeded:
		return fiber.StatusForbidden
	case KindExternal:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes the canonical error envelope for err.
func Respond(c *fiber.Ctx, err error) error {
	var ae *Error
	if !errors.As(err, &ae) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Unexpected error",
		})
	}
	return c.Status(HTTPStatus(ae)).JSON(fiber.Map{"error": ae.Code, "message": ae.Message})
}
