package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Success   bool   `json:"success"`
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Error     string `json:"error"`   // Human-readable message
	Message   string `json:"message"` // Same as Error, kept for clients of the original API
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Error:     message,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// writeError maps a core error onto an HTTP error response.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errBadRequest(c, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "not found")
	case errors.Is(err, domain.ErrConflict):
		return errConflict(c, "already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c, "Invalid credentials")
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware turns this into 408
		return err
	case errors.Is(err, domain.ErrDecode):
		LoggerFromCtx(c.UserContext()).Error("stored record failed to decode", "error", err)
		return newError(c, 500, "decode_error", "stored record is corrupt")
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}

// ErrorHandler renders errors that escape handlers, such as fiber's own
// 404, 408 and 413, in the APIError shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	if status >= 500 {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
	return newError(c, status, codeForStatus(status), err.Error())
}

func codeForStatus(status int) string {
	switch status {
	case 400:
		return "bad_request"
	case 401:
		return "unauthorized"
	case 404:
		return "not_found"
	case 405:
		return "method_not_allowed"
	case 408:
		return "timeout"
	case 409:
		return "conflict"
	case 413:
		return "payload_too_large"
	case 426:
		return "upgrade_required"
	case 429:
		return "rate_limited"
	default:
		return "error"
	}
}
