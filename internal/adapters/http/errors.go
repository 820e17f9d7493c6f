package http

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, upstream_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
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

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, code, msg string) error {
	return newError(c, 503, code, msg)
}

// errFromDomain maps a usecase error to its HTTP status.
func errFromDomain(c *fiber.Ctx, err error) error {
	status, code, msg := classify(c, err)
	return newError(c, status, code, msg)
}

// classify picks the status, code and message reported for err.
func classify(c *fiber.Ctx, err error) (int, string, string) {
	var (
		validation *domain.ValidationError
		fileAccess *domain.FileAccessError
		provider   *domain.ProviderError
	)
	switch {
	case errors.As(err, &validation):
		return 400, "bad_request", validation.Error()
	case errors.As(err, &fileAccess):
		LoggerFromCtx(c.UserContext()).Error("dataset unavailable", "path", fileAccess.Path, "error", fileAccess.Err)
		return 503, "dataset_unavailable", "fire dataset could not be read"
	case errors.Is(err, domain.ErrMissingAPIKey):
		return 503, "provider_unavailable", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return 404, "not_found", err.Error()
	case errors.As(err, &provider):
		LoggerFromCtx(c.UserContext()).Warn("provider call failed",
			slog.String("provider", provider.Provider),
			slog.String("op", provider.Op),
			slog.Int("status", provider.StatusCode),
			slog.Any("error", provider.Err),
		)
		return 502, "upstream_error", provider.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return 504, "timeout", "request timed out"
	default:
		return 500, "internal_error", err.Error()
	}
}
