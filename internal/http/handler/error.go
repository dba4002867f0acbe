package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"libraryapi/internal/http/middleware"
	"libraryapi/internal/repository"
)

// errorPayload defines the standardized error response body.
// Message is the human-readable summary every failure carries.
type errorPayload struct {
	Message   string        `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code   string                  `json:"code"`
	Detail string                  `json:"detail,omitempty"`
	Fields []repository.FieldError `json:"fields,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "NOT_FOUND", "VALIDATION_ERROR", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorEnvelope(c, status, message, errorEnvelope{Code: code})
}

func writeErrorEnvelope(c *fiber.Ctx, status int, message string, env errorEnvelope) error {
	return c.Status(status).JSON(errorPayload{
		Message:   message,
		RequestID: requestIDFromCtx(c),
		Error:     env,
	})
}

// ErrorHandler returns a Fiber global error handler that standardizes router-level errors.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusInternalServerError:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}

		text := utils.StatusMessage(status)
		if text == "" {
			if status < fiber.StatusInternalServerError {
				return writeError(c, status, "CLIENT_ERROR", "client error")
			}
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
		// 413 -> REQUEST_ENTITY_TOO_LARGE / "request entity too large"
		code := strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_").Replace(text))
		return writeError(c, status, code, strings.ToLower(text))
	}
}
