package api

import (
	"log"
	"strings"

	monoerrors "github.com/go-monolith/mono/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// Errors from the auth and todo modules cross the service bus as strings, so
// they are recognized by their sentinel messages.
const invalidInputPrefix = "invalid input: "

var errorTable = []struct {
	match   string
	status  int
	code    string
	message string
}{
	{"todo not found or unauthorized", fiber.StatusNotFound, "not_found", "Todo not found or unauthorized"},
	{"user with this email already exists", fiber.StatusConflict, "conflict", "User with this email already exists"},
	{"invalid email or password", fiber.StatusBadRequest, "invalid_credentials", "Invalid email or password"},
	{"session validation failed", fiber.StatusUnauthorized, "unauthorized", msgInvalidSession},
	{"user not found", fiber.StatusUnauthorized, "unauthorized", msgInvalidSession},
}

const (
	msgAuthRequired   = "Authentication required"
	msgInvalidSession = "Invalid or expired session"
	msgInternal       = "Internal server error"
	msgInvalidBody    = "Invalid request body"
)

// respondError maps a module error to an HTTP response without exposing internals.
func respondError(c *fiber.Ctx, err error) error {
	errStr := errorMessage(err)

	if i := strings.Index(errStr, invalidInputPrefix); i >= 0 {
		return badRequest(c, errStr[i+len(invalidInputPrefix):])
	}

	for _, e := range errorTable {
		if strings.Contains(errStr, e.match) {
			return c.Status(e.status).JSON(ErrorResponse{
				Error:   e.code,
				Message: e.message,
			})
		}
	}

	log.Printf("[api] Internal error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: msgInternal,
	})
}

// errorMessage returns the handler's own message for errors that came back
// over the service bus, without the remote service decoration.
func errorMessage(err error) string {
	if re, ok := monoerrors.GetRemoteError(err); ok {
		return re.Message
	}
	return err.Error()
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// errorHandler handles errors returned by Fiber itself, including recovered panics.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
