package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	userdomain "github.com/immeasurable-vikrant/taskFlow/domain/user"
	"github.com/immeasurable-vikrant/taskFlow/modules/auth"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// SessionMiddleware resolves the session token to a live user. The token is
// read from the session cookie, or from an Authorization Bearer header for
// non-browser clients.
func SessionMiddleware(authAdapter auth.AuthPort) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return unauthorized(c, msgAuthRequired)
		}

		claims, err := authAdapter.ValidateSession(c.UserContext(), token)
		switch {
		case errors.Is(err, auth.ErrInvalidSession):
			return unauthorized(c, msgInvalidSession)
		case err != nil:
			// The session may be fine; the store or the bus is not.
			return respondError(c, err)
		case claims == nil || claims.UserID == "":
			return unauthorized(c, msgInvalidSession)
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookieName); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// currentUser returns the claims stored by SessionMiddleware.
func currentUser(c *fiber.Ctx) (*userdomain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*userdomain.Claims)
	return claims, ok && claims != nil
}
