// Package middleware provides request logging, tracing and session resolution for the HTTP layer.
package middleware

import (
	"context"
	"strings"

	"strider/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "strider_session"

	UserIDLocal = "userID"
	TokenLocal  = "sessionToken"
)

// SessionResolver maps a session token to the user it belongs to.
type SessionResolver interface {
	GetUser(ctx context.Context, token string) (uuid.UUID, error)
	IsLoggedOut(ctx context.Context, token string) error
}

// SessionToken reads the session token from the cookie, falling back to a Bearer header.
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookie); token != "" {
		return token
	}
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireSession rejects requests without a live session and stores the caller's id in
// c.Locals(UserIDLocal) and the request context.
func RequireSession(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return models.NewUnauthenticatedError("You must be logged in")
		}

		userID, err := sessions.GetUser(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(UserIDLocal, userID)
		c.Locals(TokenLocal, token)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
		return c.Next()
	}
}

// RequireLoggedOut rejects requests that already carry a live session.
func RequireLoggedOut(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := SessionToken(c); token != "" {
			if err := sessions.IsLoggedOut(c.UserContext(), token); err != nil {
				return err
			}
		}
		return c.Next()
	}
}

// CurrentUser returns the id RequireSession stored for this request.
func CurrentUser(c *fiber.Ctx) (uuid.UUID, error) {
	uid, ok := c.Locals(UserIDLocal).(uuid.UUID)
	if !ok || uid == uuid.Nil {
		return uuid.Nil, models.NewUnauthenticatedError("You must be logged in")
	}
	return uid, nil
}

// CurrentToken returns the session token RequireSession accepted.
func CurrentToken(c *fiber.Ctx) string {
	token, _ := c.Locals(TokenLocal).(string)
	return token
}

func statusOf(err error) int {
	return models.HTTPStatus(err)
}
