// Package middleware provides logging, tracing, metrics, rate limiting and
// session authentication middleware for the application.
package middleware

import (
	"context"
	"log/slog"

	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals populated by LoadCurrentUser.
const (
	LocalUserID      = "userID"
	LocalCurrentUser = "currentUser"
)

// MsgAccessUnauthorized is flashed whenever a request is refused for lack of
// a login or ownership.
var MsgAccessUnauthorized = models.ErrAccessUnauthorized.Message

// UserLoader resolves a session identity to a user.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// LoadCurrentUser reads the identity key from the session and loads the acting
// user into locals. An identity pointing at a deleted user is cleared.
func LoadCurrentUser(sessions *session.Manager, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := sessions.CurrentUserID(c)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "session lookup failed", slog.String("error", err.Error()))
			return c.Next()
		}
		if !ok {
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), id)
		if err != nil {
			if models.HasCode(err, models.ErrCodeNotFound) {
				if logoutErr := sessions.Logout(c); logoutErr != nil {
					return logoutErr
				}
				return c.Next()
			}
			return err
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalCurrentUser, user)
		c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))
		return c.Next()
	}
}

// RequireUser flashes MsgAccessUnauthorized and redirects home when nobody is
// logged in. Must run after LoadCurrentUser.
func RequireUser(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Next()
		}
		return DenyAccess(c, sessions)
	}
}

// DenyAccess flashes MsgAccessUnauthorized and redirects to "/".
func DenyAccess(c *fiber.Ctx, sessions *session.Manager) error {
	if err := sessions.AddFlash(c, session.CategoryDanger, MsgAccessUnauthorized); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// CurrentUser returns the logged-in user, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalCurrentUser).(*models.User)
	return user
}
