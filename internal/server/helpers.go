package server

import (
	"errors"
	"log/slog"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// viewData merges data over the keys every template expects.
func (s *Server) viewData(c *fiber.Ctx, data fiber.Map, extra ...session.Flash) fiber.Map {
	flashes, err := s.sessions.PopFlashes(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "reading flashes failed", slog.String("error", err.Error()))
	}
	flashes = append(flashes, extra...)

	csrfToken, _ := c.Locals(csrfContextKey).(string)

	view := fiber.Map{
		"Title":        "",
		"Query":        "",
		"Flashes":      flashes,
		"CSRF":         csrfToken,
		"CurrentUser":  middleware.CurrentUser(c),
		"Liked":        map[uint]bool{},
		"FollowingIDs": map[uint]bool{},
	}
	for k, v := range data {
		view[k] = v
	}
	return view
}

// render writes a full page. extra flashes are shown alongside the queued
// ones without touching the session.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map, extra ...session.Flash) error {
	return c.Render(name, s.viewData(c, data, extra...))
}

// parseID extracts a route parameter as a positive uint. On failure it renders
// the 404 page and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = s.notFound(c)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// handleError turns service errors into the matching page or redirect.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errResponseWritten):
		return nil
	case models.HasCode(err, models.ErrCodeNotFound):
		return s.notFound(c)
	case errors.Is(err, models.ErrAccessUnauthorized):
		return middleware.DenyAccess(c, s.sessions)
	default:
		return err
	}
}

func (s *Server) flash(c *fiber.Ctx, category, message string) {
	if err := s.sessions.AddFlash(c, category, message); err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "storing flash failed", slog.String("error", err.Error()))
	}
}

func danger(message string) session.Flash {
	return session.Flash{Category: session.CategoryDanger, Message: message}
}

func success(message string) session.Flash {
	return session.Flash{Category: session.CategorySuccess, Message: message}
}

// errorMessage returns the user-facing text of an AppError.
func errorMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
