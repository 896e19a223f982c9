package server

import (
	"fmt"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

type messageForm struct {
	Text string `form:"text"`
}

// NewMessageForm renders the compose page.
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	return s.render(c, "messages/new", fiber.Map{"Title": "New message", "Form": messageForm{}})
}

// CreateMessage posts a message as the current user.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	var form messageForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}
	me := middleware.CurrentUser(c)

	if _, err := s.messageService.CreateMessage(c.UserContext(), me.ID, form.Text); err != nil {
		if models.HasCode(err, models.ErrCodeValidation) {
			return s.render(c, "messages/new", fiber.Map{"Title": "New message", "Form": form}, danger(errorMessage(err)))
		}
		return err
	}
	return c.Redirect(fmt.Sprintf("/users/%d", me.ID))
}

// ShowMessage renders a single message.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	msg, err := s.messageService.GetMessage(c.UserContext(), id)
	if err != nil {
		return s.handleError(c, err)
	}
	return s.render(c, "messages/show", fiber.Map{"Title": "Message", "Message": msg})
}

// DeleteMessage deletes a message owned by the current user.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	me := middleware.CurrentUser(c)
	if err := s.messageService.DeleteMessage(c.UserContext(), me.ID, id); err != nil {
		return s.handleError(c, err)
	}
	s.flash(c, session.CategorySuccess, "Message successfully deleted.")
	return c.Redirect(fmt.Sprintf("/users/%d", me.ID))
}

// LikeMessage likes a message and returns to the previous page.
func (s *Server) LikeMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likeService.Like(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return s.handleError(c, err)
	}
	return c.RedirectBack("/")
}

// UnlikeMessage removes the current user's like.
func (s *Server) UnlikeMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.likeService.Unlike(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return s.handleError(c, err)
	}
	return c.RedirectBack("/")
}
