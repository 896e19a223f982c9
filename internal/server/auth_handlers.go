package server

import (
	"fmt"

	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	ImageURL string `form:"image_url"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// SignupForm renders the signup page.
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return s.render(c, "users/signup", fiber.Map{"Title": "Sign up", "Form": signupForm{}})
}

// Signup creates the account and logs the new user in. Taken usernames or
// emails re-render the form with a message.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form signupForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		form.Password = ""
		data := fiber.Map{"Title": "Sign up", "Form": form}
		if models.HasCode(err, models.ErrCodeIntegrity) || models.HasCode(err, models.ErrCodeValidation) {
			return s.render(c, "users/signup", data, danger(errorMessage(err)))
		}
		return err
	}

	if err := s.sessions.Login(c, user.ID); err != nil {
		return err
	}
	return c.Redirect("/")
}

// LoginForm renders the login page.
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return s.render(c, "users/login", fiber.Map{"Title": "Log in", "Form": loginForm{}})
}

// Login checks credentials and stores the user's id in the session.
func (s *Server) Login(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		if service.IsInvalidCredentials(err) {
			form.Password = ""
			return s.render(c, "users/login", fiber.Map{"Title": "Log in", "Form": form},
				danger(models.ErrInvalidCredentials.Message))
		}
		return err
	}

	if err := s.sessions.Login(c, user.ID, success(fmt.Sprintf("Hello, %s!", user.Username))); err != nil {
		return err
	}
	return c.Redirect("/")
}

// Logout clears the identity key.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.Logout(c, success("You have successfully logged out.")); err != nil {
		return err
	}
	return c.Redirect("/login")
}
