package server

import (
	"fmt"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

type profileForm struct {
	Username       string `form:"username"`
	Email          string `form:"email"`
	ImageURL       string `form:"image_url"`
	HeaderImageURL string `form:"header_image_url"`
	Bio            string `form:"bio"`
	Location       string `form:"location"`
	Password       string `form:"password"`
}

// Homepage shows the timeline to logged-in users and the landing page to
// everyone else.
func (s *Server) Homepage(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return s.render(c, "home-anon", fiber.Map{})
	}

	ctx := c.UserContext()
	profile, err := s.userService.GetProfile(ctx, user.ID)
	if err != nil {
		return s.handleError(c, err)
	}
	messages, err := s.messageService.Timeline(ctx, user.ID)
	if err != nil {
		return err
	}
	liked, err := s.likeService.LikedIDs(ctx, user.ID)
	if err != nil {
		return err
	}

	return s.render(c, "home", fiber.Map{
		"Title":    "Home",
		"Profile":  profile,
		"Messages": messages,
		"Liked":    liked,
	})
}

// ListUsers lists users, filtered by the q query parameter.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	q := c.Query("q")
	users, err := s.userService.SearchUsers(c.UserContext(), q)
	if err != nil {
		return err
	}
	following, err := s.followService.FollowingIDs(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}

	return s.render(c, "users/index", fiber.Map{
		"Title":        "Users",
		"Query":        q,
		"Users":        users,
		"FollowingIDs": following,
	})
}

// profileData loads the header shared by the profile pages.
func (s *Server) profileData(c *fiber.Ctx) (fiber.Map, error) {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil, err
	}

	ctx := c.UserContext()
	profile, err := s.userService.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	data := fiber.Map{
		"Title":   "@" + profile.User.Username,
		"Profile": profile,
	}

	if viewer := middleware.CurrentUser(c); viewer != nil {
		following, err := s.followService.FollowingIDs(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		followsYou, err := s.followService.IsFollowedBy(ctx, viewer.ID, id)
		if err != nil {
			return nil, err
		}
		liked, err := s.likeService.LikedIDs(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
		data["FollowingIDs"] = following
		data["IsFollowing"] = following[id]
		data["FollowsYou"] = followsYou && viewer.ID != id
		data["Liked"] = liked
	}
	return data, nil
}

// ShowUser renders a profile with the user's messages.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return s.handleError(c, err)
	}
	profile := data["Profile"].(*service.Profile)

	messages, err := s.messageService.UserMessages(c.UserContext(), profile.User.ID)
	if err != nil {
		return err
	}
	data["Messages"] = messages
	return s.render(c, "users/show", data)
}

// ShowFollowing lists the users this user follows.
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return s.handleError(c, err)
	}
	profile := data["Profile"].(*service.Profile)

	users, err := s.followService.Following(c.UserContext(), profile.User.ID)
	if err != nil {
		return err
	}
	data["Users"] = users
	return s.render(c, "users/following", data)
}

// ShowFollowers lists this user's followers.
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return s.handleError(c, err)
	}
	profile := data["Profile"].(*service.Profile)

	users, err := s.followService.Followers(c.UserContext(), profile.User.ID)
	if err != nil {
		return err
	}
	data["Users"] = users
	return s.render(c, "users/followers", data)
}

// ShowLikes lists the messages this user liked.
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	data, err := s.profileData(c)
	if err != nil {
		return s.handleError(c, err)
	}
	profile := data["Profile"].(*service.Profile)

	messages, err := s.likeService.LikedMessages(c.UserContext(), profile.User.ID)
	if err != nil {
		return err
	}
	data["Messages"] = messages
	return s.render(c, "users/likes", data)
}

// Follow adds a follow edge from the current user.
func (s *Server) Follow(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	me := middleware.CurrentUser(c)
	if err := s.followService.Follow(c.UserContext(), me.ID, id); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", me.ID))
}

// StopFollowing removes a follow edge from the current user.
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	me := middleware.CurrentUser(c)
	if err := s.followService.Unfollow(c.UserContext(), me.ID, id); err != nil {
		return s.handleError(c, err)
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", me.ID))
}

// EditProfileForm renders the profile form prefilled with the current values.
func (s *Server) EditProfileForm(c *fiber.Ctx) error {
	me := middleware.CurrentUser(c)
	return s.render(c, "users/edit", fiber.Map{
		"Title": "Edit profile",
		"Form": profileForm{
			Username:       me.Username,
			Email:          me.Email,
			ImageURL:       me.ImageURL,
			HeaderImageURL: me.HeaderImageURL,
			Bio:            me.Bio,
			Location:       me.Location,
		},
	})
}

// UpdateProfile saves the profile after re-checking the password.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var form profileForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form submission")
	}
	me := middleware.CurrentUser(c)

	_, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         me.ID,
		Password:       form.Password,
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
	})
	if err != nil {
		form.Password = ""
		data := fiber.Map{"Title": "Edit profile", "Form": form}
		switch {
		case service.IsInvalidCredentials(err):
			return s.render(c, "users/edit", data, danger("Wrong password, please try again."))
		case models.HasCode(err, models.ErrCodeIntegrity), models.HasCode(err, models.ErrCodeValidation):
			return s.render(c, "users/edit", data, danger(errorMessage(err)))
		default:
			return s.handleError(c, err)
		}
	}

	s.flash(c, session.CategorySuccess, "Profile updated.")
	return c.Redirect(fmt.Sprintf("/users/%d", me.ID))
}

// DeleteUser removes the current user's account and logs them out.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	me := middleware.CurrentUser(c)
	if err := s.userService.DeleteUser(c.UserContext(), me.ID); err != nil {
		return s.handleError(c, err)
	}
	if err := s.sessions.Logout(c); err != nil {
		return err
	}
	return c.Redirect("/signup")
}
