package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowingPage(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")

	res := cl.post(fmt.Sprintf("/users/follow/%d", f.u2.ID), nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "TEST: following.html")

	res = cl.get(fmt.Sprintf("/users/%d/following", f.u1.ID))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "TEST: following.html")
	assert.Contains(t, res.body, "u2")

	ok, err := f.server.followService.IsFollowing(context.Background(), f.u1.ID, f.u2.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Following twice keeps a single edge.
	cl.post(fmt.Sprintf("/users/follow/%d", f.u2.ID), nil)
	var count int64
	require.NoError(t, f.db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	cl.post(fmt.Sprintf("/users/stop-following/%d", f.u2.ID), nil)
	ok, err = f.server.followService.IsFollowing(context.Background(), f.u1.ID, f.u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowersPage(t *testing.T) {
	f := newFixture(t, testConfig())

	follower := newClient(t, f.server.App())
	follower.login("u2")
	follower.post(fmt.Sprintf("/users/follow/%d", f.u1.ID), nil)
	follower.post("/logout", nil)

	cl := newClient(t, f.server.App())
	cl.login("u1")
	res := cl.get(fmt.Sprintf("/users/%d/followers", f.u1.ID))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "TEST: followers.html")
	assert.Contains(t, res.body, "u2")
}

func TestFollowUnknownUser(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")

	res := cl.post("/users/follow/99999", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestLoggedOutAccessIsDenied(t *testing.T) {
	f := newFixture(t, testConfig())

	paths := []string{
		"/users",
		fmt.Sprintf("/users/%d/followers", f.u2.ID),
		fmt.Sprintf("/users/%d/following", f.u2.ID),
		fmt.Sprintf("/users/%d/likes", f.u2.ID),
		"/users/profile",
		"/messages/new",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			cl := newClient(t, f.server.App())
			res := cl.do(http.MethodGet, path, nil, false)
			assert.Equal(t, http.StatusFound, res.status)
			assert.Equal(t, "/", res.location)

			res = cl.get("/")
			assert.Equal(t, http.StatusOK, res.status)
			assert.Contains(t, res.body, "Access unauthorized.")
		})
	}
}

func TestListUsers(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")

	res := cl.get("/users")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "u1")
	assert.Contains(t, res.body, "u2")

	res = cl.get("/users?q=u1")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "u1")
	assert.NotContains(t, res.body, "u2")

	res = cl.get("/users?q=zzz")
	assert.Contains(t, res.body, "Sorry, no users found")
}

func TestShowUser(t *testing.T) {
	f := newFixture(t, testConfig())

	anon := newClient(t, f.server.App())
	res := anon.get(fmt.Sprintf("/users/%d", f.u1.ID))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "@u1")
	assert.Contains(t, res.body, "m1-text")
	assert.NotContains(t, res.body, "m2-text")

	cl := newClient(t, f.server.App())
	cl.login("u2")
	res = cl.get(fmt.Sprintf("/users/%d", f.u1.ID))
	assert.Contains(t, res.body, fmt.Sprintf(`action="/users/follow/%d"`, f.u1.ID))
}

func TestLikesPage(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")

	res := cl.post(fmt.Sprintf("/messages/%d/like", f.m2.ID), nil)
	assert.Equal(t, http.StatusOK, res.status)
	// Own message.
	cl.post(fmt.Sprintf("/messages/%d/like", f.m1.ID), nil)

	res = cl.get(fmt.Sprintf("/users/%d/likes", f.u1.ID))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "TEST: likes.html")
	assert.Contains(t, res.body, "m1-text")
	assert.Contains(t, res.body, "m2-text")
	assert.Contains(t, res.body, fmt.Sprintf(`action="/messages/%d/like/delete"`, f.m2.ID))

	cl.post(fmt.Sprintf("/messages/%d/like/delete", f.m2.ID), nil)
	res = cl.get(fmt.Sprintf("/users/%d/likes", f.u1.ID))
	assert.NotContains(t, res.body, "m2-text")
	assert.Contains(t, res.body, "m1-text")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")

	res := cl.get("/users/profile")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "TEST: edit.html")
	assert.Contains(t, res.body, `value="u1@email.com"`)

	form := url.Values{
		"username": {"u1-renamed"},
		"email":    {"u1@email.com"},
		"bio":      {"Hello from u1"},
		"location": {"Denver"},
		"password": {"wrong"},
	}
	res = cl.post("/users/profile", form)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "Wrong password, please try again.")

	form.Set("password", "password")
	form.Set("email", "u2@email.com")
	res = cl.post("/users/profile", form)
	assert.Contains(t, res.body, "Username or email already taken")

	form.Set("email", "u1@email.com")
	res = cl.post("/users/profile", form)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "@u1-renamed")
	assert.Contains(t, res.body, "Hello from u1")
	assert.Contains(t, res.body, "Denver")

	u, err := f.server.userRepo.GetByUsername(context.Background(), "u1-renamed")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.DefaultImageURL, u.ImageURL)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t, testConfig())
	cl := newClient(t, f.server.App())
	cl.login("u1")
	cl.post(fmt.Sprintf("/users/follow/%d", f.u2.ID), nil)
	cl.post(fmt.Sprintf("/messages/%d/like", f.m2.ID), nil)

	res := cl.do(http.MethodPost, "/users/delete", url.Values{}, false)
	assert.Equal(t, http.StatusFound, res.status)
	assert.Equal(t, "/signup", res.location)

	u, err := f.server.userRepo.GetByUsername(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, u)

	for _, model := range []any{&models.Message{}, &models.Follow{}, &models.Like{}} {
		var count int64
		require.NoError(t, f.db.Model(model).Count(&count).Error)
		switch model.(type) {
		case *models.Message:
			assert.Equal(t, int64(1), count, "u2's message survives")
		default:
			assert.Equal(t, int64(0), count)
		}
	}

	res = cl.get("/")
	assert.Contains(t, res.body, "TEST: home-anon.html")
}
