package session

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(m *Manager) *fiber.App {
	app := fiber.New()
	app.Post("/login/:id", func(c *fiber.Ctx) error {
		id, _ := strconv.Atoi(c.Params("id"))
		if err := m.Login(c, uint(id), Flash{Category: CategorySuccess, Message: "Hello!"}); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		if err := m.Logout(c, Flash{Category: CategorySuccess, Message: "Bye"}); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, ok, err := m.CurrentUserID(c)
		if err != nil {
			return err
		}
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})
	app.Get("/flashes", func(c *fiber.Ctx) error {
		flashes, err := m.PopFlashes(c)
		if err != nil {
			return err
		}
		msgs := make([]string, 0, len(flashes))
		for _, f := range flashes {
			msgs = append(msgs, f.Category+":"+f.Message)
		}
		return c.SendString(strings.Join(msgs, ","))
	})
	return app
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, ck := range resp.Cookies() {
		if ck.Name == CookieName {
			return ck
		}
	}
	t.Fatalf("no %s cookie in response", CookieName)
	return nil
}

func do(t *testing.T, app *fiber.App, method, path string, ck *http.Cookie) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestManager_LoginLogoutFlashes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := NewManager(Options{Storage: NewRedisStorage(rdb), TTL: time.Hour})
	app := newTestApp(m)

	_, body := do(t, app, http.MethodGet, "/whoami", nil)
	assert.Equal(t, "anonymous", body)

	resp, _ := do(t, app, http.MethodPost, "/login/42", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	ck := sessionCookie(t, resp)
	assert.True(t, ck.HttpOnly)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "sess:"+ck.Value, keys[0])

	_, body = do(t, app, http.MethodGet, "/whoami", ck)
	assert.Equal(t, "42", body)

	_, body = do(t, app, http.MethodGet, "/flashes", ck)
	assert.Equal(t, "success:Hello!", body)
	_, body = do(t, app, http.MethodGet, "/flashes", ck)
	assert.Equal(t, "", body, "flashes are consumed once")

	resp, _ = do(t, app, http.MethodPost, "/logout", ck)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = do(t, app, http.MethodGet, "/whoami", ck)
	assert.Equal(t, "anonymous", body)
	_, body = do(t, app, http.MethodGet, "/flashes", ck)
	assert.Equal(t, "success:Bye", body)
}

func TestManager_LoginRegeneratesSessionID(t *testing.T) {
	m := NewManager(Options{})
	app := newTestApp(m)

	resp, _ := do(t, app, http.MethodPost, "/logout", nil)
	first := sessionCookie(t, resp)

	resp, _ = do(t, app, http.MethodPost, "/login/7", first)
	second := sessionCookie(t, resp)
	assert.NotEqual(t, first.Value, second.Value)

	_, body := do(t, app, http.MethodGet, "/whoami", first)
	assert.Equal(t, "anonymous", body, "old session id must not carry the login")
	_, body = do(t, app, http.MethodGet, "/whoami", second)
	assert.Equal(t, "7", body)
}

func TestRedisStorage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisStorage(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("a", []byte("one"), time.Minute))
	require.NoError(t, s.Set("b", []byte("two"), 0))
	mr.Set("other", "kept")

	val, err = s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)
	assert.True(t, mr.TTL("sess:a") > 0)

	require.NoError(t, s.Delete("a"))
	val, err = s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Reset())
	assert.False(t, mr.Exists("sess:b"))
	assert.True(t, mr.Exists("other"))
	assert.NoError(t, s.Close())

}
