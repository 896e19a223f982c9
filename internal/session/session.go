// Package session keeps browser login state and flash messages in a fiber
// session store.
package session

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	// CurrentUserKey is the session key holding the logged-in user's id.
	CurrentUserKey = "curr_user"
	// CookieName is the session cookie name.
	CookieName = "session_id"

	flashKey = "_flashes"
)

// Flash categories used by the templates.
const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Options configures a Manager.
type Options struct {
	// Storage backs the session data. Nil selects fiber's in-memory storage.
	Storage fiber.Storage
	TTL     time.Duration
	Secure  bool
}

// Manager wraps a fiber session store with the operations the handlers need.
// Every mutating call loads the session, applies the change and saves it.
type Manager struct {
	store *fibersession.Store
}

// NewManager creates a session manager.
func NewManager(opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	store := fibersession.New(fibersession.Config{
		Storage:        opts.Storage,
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   opts.Secure,
		CookieSameSite: "Lax",
		KeyGenerator:   uuid.NewString,
	})
	return &Manager{store: store}
}

// CurrentUserID returns the user id stored in the session, if any.
func (m *Manager) CurrentUserID(c *fiber.Ctx) (uint, bool, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return 0, false, err
	}
	id, ok := sess.Get(CurrentUserKey).(uint)
	return id, ok && id != 0, nil
}

// Login stores userID under CurrentUserKey on a fresh session id and queues
// the optional flashes.
func (m *Manager) Login(c *fiber.Ctx, userID uint, flashes ...Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(CurrentUserKey, userID)
	appendFlashes(sess, flashes...)
	return sess.Save()
}

// Logout removes the identity key and queues the optional flashes. Calling it
// without a logged-in user is harmless.
func (m *Manager) Logout(c *fiber.Ctx, flashes ...Flash) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	sess.Delete(CurrentUserKey)
	appendFlashes(sess, flashes...)
	return sess.Save()
}

// AddFlash queues a message for the next rendered page.
func (m *Manager) AddFlash(c *fiber.Ctx, category, message string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	appendFlashes(sess, Flash{Category: category, Message: message})
	return sess.Save()
}

// PopFlashes returns and clears the queued messages.
func (m *Manager) PopFlashes(c *fiber.Ctx) ([]Flash, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	flashes := readFlashes(sess)
	if len(flashes) == 0 {
		return nil, nil
	}
	sess.Delete(flashKey)
	return flashes, sess.Save()
}

func readFlashes(sess *fibersession.Session) []Flash {
	raw, ok := sess.Get(flashKey).(string)
	if !ok || raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

func appendFlashes(sess *fibersession.Session, flashes ...Flash) {
	if len(flashes) == 0 {
		return
	}
	all := append(readFlashes(sess), flashes...)
	raw, err := json.Marshal(all)
	if err != nil {
		return
	}
	sess.Set(flashKey, string(raw))
}
