package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"warbler/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set loaded from YAML.
//
//	users:
//	  - username: alice
//	    email: alice@example.com
//	messages:
//	  - key: hello
//	    author: alice
//	    text: Hello, Warbler!
//	follows:
//	  - follower: bob
//	    followed: alice
//	likes:
//	  - user: bob
//	    message: hello
type Fixture struct {
	Users    []FixtureUser    `yaml:"users"`
	Messages []FixtureMessage `yaml:"messages"`
	Follows  []FixtureFollow  `yaml:"follows"`
	Likes    []FixtureLike    `yaml:"likes"`
}

// FixtureUser describes one account. An empty password means DefaultPassword.
type FixtureUser struct {
	Username       string `yaml:"username"`
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	ImageURL       string `yaml:"image_url"`
	HeaderImageURL string `yaml:"header_image_url"`
	Bio            string `yaml:"bio"`
	Location       string `yaml:"location"`
}

// FixtureMessage is a message by Author. Key lets likes refer to it.
type FixtureMessage struct {
	Key       string    `yaml:"key"`
	Author    string    `yaml:"author"`
	Text      string    `yaml:"text"`
	Timestamp time.Time `yaml:"timestamp"`
}

// FixtureFollow makes Follower follow Followed.
type FixtureFollow struct {
	Follower string `yaml:"follower"`
	Followed string `yaml:"followed"`
}

// FixtureLike makes User like the message with key Message.
type FixtureLike struct {
	User    string `yaml:"user"`
	Message string `yaml:"message"`
}

// FixtureResult holds the entities created from a fixture.
type FixtureResult struct {
	Users    map[string]*models.User
	Messages map[string]*models.Message
}

// ParseFixture decodes a YAML fixture and checks its references.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// LoadFixtureFile reads and parses the fixture at path.
func LoadFixtureFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseFixture(f)
}

func (fx *Fixture) validate() error {
	users := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		if u.Username == "" || u.Email == "" {
			return fmt.Errorf("users[%d]: username and email are required", i)
		}
		if users[u.Username] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		users[u.Username] = true
	}

	keys := make(map[string]bool, len(fx.Messages))
	for i, m := range fx.Messages {
		if !users[m.Author] {
			return fmt.Errorf("messages[%d]: unknown author %q", i, m.Author)
		}
		if m.Text == "" || len([]rune(m.Text)) > models.MaxMessageLength {
			return fmt.Errorf("messages[%d]: text must be 1-%d characters", i, models.MaxMessageLength)
		}
		if m.Key != "" {
			if keys[m.Key] {
				return fmt.Errorf("messages[%d]: duplicate key %q", i, m.Key)
			}
			keys[m.Key] = true
		}
	}

	for i, f := range fx.Follows {
		if !users[f.Follower] || !users[f.Followed] {
			return fmt.Errorf("follows[%d]: unknown user", i)
		}
	}
	for i, l := range fx.Likes {
		if !users[l.User] {
			return fmt.Errorf("likes[%d]: unknown user %q", i, l.User)
		}
		if !keys[l.Message] {
			return fmt.Errorf("likes[%d]: unknown message %q", i, l.Message)
		}
	}
	return nil
}

// ApplyFixture persists fx through the factory. Users come first, then
// messages, follows and likes.
func (f *Factory) ApplyFixture(ctx context.Context, fx *Fixture) (*FixtureResult, error) {
	res := &FixtureResult{
		Users:    make(map[string]*models.User, len(fx.Users)),
		Messages: make(map[string]*models.Message, len(fx.Messages)),
	}

	for _, fu := range fx.Users {
		hash, err := f.hashPassword(fu.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", fu.Username, err)
		}
		u := fu
		user, err := f.CreateUser(ctx, func(m *models.User) {
			m.Username = u.Username
			m.Email = u.Email
			m.Password = hash
			m.ImageURL = u.ImageURL
			m.HeaderImageURL = u.HeaderImageURL
			m.Bio = u.Bio
			m.Location = u.Location
		})
		if err != nil {
			return nil, fmt.Errorf("create user %s: %w", fu.Username, err)
		}
		res.Users[fu.Username] = user
	}

	for i, fm := range fx.Messages {
		m := fm
		msg, err := f.CreateMessage(ctx, res.Users[fm.Author], func(msg *models.Message) {
			msg.Text = m.Text
			if !m.Timestamp.IsZero() {
				msg.Timestamp = m.Timestamp.UTC()
			}
		})
		if err != nil {
			return nil, fmt.Errorf("create message %d: %w", i, err)
		}
		if fm.Key != "" {
			res.Messages[fm.Key] = msg
		}
	}

	for _, ff := range fx.Follows {
		if err := f.CreateFollow(ctx, res.Users[ff.Follower], res.Users[ff.Followed]); err != nil {
			return nil, fmt.Errorf("follow %s -> %s: %w", ff.Follower, ff.Followed, err)
		}
	}

	for _, fl := range fx.Likes {
		if err := f.CreateLike(ctx, res.Users[fl.User], res.Messages[fl.Message]); err != nil {
			return nil, fmt.Errorf("like %s by %s: %w", fl.Message, fl.User, err)
		}
	}

	return res, nil
}
