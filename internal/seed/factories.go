// Package seed provides helpers to create demo data for the Warbler database.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every generated user can log in with.
const DefaultPassword = "password123"

// Options control how the factory generates and persists data.
type Options struct {
	// DryRun builds entities with synthetic IDs and skips all writes.
	DryRun bool
	// BcryptCost is used for the shared password hash. 0 selects bcrypt.MinCost.
	BcryptCost int
	// MaxDays bounds how far back message timestamps are spread.
	MaxDays int
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	opts     Options
	rng      *rand.Rand
	faker    *gofakeit.Faker
	users    repository.UserRepository
	messages repository.MessageRepository
	follows  repository.FollowRepository
	likes    repository.LikeRepository
	hash     string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.MinCost
	}

	// One hash shared by every generated user.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f := &Factory{
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)),
		faker:  gofakeit.New(seed),
		hash:   string(hash),
		nextID: 1000,
	}
	if db != nil {
		f.users = repository.NewUserRepository(db)
		f.messages = repository.NewMessageRepository(db)
		f.follows = repository.NewFollowRepository(db)
		f.likes = repository.NewLikeRepository(db)
	}
	return f, nil
}

// BuildUser constructs an unsaved user with fake identity fields.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	user := &models.User{
		Username: strings.ToLower(f.faker.Username()) + fmt.Sprintf("%d", f.faker.Number(100, 999)),
		Email:    f.faker.Email(),
		Password: f.hash,
		ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Bio:      f.faker.Sentence(10),
		Location: fmt.Sprintf("%s, %s", f.faker.City(), f.faker.StateAbr()),
	}
	for _, override := range overrides {
		override(user)
	}
	user.ApplyDefaults()
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildMessage constructs an unsaved message for user with a timestamp spread
// over the last MaxDays days.
func (f *Factory) BuildMessage(user *models.User, overrides ...func(*models.Message)) *models.Message {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	msg := &models.Message{
		Text:      truncate(f.faker.HipsterSentence(f.rng.Intn(12)+3), models.MaxMessageLength),
		Timestamp: time.Now().UTC().Add(-back),
		UserID:    user.ID,
	}
	for _, override := range overrides {
		override(msg)
	}
	return msg
}

// CreateMessage builds and persists a message for user.
func (f *Factory) CreateMessage(ctx context.Context, user *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	msg := f.BuildMessage(user, overrides...)
	if f.opts.DryRun {
		f.nextID++
		msg.ID = f.nextID
		log.Printf("[dry-run] CreateMessage: user=%d text=%q", msg.UserID, msg.Text)
		return msg, nil
	}
	if err := f.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateFollow makes follower follow followed.
func (f *Factory) CreateFollow(ctx context.Context, follower, followed *models.User) error {
	if f.opts.DryRun {
		return nil
	}
	return f.follows.Follow(ctx, follower.ID, followed.ID)
}

// CreateLike records that user liked msg.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, msg *models.Message) error {
	if f.opts.DryRun {
		return nil
	}
	return f.likes.Like(ctx, user.ID, msg.ID)
}

// hashPassword hashes a fixture password at the factory's cost.
func (f *Factory) hashPassword(password string) (string, error) {
	if password == "" || password == DefaultPassword {
		return f.hash, nil
	}
	cost := f.opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
