package seed

import (
	"context"
	"fmt"
	"log"

	"warbler/internal/models"

	"gorm.io/gorm"
)

// maxUserAttempts bounds retries when a generated username or email collides.
const maxUserAttempts = 5

// Seeder populates the database with demo users, messages, follows and likes.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder builds a Seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// Factory exposes the underlying factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll deletes every row from the application tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// SeedSocialMesh creates n users and a follow graph where each user follows
// up to five random others.
func (s *Seeder) SeedSocialMesh(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.createUniqueUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d users created", len(users))

	edges := 0
	for _, u := range users {
		if len(users) < 2 {
			break
		}
		want := s.factory.rng.Intn(min(5, len(users)-1) + 1)
		for _, idx := range s.factory.rng.Perm(len(users)) {
			if want == 0 {
				break
			}
			other := users[idx]
			if other.ID == u.ID {
				continue
			}
			if err := s.factory.CreateFollow(ctx, u, other); err != nil {
				return nil, fmt.Errorf("follow %d -> %d: %w", u.ID, other.ID, err)
			}
			edges++
			want--
		}
	}
	log.Printf("✓ %d follow edges created", edges)

	return users, nil
}

// SeedEngagement spreads numMessages messages over users and has other users
// like some of them.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, numMessages int) ([]*models.Message, error) {
	if len(users) == 0 || numMessages <= 0 {
		return nil, nil
	}

	msgs := make([]*models.Message, 0, numMessages)
	for i := 0; i < numMessages; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		msg, err := s.factory.CreateMessage(ctx, author)
		if err != nil {
			return nil, fmt.Errorf("create message %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	log.Printf("✓ %d messages created", len(msgs))

	likes := 0
	for _, msg := range msgs {
		for _, u := range users {
			// Roughly one in four users likes any given message.
			if s.factory.rng.Intn(4) != 0 {
				continue
			}
			if err := s.factory.CreateLike(ctx, u, msg); err != nil {
				return nil, fmt.Errorf("like message %d: %w", msg.ID, err)
			}
			likes++
		}
	}
	log.Printf("✓ %d likes created", likes)

	return msgs, nil
}

// LoadFixture parses the YAML fixture at path and persists it.
func (s *Seeder) LoadFixture(ctx context.Context, path string) (*FixtureResult, error) {
	fx, err := LoadFixtureFile(path)
	if err != nil {
		return nil, err
	}
	res, err := s.factory.ApplyFixture(ctx, fx)
	if err != nil {
		return nil, err
	}
	log.Printf("✓ fixture %s: %d users, %d messages, %d follows, %d likes",
		path, len(fx.Users), len(fx.Messages), len(fx.Follows), len(fx.Likes))
	return res, nil
}

func (s *Seeder) createUniqueUser(ctx context.Context) (*models.User, error) {
	var lastErr error
	for attempt := 0; attempt < maxUserAttempts; attempt++ {
		user, err := s.factory.CreateUser(ctx)
		if err == nil {
			return user, nil
		}
		if !models.HasCode(err, models.ErrCodeIntegrity) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
