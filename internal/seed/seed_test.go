package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DatabaseURL: "sqlite::memory:", Env: "test"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestBuildMessage_TimestampAndLength(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, MaxDays: 30, RandSeed: 42})
	require.NoError(t, err)
	user := &models.User{ID: 1}

	for i := 0; i < 50; i++ {
		msg := f.BuildMessage(user)
		assert.Equal(t, uint(1), msg.UserID)
		assert.NotEmpty(t, msg.Text)
		assert.LessOrEqual(t, len([]rune(msg.Text)), models.MaxMessageLength)
		assert.False(t, msg.Timestamp.After(time.Now().UTC()))
		assert.Less(t, time.Since(msg.Timestamp), 31*24*time.Hour)
	}
}

func TestBuildUser_DefaultsAndOverrides(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, RandSeed: 7})
	require.NoError(t, err)

	u := f.BuildUser(func(u *models.User) {
		u.Username = "fixed"
		u.ImageURL = ""
	})
	assert.Equal(t, "fixed", u.Username)
	assert.Equal(t, models.DefaultImageURL, u.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, u.HeaderImageURL)
	assert.Contains(t, u.Email, "@")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
}

func TestDryRun_AssignsSyntheticIDs(t *testing.T) {
	s, err := NewSeeder(nil, Options{DryRun: true, RandSeed: 1})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.ClearAll(ctx))
	users, err := s.SeedSocialMesh(ctx, 3)
	require.NoError(t, err)
	require.Len(t, users, 3)
	msgs, err := s.SeedEngagement(ctx, users, 4)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	seen := map[uint]bool{}
	for _, u := range users {
		assert.False(t, seen[u.ID])
		seen[u.ID] = true
	}
	for _, m := range msgs {
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestSeeder_SocialMeshAndEngagement(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	s, err := NewSeeder(db, Options{RandSeed: 99, MaxDays: 10})
	require.NoError(t, err)

	users, err := s.SeedSocialMesh(ctx, 8)
	require.NoError(t, err)
	require.Len(t, users, 8)
	assert.Equal(t, int64(8), count(t, db, &models.User{}))

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("user_following_id = user_being_followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
	assert.LessOrEqual(t, count(t, db, &models.Follow{}), int64(8*5))

	msgs, err := s.SeedEngagement(ctx, users, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 20)
	assert.Equal(t, int64(20), count(t, db, &models.Message{}))
	assert.LessOrEqual(t, count(t, db, &models.Like{}), int64(20*8))

	// Generated users log in with the shared password.
	stored, err := repository.NewUserRepository(db).GetByUsername(ctx, users[0].Username)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(DefaultPassword)))

	require.NoError(t, s.ClearAll(ctx))
	for _, model := range []any{&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}} {
		assert.Zero(t, count(t, db, model), "%T", model)
	}
}

func TestSeeder_LoadFixture(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	s, err := NewSeeder(db, Options{RandSeed: 3})
	require.NoError(t, err)

	res, err := s.LoadFixture(ctx, "testdata/demo.yml")
	require.NoError(t, err)
	require.Len(t, res.Users, 3)
	require.Len(t, res.Messages, 2)

	assert.Equal(t, int64(3), count(t, db, &models.Message{}))
	assert.Equal(t, int64(3), count(t, db, &models.Follow{}))
	assert.Equal(t, int64(3), count(t, db, &models.Like{}))

	alice := res.Users["alice"]
	assert.Equal(t, "Portland, OR", alice.Location)
	assert.Equal(t, models.DefaultImageURL, alice.ImageURL)

	hello := res.Messages["hello"]
	assert.True(t, hello.Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	followers, err := repository.NewFollowRepository(db).Followers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	bob, err := repository.NewUserRepository(db).GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(bob.Password), []byte("hunter22")))

	// Loading the same users twice violates the unique constraints.
	_, err = s.LoadFixture(ctx, "testdata/demo.yml")
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeIntegrity))
}

func TestParseFixture_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "empty document",
			yaml: "",
		},
		{
			name:    "missing email",
			yaml:    "users:\n  - username: a\n",
			wantErr: "username and email are required",
		},
		{
			name:    "duplicate username",
			yaml:    "users:\n  - {username: a, email: a@x.io}\n  - {username: a, email: b@x.io}\n",
			wantErr: "duplicate username",
		},
		{
			name:    "unknown author",
			yaml:    "users:\n  - {username: a, email: a@x.io}\nmessages:\n  - {author: z, text: hi}\n",
			wantErr: "unknown author",
		},
		{
			name:    "text too long",
			yaml:    "users:\n  - {username: a, email: a@x.io}\nmessages:\n  - {author: a, text: " + strings.Repeat("x", 141) + "}\n",
			wantErr: "text must be",
		},
		{
			name:    "unknown like target",
			yaml:    "users:\n  - {username: a, email: a@x.io}\nlikes:\n  - {user: a, message: nope}\n",
			wantErr: "unknown message",
		},
		{
			name:    "unknown field",
			yaml:    "users:\n  - {username: a, email: a@x.io, age: 3}\n",
			wantErr: "decode fixture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, err := ParseFixture(strings.NewReader(tt.yaml))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, fx)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
