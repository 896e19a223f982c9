// Package service holds the application's business rules on top of the
// repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type UserService struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	likeRepo    repository.LikeRepository
	messageRepo repository.MessageRepository
	cost        int
	dummyHash   []byte
}

// SignupInput carries the signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// UpdateProfileInput carries the edit-profile form. Password must match the
// user's current password.
type UpdateProfileInput struct {
	UserID         uint
	Password       string
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
}

// Profile is a user together with the counters shown on their pages.
type Profile struct {
	User      *models.User
	Messages  int64
	Following int64
	Followers int64
	Likes     int64
}

// NewUserService builds a UserService hashing passwords at cost. A cost of 0
// selects bcrypt.DefaultCost.
func NewUserService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	likeRepo repository.LikeRepository,
	messageRepo repository.MessageRepository,
	cost int,
) *UserService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the username is unknown so both failure paths do
	// one bcrypt comparison at the configured cost.
	dummy, err := bcrypt.GenerateFromPassword([]byte("warbler-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return &UserService{
		userRepo:    userRepo,
		followRepo:  followRepo,
		likeRepo:    likeRepo,
		messageRepo: messageRepo,
		cost:        cost,
		dummyHash:   dummy,
	}
}

// Signup hashes the password and inserts the user. There is no uniqueness
// pre-check: a taken username or email comes back from the insert as an
// ErrCodeIntegrity AppError.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Signup")
	defer func() { observability.EndSpan(span, err) }()

	if in.Password == "" {
		observability.Signups.WithLabelValues("invalid").Inc()
		return nil, models.ErrEmptyPassword
	}
	if len(in.Password) > maxPasswordBytes {
		observability.Signups.WithLabelValues("invalid").Inc()
		return nil, models.ErrPasswordTooLong
	}

	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	imageURL := strings.TrimSpace(in.ImageURL)
	if err := validateIdentity(username, email, imageURL); err != nil {
		observability.Signups.WithLabelValues("invalid").Inc()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		ImageURL: imageURL,
	}
	user.ApplyDefaults()

	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.HasCode(err, models.ErrCodeIntegrity) {
			observability.Signups.WithLabelValues("integrity").Inc()
		}
		return nil, err
	}

	observability.Signups.WithLabelValues("success").Inc()
	return user, nil
}

// Authenticate returns the user when username exists and password matches,
// and models.ErrInvalidCredentials otherwise.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.Password)
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil || user == nil {
		observability.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, models.ErrInvalidCredentials
	}

	observability.LoginAttempts.WithLabelValues("success").Inc()
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SearchUsers lists users whose username contains query.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return s.userRepo.Search(ctx, query, repository.DefaultListLimit)
}

// GetProfile loads the user with message, follow and like counts.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: user}
	if p.Messages, err = s.messageRepo.CountByUser(ctx, id); err != nil {
		return nil, err
	}
	if p.Followers, p.Following, err = s.followRepo.Counts(ctx, id); err != nil {
		return nil, err
	}
	if p.Likes, err = s.likeRepo.CountByUser(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProfile re-checks the password, then writes the editable fields.
// Empty image fields fall back to the defaults.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	current, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Authenticate(ctx, current.Username, in.Password); err != nil {
		return nil, err
	}

	profile := models.UserProfile{
		Username:       strings.TrimSpace(in.Username),
		Email:          strings.TrimSpace(in.Email),
		ImageURL:       strings.TrimSpace(in.ImageURL),
		HeaderImageURL: strings.TrimSpace(in.HeaderImageURL),
		Bio:            strings.TrimSpace(in.Bio),
		Location:       strings.TrimSpace(in.Location),
	}
	if err := validateIdentity(profile.Username, profile.Email, profile.ImageURL); err != nil {
		return nil, err
	}
	if err := validation.ValidateImageURL(profile.HeaderImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if profile.ImageURL == "" {
		profile.ImageURL = models.DefaultImageURL
	}
	if profile.HeaderImageURL == "" {
		profile.HeaderImageURL = models.DefaultHeaderImageURL
	}

	if err := s.userRepo.UpdateProfile(ctx, in.UserID, profile); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// DeleteUser removes the account with its messages, likes and follow edges.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	return s.userRepo.Delete(ctx, id)
}

func validateIdentity(username, email, imageURL string) error {
	for _, err := range []error{
		validation.ValidateUsername(username),
		validation.ValidateEmail(email),
		validation.ValidateImageURL(imageURL),
	} {
		if err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	return nil
}

// IsInvalidCredentials reports whether err is a failed password check.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, models.ErrInvalidCredentials)
}
