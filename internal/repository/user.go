package repository

import (
	"context"
	"errors"
	"strings"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, profile models.UserProfile) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID is served from the cache when possible. The cached copy never
// carries the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := cache.Aside(ctx, cache.UserKey(id), cache.UserTTL, func() (models.User, error) {
		defer observability.TrackQuery("select", "users")()
		var u models.User
		err := r.db.WithContext(ctx).First(&u, id).Error
		return u, mapError(err, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("select", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Create inserts user. Uniqueness and emptiness are enforced by the table
// constraints and come back as an ErrCodeIntegrity AppError.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return mapError(err, "User", user.Username)
	}
	return nil
}

// UpdateProfile writes the editable columns only, so the password hash is
// never touched.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, profile models.UserProfile) error {
	defer observability.TrackQuery("update", "users")()

	updates := map[string]interface{}{
		"username":         profile.Username,
		"email":            profile.Email,
		"image_url":        profile.ImageURL,
		"header_image_url": profile.HeaderImageURL,
		"bio":              profile.Bio,
		"location":         profile.Location,
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return mapError(result.Error, "User", id)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Delete removes the user together with their messages, likes and follow
// edges in one transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "users")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownMessages := tx.Model(&models.Message{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR message_id IN (?)", id, ownMessages).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_following_id = ? OR user_being_followed_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return mapError(err, "User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

// Search lists users whose username contains query (case-insensitive),
// ordered by username. An empty query lists everyone.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	defer observability.TrackQuery("select", "users")()

	q := r.db.WithContext(ctx).Order("username ASC").Limit(clampLimit(limit))
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
