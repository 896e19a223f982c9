package repository

import (
	"context"
	"time"

	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = "messages.*, (SELECT COUNT(*) FROM likes WHERE likes.message_id = messages.id) AS likes_count"

// withAuthor selects messages with their like count and author.
func (r *messageRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Message{}).Select(messageColumns).Preload("User")
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return mapError(err, "Message", msg.UserID)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	var msg models.Message
	if err := r.withAuthor(ctx).Where("messages.id = ?", id).First(&msg).Error; err != nil {
		return nil, mapError(err, "Message", id)
	}
	return &msg, nil
}

// ListByUser returns the user's messages, newest first.
func (r *messageRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	var msgs []models.Message
	err := r.withAuthor(ctx).
		Where("messages.user_id = ?", userID).
		Order("messages.timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// Timeline returns messages written by userID or by anyone userID follows,
// newest first.
func (r *messageRepository) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	followed := r.db.Model(&models.Follow{}).Select("user_being_followed_id").Where("user_following_id = ?", userID)

	var msgs []models.Message
	err := r.withAuthor(ctx).
		Where("messages.user_id = ? OR messages.user_id IN (?)", userID, followed).
		Order("messages.timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// Delete removes the message and its likes.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "messages")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Message{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return mapError(err, "Message", id)
}
