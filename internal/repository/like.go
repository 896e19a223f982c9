package repository

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository manages like edges between users and messages.
type LikeRepository interface {
	Like(ctx context.Context, userID, messageID uint) error
	Unlike(ctx context.Context, userID, messageID uint) error
	LikedMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error)
	LikedMessageIDs(ctx context.Context, userID uint) (map[uint]bool, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Like inserts the edge; liking twice is a no-op.
func (r *likeRepository) Like(ctx context.Context, userID, messageID uint) error {
	defer observability.TrackQuery("insert", "likes")()

	edge := models.Like{UserID: userID, MessageID: messageID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	return mapError(err, "Message", messageID)
}

// Unlike deletes the edge if present.
func (r *likeRepository) Unlike(ctx context.Context, userID, messageID uint) error {
	defer observability.TrackQuery("delete", "likes")()

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{}).Error
	return mapError(err, "Like", messageID)
}

// LikedMessages lists messages userID liked, newest first.
func (r *likeRepository) LikedMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	defer observability.TrackQuery("select", "likes")()

	var msgs []models.Message
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select(messageColumns).
		Preload("User").
		Where("messages.id IN (?)", r.db.Model(&models.Like{}).Select("message_id").Where("user_id = ?", userID)).
		Order("messages.timestamp DESC").
		Limit(clampLimit(limit)).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// LikedMessageIDs returns the set of message ids userID liked.
func (r *likeRepository) LikedMessageIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("user_id = ?", userID).Pluck("message_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return idSet(ids), nil
}

func (r *likeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
