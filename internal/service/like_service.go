package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
)

type LikeService struct {
	likeRepo    repository.LikeRepository
	messageRepo repository.MessageRepository
}

func NewLikeService(likeRepo repository.LikeRepository, messageRepo repository.MessageRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo, messageRepo: messageRepo}
}

// Like records userID's like on messageID. Liking one's own message is allowed.
func (s *LikeService) Like(ctx context.Context, userID, messageID uint) error {
	if _, err := s.messageRepo.GetByID(ctx, messageID); err != nil {
		return err
	}
	return s.likeRepo.Like(ctx, userID, messageID)
}

func (s *LikeService) Unlike(ctx context.Context, userID, messageID uint) error {
	return s.likeRepo.Unlike(ctx, userID, messageID)
}

// LikedMessages lists the messages userID liked, newest first.
func (s *LikeService) LikedMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.likeRepo.LikedMessages(ctx, userID, repository.DefaultListLimit)
}

// LikedIDs returns the ids of messages userID liked, for rendering like buttons.
func (s *LikeService) LikedIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	return s.likeRepo.LikedMessageIDs(ctx, userID)
}
