package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow makes followerID follow followedID. Self-follows are not prevented.
func (s *FollowService) Follow(ctx context.Context, followerID, followedID uint) error {
	if _, err := s.userRepo.GetByID(ctx, followedID); err != nil {
		return err
	}
	return s.followRepo.Follow(ctx, followerID, followedID)
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return s.followRepo.Unfollow(ctx, followerID, followedID)
}

// IsFollowing reports whether followerID follows followedID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, followerID, followedID)
}

// IsFollowedBy reports whether userID is followed by otherID.
func (s *FollowService) IsFollowedBy(ctx context.Context, userID, otherID uint) (bool, error) {
	return s.followRepo.IsFollowing(ctx, otherID, userID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Followers(ctx, userID)
}

func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Following(ctx, userID)
}

// FollowingIDs returns the ids userID follows, for rendering follow buttons.
func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) (map[uint]bool, error) {
	return s.followRepo.FollowingIDs(ctx, userID)
}
