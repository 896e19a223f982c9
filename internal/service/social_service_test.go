package service

import (
	"context"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	type edge struct{ follower, followed uint }
	var edges []edge

	follows := &followRepoStub{
		followFn: func(_ context.Context, follower, followed uint) error {
			edges = append(edges, edge{follower, followed})
			return nil
		},
	}
	users := &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			if id == 404 {
				return nil, models.NewNotFoundError("User", id)
			}
			return &models.User{ID: id}, nil
		},
	}
	svc := NewFollowService(follows, users)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	require.NoError(t, svc.Follow(context.Background(), 1, 1))
	assert.Equal(t, []edge{{1, 2}, {1, 1}}, edges)

	err := svc.Follow(context.Background(), 1, 404)
	assert.True(t, models.HasCode(err, models.ErrCodeNotFound))
	assert.Len(t, edges, 2)
}

func TestFollowService_Direction(t *testing.T) {
	follows := &followRepoStub{
		isFollowingFn: func(_ context.Context, follower, followed uint) (bool, error) {
			return follower == 1 && followed == 2, nil
		},
	}
	svc := NewFollowService(follows, &userRepoStub{})
	ctx := context.Background()

	ok, err := svc.IsFollowing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsFollowing(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.IsFollowedBy(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLikeService_Like(t *testing.T) {
	liked := map[uint]bool{}
	likes := &likeRepoStub{
		likeFn: func(_ context.Context, _ uint, messageID uint) error {
			liked[messageID] = true
			return nil
		},
	}
	messages := &messageRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Message, error) {
			if id == 404 {
				return nil, models.NewNotFoundError("Message", id)
			}
			return &models.Message{ID: id, UserID: 1}, nil
		},
	}
	svc := NewLikeService(likes, messages)

	// Own message.
	require.NoError(t, svc.Like(context.Background(), 1, 10))
	assert.True(t, liked[10])

	err := svc.Like(context.Background(), 1, 404)
	assert.True(t, models.HasCode(err, models.ErrCodeNotFound))
	assert.False(t, liked[404])
}
