package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	var created *models.Message
	svc := NewMessageService(&messageRepoStub{
		createFn: func(_ context.Context, m *models.Message) error {
			m.ID = 1
			created = m
			return nil
		},
	})

	msg, err := svc.CreateMessage(context.Background(), 2, "  Hello  ")
	require.NoError(t, err)
	assert.Equal(t, "Hello", created.Text)
	assert.Equal(t, uint(2), msg.UserID)

	for _, text := range []string{"", "   ", strings.Repeat("a", models.MaxMessageLength+1)} {
		created = nil
		_, err := svc.CreateMessage(context.Background(), 2, text)
		assert.True(t, models.HasCode(err, models.ErrCodeValidation))
		assert.Nil(t, created)
	}
}

func TestDeleteMessage_Ownership(t *testing.T) {
	deleted := false
	svc := NewMessageService(&messageRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Message, error) {
			if id == 99 {
				return nil, models.NewNotFoundError("Message", id)
			}
			return &models.Message{ID: id, UserID: 1, Text: "Hello"}, nil
		},
		deleteFn: func(context.Context, uint) error {
			deleted = true
			return nil
		},
	})

	t.Run("Other user is refused", func(t *testing.T) {
		deleted = false
		err := svc.DeleteMessage(context.Background(), 2, 5)
		assert.True(t, errors.Is(err, models.ErrAccessUnauthorized))
		assert.False(t, deleted)
	})

	t.Run("Owner deletes", func(t *testing.T) {
		deleted = false
		require.NoError(t, svc.DeleteMessage(context.Background(), 1, 5))
		assert.True(t, deleted)
	})

	t.Run("Missing message", func(t *testing.T) {
		deleted = false
		err := svc.DeleteMessage(context.Background(), 1, 99)
		assert.True(t, models.HasCode(err, models.ErrCodeNotFound))
		assert.False(t, deleted)
	})
}
