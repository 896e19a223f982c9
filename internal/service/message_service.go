package service

import (
	"context"
	"strings"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/validation"
)

type MessageService struct {
	messageRepo repository.MessageRepository
}

func NewMessageService(messageRepo repository.MessageRepository) *MessageService {
	return &MessageService{messageRepo: messageRepo}
}

// CreateMessage stores a new message for userID.
func (s *MessageService) CreateMessage(ctx context.Context, userID uint, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateMessageText(text); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	msg := &models.Message{Text: text, UserID: userID}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesPosted.Inc()
	return msg, nil
}

func (s *MessageService) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}

// DeleteMessage removes the message if actorID owns it. Anyone else gets
// models.ErrAccessUnauthorized and the message stays.
func (s *MessageService) DeleteMessage(ctx context.Context, actorID, messageID uint) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.UserID != actorID {
		return models.ErrAccessUnauthorized
	}
	return s.messageRepo.Delete(ctx, messageID)
}

// UserMessages lists a user's messages, newest first.
func (s *MessageService) UserMessages(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.messageRepo.ListByUser(ctx, userID, repository.DefaultListLimit)
}

// Timeline lists messages by userID and the users they follow, newest first.
func (s *MessageService) Timeline(ctx context.Context, userID uint) ([]models.Message, error) {
	return s.messageRepo.Timeline(ctx, userID, repository.DefaultListLimit)
}
