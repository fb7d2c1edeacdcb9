package services

import (
	"context"
	"strings"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageService is the chat inside a connection. Each send bumps the
// recipient's unread counter on the connection document, which is one of
// the badge aggregator's sources.
type MessageService struct {
	msgRepo  repository.MessageRepository
	connRepo repository.ConnectionRepository
	notifSvc *NotificationService
}

func NewMessageService(msgRepo repository.MessageRepository, connRepo repository.ConnectionRepository, notifSvc *NotificationService) *MessageService {
	return &MessageService{
		msgRepo:  msgRepo,
		connRepo: connRepo,
		notifSvc: notifSvc,
	}
}

func (s *MessageService) SendMessage(ctx context.Context, senderID, connectionID primitive.ObjectID, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Validation("message text is required")
	}

	conn, err := s.connRepo.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Includes(senderID) {
		return nil, apperrors.Permission("connection does not involve sender")
	}

	msg, err := s.msgRepo.Create(ctx, &models.Message{
		ConnectionID: connectionID,
		SenderID:     senderID,
		Text:         text,
	})
	if err != nil {
		return nil, err
	}

	recipient := conn.Other(senderID)
	if err := s.connRepo.IncrementUnread(ctx, connectionID, recipient, 1); err != nil {
		return nil, err
	}
	s.notifSvc.PublishBadge(ctx, recipient)
	return msg, nil
}

func (s *MessageService) ListMessages(ctx context.Context, callerID, connectionID primitive.ObjectID) ([]models.Message, error) {
	conn, err := s.connRepo.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if !conn.Includes(callerID) {
		return nil, apperrors.Permission("connection does not involve caller")
	}

	messages, err := s.msgRepo.ListByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// MarkConversationRead zeroes the caller's unread counter. Idempotent.
func (s *MessageService) MarkConversationRead(ctx context.Context, callerID, connectionID primitive.ObjectID) error {
	conn, err := s.connRepo.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.Includes(callerID) {
		return apperrors.Permission("connection does not involve caller")
	}

	if err := s.connRepo.ResetUnread(ctx, connectionID, callerID); err != nil {
		return err
	}
	s.notifSvc.PublishBadge(ctx, callerID)
	return nil
}
