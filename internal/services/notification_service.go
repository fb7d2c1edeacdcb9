package services

import (
	"context"
	"time"

	"github.com/Arman334/CrewLink/internal/events"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository"
	"github.com/Arman334/CrewLink/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService stores per-user notifications and derives the badge
// total from its three sources: pending incoming requests, unread
// notifications and per-connection unread message counters.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	connRepo  repository.ConnectionRepository
	hub       *events.Hub
}

func NewNotificationService(notifRepo repository.NotificationRepository, connRepo repository.ConnectionRepository, hub *events.Hub) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		connRepo:  connRepo,
		hub:       hub,
	}
}

// Notify records a notification and pushes a fresh badge snapshot. A failed
// insert is logged, not propagated: notifications never break the operation
// that produced them.
func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, targetID *primitive.ObjectID) {
	notif := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Read:     false,
		TargetID: targetID,
	}
	if err := s.notifRepo.Create(ctx, notif); err != nil {
		logrus.WithError(err).WithField("type", notifType).Warn("Failed to create notification")
		return
	}
	s.PublishBadge(ctx, userID)
}

// AggregateUnreadCount computes the badge total:
// pending incoming requests + unread notifications + message counters.
// The count is best-effort: a source that fails reads as zero.
func (s *NotificationService) AggregateUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	var total int64

	pending, err := s.connRepo.ListPendingByReceiver(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).Warn("Badge: failed to count pending requests")
	} else {
		total += int64(len(pending))
	}

	unread, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).Warn("Badge: failed to count unread notifications")
	} else {
		total += unread
	}

	conns, err := s.connRepo.ListConnections(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).Warn("Badge: failed to list connections")
	} else {
		key := userID.Hex()
		for _, conn := range conns {
			total += conn.Unread[key]
		}
	}

	return total, nil
}

// MarkRead flags the caller's notifications as read. Unknown, foreign and
// already-read ids are tolerated; the operation is idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) error {
	modified, err := s.notifRepo.MarkRead(ctx, userID, ids)
	if err != nil {
		return err
	}
	if modified > 0 {
		s.PublishBadge(ctx, userID)
	}
	return nil
}

// ListNotifications returns the caller's unexpired notifications, newest
// first.
func (s *NotificationService) ListNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	notifications, err := s.notifRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// DeleteExpired is the scheduler hook for the retention sweep.
func (s *NotificationService) DeleteExpired(ctx context.Context) error {
	deleted, err := s.notifRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if deleted > 0 {
		logrus.Infof("Deleted %d expired notifications", deleted)
	}
	return nil
}

// PublishBadge recomputes the badge total and pushes it to the user's badge
// topic. Subscribers receive a snapshot, not a delta.
func (s *NotificationService) PublishBadge(ctx context.Context, userID primitive.ObjectID) {
	if s.hub == nil {
		return
	}
	total, err := s.AggregateUnreadCount(ctx, userID)
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to compute badge for snapshot")
		return
	}
	s.hub.Publish(events.BadgeTopic(userID.Hex()), total)
}
