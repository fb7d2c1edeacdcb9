package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const notificationTTL = 7 * 24 * time.Hour

type NotificationRepository struct {
	mu            sync.Mutex
	notifications map[primitive.ObjectID]*models.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{notifications: make(map[primitive.ObjectID]*models.Notification)}
}

func (r *NotificationRepository) Create(_ context.Context, notif *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if notif.ID.IsZero() {
		notif.ID = primitive.NewObjectID()
	}
	notif.CreatedAt = time.Now()
	notif.ExpiresAt = notif.CreatedAt.Add(notificationTTL)

	cp := *notif
	r.notifications[notif.ID] = &cp
	return nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID && n.ExpiresAt.After(now) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read && n.ExpiresAt.After(now) {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	for _, id := range ids {
		n, ok := r.notifications[id]
		if !ok || n.UserID != userID || n.Read {
			continue
		}
		n.Read = true
		modified++
	}
	return modified, nil
}

func (r *NotificationRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, n := range r.notifications {
		if !n.ExpiresAt.After(now) {
			delete(r.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}
