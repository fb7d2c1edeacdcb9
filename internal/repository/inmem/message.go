package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageRepository struct {
	mu       sync.Mutex
	messages []models.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(_ context.Context, msg *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return msg, nil
}

func (r *MessageRepository) ListByConnection(_ context.Context, connID primitive.ObjectID) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Message
	for _, m := range r.messages {
		if m.ConnectionID == connID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
