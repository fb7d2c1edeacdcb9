// Package inmem provides in-memory repository implementations with the same
// semantics as the Mongo adapters, including the set-union membership
// updates. Service tests run against these.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *UserRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, apperrors.Conflict("email %q is already registered", user.Email)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user %s not found", id.Hex())
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("no user with email %q", email)
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, displayName, airline, base string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user %s not found", id.Hex())
	}
	u.DisplayName = displayName
	u.Airline = airline
	u.Base = base
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (r *UserRepository) AddConnection(_ context.Context, userID, otherID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user %s not found", userID.Hex())
	}
	for _, id := range u.Connections {
		if id == otherID {
			return nil
		}
	}
	u.Connections = append(u.Connections, otherID)
	return nil
}

func (r *UserRepository) RemoveConnection(_ context.Context, userID, otherID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.NotFound("user %s not found", userID.Hex())
	}
	out := u.Connections[:0]
	for _, id := range u.Connections {
		if id != otherID {
			out = append(out, id)
		}
	}
	u.Connections = out
	return nil
}
