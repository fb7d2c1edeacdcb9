package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConnectionRepository struct {
	mu          sync.Mutex
	requests    map[primitive.ObjectID]*models.ConnectionRequest
	connections map[primitive.ObjectID]*models.Connection
	byPairKey   map[string]primitive.ObjectID
}

func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{
		requests:    make(map[primitive.ObjectID]*models.ConnectionRequest),
		connections: make(map[primitive.ObjectID]*models.Connection),
		byPairKey:   make(map[string]primitive.ObjectID),
	}
}

func (r *ConnectionRepository) CreateRequest(_ context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.ID.IsZero() {
		req.ID = primitive.NewObjectID()
	}
	req.CreatedAt = time.Now()
	req.Status = models.RequestStatusPending

	cp := *req
	r.requests[req.ID] = &cp
	return req, nil
}

func (r *ConnectionRepository) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, apperrors.NotFound("connection request %s not found", id.Hex())
	}
	cp := *req
	return &cp, nil
}

func (r *ConnectionRepository) FindPendingBetween(_ context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, req := range r.requests {
		if req.Status != models.RequestStatusPending {
			continue
		}
		if (req.FromUserID == a && req.ToUserID == b) || (req.FromUserID == b && req.ToUserID == a) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("no pending request between %s and %s", a.Hex(), b.Hex())
}

func (r *ConnectionRepository) TransitionRequest(_ context.Context, id primitive.ObjectID, from, to string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	req.RespondedAt = &at
	return true, nil
}

func (r *ConnectionRepository) ListPendingByReceiver(_ context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ConnectionRequest
	for _, req := range r.requests {
		if req.Status == models.RequestStatusPending && req.ToUserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) ListPendingBySender(_ context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ConnectionRequest
	for _, req := range r.requests {
		if req.Status == models.RequestStatusPending && req.FromUserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) CreateConnection(_ context.Context, conn *models.Connection) (*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, ok := r.byPairKey[conn.PairKey]; ok {
		cp := *r.connections[existingID]
		return &cp, nil
	}
	if conn.ID.IsZero() {
		conn.ID = primitive.NewObjectID()
	}
	conn.CreatedAt = time.Now()

	cp := *conn
	cp.Unread = copyCounts(conn.Unread)
	r.connections[conn.ID] = &cp
	r.byPairKey[conn.PairKey] = conn.ID
	return conn, nil
}

func (r *ConnectionRepository) GetConnectionByID(_ context.Context, id primitive.ObjectID) (*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return nil, apperrors.NotFound("connection %s not found", id.Hex())
	}
	cp := *conn
	cp.Unread = copyCounts(conn.Unread)
	return &cp, nil
}

func (r *ConnectionRepository) GetConnectionByPair(_ context.Context, a, b primitive.ObjectID) (*models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byPairKey[models.PairKey(a, b)]
	if !ok {
		return nil, apperrors.NotFound("connection for pair %s not found", models.PairKey(a, b))
	}
	cp := *r.connections[id]
	cp.Unread = copyCounts(cp.Unread)
	return &cp, nil
}

func (r *ConnectionRepository) ListConnections(_ context.Context, userID primitive.ObjectID) ([]models.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Connection
	for _, conn := range r.connections {
		if conn.Includes(userID) {
			cp := *conn
			cp.Unread = copyCounts(conn.Unread)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *ConnectionRepository) DeleteConnection(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[id]
	if !ok {
		return apperrors.NotFound("connection %s not found", id.Hex())
	}
	delete(r.byPairKey, conn.PairKey)
	delete(r.connections, id)
	return nil
}

func (r *ConnectionRepository) IncrementUnread(_ context.Context, connID, userID primitive.ObjectID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return apperrors.NotFound("connection %s not found", connID.Hex())
	}
	if conn.Unread == nil {
		conn.Unread = make(map[string]int64)
	}
	conn.Unread[userID.Hex()] += delta
	return nil
}

func (r *ConnectionRepository) ResetUnread(_ context.Context, connID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.connections[connID]
	if !ok {
		return apperrors.NotFound("connection %s not found", connID.Hex())
	}
	if conn.Unread == nil {
		conn.Unread = make(map[string]int64)
	}
	conn.Unread[userID.Hex()] = 0
	return nil
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
