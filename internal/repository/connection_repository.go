package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoConnectionRepository owns the connection_requests and connections
// collections. The request status transitions are conditional updates, and
// the connection pair key carries a unique index, which together make the
// accept path idempotent.
type MongoConnectionRepository struct {
	requests    *mongo.Collection
	connections *mongo.Collection
}

func NewConnectionRepository(db *mongo.Database) *MongoConnectionRepository {
	return &MongoConnectionRepository{
		requests:    db.Collection("connection_requests"),
		connections: db.Collection("connections"),
	}
}

func (r *MongoConnectionRepository) CreateRequest(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error) {
	req.CreatedAt = time.Now()
	req.Status = models.RequestStatusPending

	result, err := r.requests.InsertOne(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert connection request")
		return nil, apperrors.Transient(err, "failed to create connection request")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Transient(nil, "failed to cast inserted request ID")
	}
	req.ID = insertedID
	return req, nil
}

func (r *MongoConnectionRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error) {
	var req models.ConnectionRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("connection request %s not found", id.Hex())
		}
		return nil, apperrors.Transient(err, "failed to find connection request")
	}
	return &req, nil
}

func (r *MongoConnectionRepository) FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error) {
	filter := bson.M{
		"status": models.RequestStatusPending,
		"$or": []bson.M{
			{"from_user_id": a, "to_user_id": b},
			{"from_user_id": b, "to_user_id": a},
		},
	}
	var req models.ConnectionRequest
	err := r.requests.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("no pending request between %s and %s", a.Hex(), b.Hex())
		}
		return nil, apperrors.Transient(err, "failed to query pending request")
	}
	return &req, nil
}

// TransitionRequest is a compare-and-set on the status field so two racing
// responders cannot both win.
func (r *MongoConnectionRepository) TransitionRequest(ctx context.Context, id primitive.ObjectID, from, to string, at time.Time) (bool, error) {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "responded_at": at}},
	)
	if err != nil {
		return false, apperrors.Transient(err, "failed to update request status")
	}
	return result.ModifiedCount == 1, nil
}

func (r *MongoConnectionRepository) ListPendingByReceiver(ctx context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error) {
	return r.listPending(ctx, bson.M{"to_user_id": userID, "status": models.RequestStatusPending})
}

func (r *MongoConnectionRepository) ListPendingBySender(ctx context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error) {
	return r.listPending(ctx, bson.M{"from_user_id": userID, "status": models.RequestStatusPending})
}

func (r *MongoConnectionRepository) listPending(ctx context.Context, filter bson.M) ([]models.ConnectionRequest, error) {
	cursor, err := r.requests.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to find pending requests")
	}
	defer cursor.Close(ctx)

	var requests []models.ConnectionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, apperrors.Transient(err, "failed to decode pending requests")
	}
	return requests, nil
}

// CreateConnection inserts the pair document. When another accept already
// created it, the unique pair_key index rejects the insert and the existing
// record is returned instead.
func (r *MongoConnectionRepository) CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.CreatedAt = time.Now()

	result, err := r.connections.InsertOne(ctx, conn)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.getByPairKey(ctx, conn.PairKey)
		}
		logrus.WithError(err).Error("Failed to insert connection")
		return nil, apperrors.Transient(err, "failed to create connection")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Transient(nil, "failed to cast inserted connection ID")
	}
	conn.ID = insertedID
	return conn, nil
}

func (r *MongoConnectionRepository) getByPairKey(ctx context.Context, pairKey string) (*models.Connection, error) {
	var conn models.Connection
	err := r.connections.FindOne(ctx, bson.M{"pair_key": pairKey}).Decode(&conn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("connection for pair %s not found", pairKey)
		}
		return nil, apperrors.Transient(err, "failed to find connection by pair")
	}
	return &conn, nil
}

func (r *MongoConnectionRepository) GetConnectionByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error) {
	var conn models.Connection
	err := r.connections.FindOne(ctx, bson.M{"_id": id}).Decode(&conn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("connection %s not found", id.Hex())
		}
		return nil, apperrors.Transient(err, "failed to find connection")
	}
	return &conn, nil
}

func (r *MongoConnectionRepository) GetConnectionByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Connection, error) {
	return r.getByPairKey(ctx, models.PairKey(a, b))
}

func (r *MongoConnectionRepository) ListConnections(ctx context.Context, userID primitive.ObjectID) ([]models.Connection, error) {
	cursor, err := r.connections.Find(ctx, bson.M{"user_ids": userID})
	if err != nil {
		return nil, apperrors.Transient(err, "failed to list connections")
	}
	defer cursor.Close(ctx)

	var conns []models.Connection
	if err := cursor.All(ctx, &conns); err != nil {
		return nil, apperrors.Transient(err, "failed to decode connections")
	}
	return conns, nil
}

func (r *MongoConnectionRepository) DeleteConnection(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.connections.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Transient(err, "failed to delete connection")
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("connection %s not found", id.Hex())
	}
	return nil
}

// IncrementUnread bumps one side's unread counter in place. $inc on the
// nested field keeps concurrent senders additive.
func (r *MongoConnectionRepository) IncrementUnread(ctx context.Context, connID, userID primitive.ObjectID, delta int64) error {
	_, err := r.connections.UpdateOne(ctx,
		bson.M{"_id": connID},
		bson.M{"$inc": bson.M{"unread." + userID.Hex(): delta}},
	)
	if err != nil {
		return apperrors.Transient(err, "failed to increment unread counter")
	}
	return nil
}

func (r *MongoConnectionRepository) ResetUnread(ctx context.Context, connID, userID primitive.ObjectID) error {
	_, err := r.connections.UpdateOne(ctx,
		bson.M{"_id": connID},
		bson.M{"$set": bson.M{"unread." + userID.Hex(): 0}},
	)
	if err != nil {
		return apperrors.Transient(err, "failed to reset unread counter")
	}
	return nil
}
