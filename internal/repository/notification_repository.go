package repository

import (
	"context"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationTTL = 7 * 24 * time.Hour

type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (r *MongoNotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now()
	notif.ExpiresAt = notif.CreatedAt.Add(notificationTTL)

	if _, err := r.collection.InsertOne(ctx, notif); err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return apperrors.Transient(err, "failed to create notification")
	}
	return nil
}

func (r *MongoNotificationRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	filter := bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to fetch notifications")
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, apperrors.Transient(err, "failed to decode notifications")
	}
	return notifications, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"read":       false,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, apperrors.Transient(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead flips read=true on the user's own notifications among ids. Ids
// belonging to other users, unknown ids and already-read ids are ignored.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"_id":     bson.M{"$in": ids},
		"user_id": userID,
		"read":    false,
	}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, apperrors.Transient(err, "failed to mark notifications read")
	}
	return result.ModifiedCount, nil
}

func (r *MongoNotificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, apperrors.Transient(err, "failed to delete expired notifications")
	}
	return result.DeletedCount, nil
}
