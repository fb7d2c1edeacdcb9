package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAttendeeRepository stores per-user RSVP detail, one document per
// (plan_id, user_id) guarded by a unique index.
type MongoAttendeeRepository struct {
	collection *mongo.Collection
}

func NewAttendeeRepository(db *mongo.Database) *MongoAttendeeRepository {
	return &MongoAttendeeRepository{
		collection: db.Collection("attendees"),
	}
}

func (r *MongoAttendeeRepository) Upsert(ctx context.Context, attendee *models.Attendee) error {
	now := time.Now()
	filter := bson.M{"plan_id": attendee.PlanID, "user_id": attendee.UserID}
	update := bson.M{
		"$set": bson.M{
			"rsvp_status":     attendee.RSVPStatus,
			"all_stops":       attendee.AllStops,
			"stops_attending": attendee.StopsAttending,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"plan_id":    attendee.PlanID,
			"user_id":    attendee.UserID,
			"created_at": now,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperrors.Transient(err, "failed to upsert attendee")
	}
	return nil
}

func (r *MongoAttendeeRepository) Get(ctx context.Context, planID, userID primitive.ObjectID) (*models.Attendee, error) {
	var attendee models.Attendee
	err := r.collection.FindOne(ctx, bson.M{"plan_id": planID, "user_id": userID}).Decode(&attendee)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("attendee record not found")
		}
		return nil, apperrors.Transient(err, "failed to find attendee")
	}
	return &attendee, nil
}

func (r *MongoAttendeeRepository) Delete(ctx context.Context, planID, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"plan_id": planID, "user_id": userID})
	if err != nil {
		return apperrors.Transient(err, "failed to delete attendee")
	}
	return nil
}

func (r *MongoAttendeeRepository) ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]models.Attendee, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"plan_id": planID})
	if err != nil {
		return nil, apperrors.Transient(err, "failed to list attendees")
	}
	defer cursor.Close(ctx)

	var attendees []models.Attendee
	if err := cursor.All(ctx, &attendees); err != nil {
		return nil, apperrors.Transient(err, "failed to decode attendees")
	}
	return attendees, nil
}
