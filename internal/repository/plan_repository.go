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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPlanRepository owns the plans collection. Attendee membership is
// mutated through pipeline updates ($setUnion / $setDifference with the
// count recomputed from the resulting array) so the whole mutation is one
// atomic document write — concurrent joiners both land.
type MongoPlanRepository struct {
	collection *mongo.Collection
}

func NewPlanRepository(db *mongo.Database) *MongoPlanRepository {
	return &MongoPlanRepository{
		collection: db.Collection("plans"),
	}
}

func (r *MongoPlanRepository) Create(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert plan")
		return nil, apperrors.Transient(err, "failed to create plan")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Transient(nil, "failed to cast inserted plan ID")
	}
	plan.ID = insertedID
	return plan, nil
}

func (r *MongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error) {
	var plan models.Plan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("plan %s not found", id.Hex())
		}
		return nil, apperrors.Transient(err, "failed to find plan")
	}
	return &plan, nil
}

func (r *MongoPlanRepository) ListByCity(ctx context.Context, city string) ([]models.Plan, error) {
	filter := bson.M{"city": city, "status": models.PlanStatusActive}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to list plans")
	}
	defer cursor.Close(ctx)

	var plans []models.Plan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, apperrors.Transient(err, "failed to decode plans")
	}
	return plans, nil
}

// AddAttendee unions the user into attendee_ids and recomputes the count
// from the resulting set, all in one document update. Joining twice is a
// natural no-op: the union leaves the array unchanged.
func (r *MongoPlanRepository) AddAttendee(ctx context.Context, planID, userID primitive.ObjectID) (*models.Plan, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"attendee_ids": bson.M{"$setUnion": bson.A{"$attendee_ids", bson.A{userID}}},
			"updated_at":   time.Now(),
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"attendee_count": bson.M{"$size": "$attendee_ids"},
		}}},
	}
	return r.findAndUpdate(ctx, planID, pipeline)
}

// RemoveAttendee is the mirror image: set-difference plus recount.
func (r *MongoPlanRepository) RemoveAttendee(ctx context.Context, planID, userID primitive.ObjectID) (*models.Plan, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.M{
			"attendee_ids": bson.M{"$setDifference": bson.A{"$attendee_ids", bson.A{userID}}},
			"updated_at":   time.Now(),
		}}},
		bson.D{{Key: "$set", Value: bson.M{
			"attendee_count": bson.M{"$size": "$attendee_ids"},
		}}},
	}
	return r.findAndUpdate(ctx, planID, pipeline)
}

func (r *MongoPlanRepository) findAndUpdate(ctx context.Context, planID primitive.ObjectID, pipeline mongo.Pipeline) (*models.Plan, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var plan models.Plan
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": planID}, pipeline, opts).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("plan %s not found", planID.Hex())
		}
		return nil, apperrors.Transient(err, "failed to update plan attendees")
	}
	return &plan, nil
}

func (r *MongoPlanRepository) AddInvite(ctx context.Context, planID, userID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$addToSet": bson.M{"invited_ids": userID}},
	)
	if err != nil {
		return apperrors.Transient(err, "failed to add invite")
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("plan %s not found", planID.Hex())
	}
	return nil
}

func (r *MongoPlanRepository) ReplaceStops(ctx context.Context, planID primitive.ObjectID, stops []models.Stop, scheduledTime time.Time) error {
	update := bson.M{"$set": bson.M{
		"stops":          stops,
		"scheduled_time": scheduledTime,
		"updated_at":     time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": planID}, update)
	if err != nil {
		return apperrors.Transient(err, "failed to replace stops")
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("plan %s not found", planID.Hex())
	}
	return nil
}

// TransitionStatus is a compare-and-set so cancel cannot race itself.
func (r *MongoPlanRepository) TransitionStatus(ctx context.Context, planID primitive.ObjectID, from, to string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": planID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, apperrors.Transient(err, "failed to update plan status")
	}
	return result.ModifiedCount == 1, nil
}
