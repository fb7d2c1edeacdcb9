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

// MongoLayoverRepository stores layovers in their own collection keyed by
// (user_id, _id), so a single layover edit never rewrites the whole set.
type MongoLayoverRepository struct {
	collection *mongo.Collection
}

func NewLayoverRepository(db *mongo.Database) *MongoLayoverRepository {
	return &MongoLayoverRepository{
		collection: db.Collection("layovers"),
	}
}

func (r *MongoLayoverRepository) Create(ctx context.Context, layover *models.Layover) (*models.Layover, error) {
	layover.CreatedAt = time.Now()
	layover.UpdatedAt = layover.CreatedAt

	result, err := r.collection.InsertOne(ctx, layover)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert layover")
		return nil, apperrors.Transient(err, "failed to insert layover")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Transient(nil, "failed to cast inserted layover ID")
	}
	layover.ID = insertedID
	return layover, nil
}

func (r *MongoLayoverRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Layover, error) {
	var layover models.Layover
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&layover)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("layover %s not found", id.Hex())
		}
		return nil, apperrors.Transient(err, "failed to find layover")
	}
	return &layover, nil
}

func (r *MongoLayoverRepository) Update(ctx context.Context, layover *models.Layover) (*models.Layover, error) {
	layover.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"city":         layover.City,
		"area":         layover.Area,
		"start_date":   layover.StartDate,
		"end_date":     layover.EndDate,
		"status":       layover.Status,
		"discoverable": layover.Discoverable,
		"notes":        layover.Notes,
		"updated_at":   layover.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": layover.ID}, update)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to update layover")
	}
	if result.MatchedCount == 0 {
		return nil, apperrors.NotFound("layover %s not found", layover.ID.Hex())
	}
	return layover, nil
}

func (r *MongoLayoverRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Transient(err, "failed to delete layover")
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("layover %s not found", id.Hex())
	}
	return nil
}

func (r *MongoLayoverRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Layover, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to fetch layovers")
	}
	defer cursor.Close(ctx)

	var layovers []models.Layover
	if err := cursor.All(ctx, &layovers); err != nil {
		return nil, apperrors.Transient(err, "failed to decode layovers")
	}
	return layovers, nil
}

// FindDiscoverable runs the indexed overlap query: same city, discoverable,
// start_date <= end and end_date >= start, requester excluded. The compound
// (city, discoverable, start_date) index keeps this off the user collection
// entirely. Results come back sorted by start_date then _id so the matcher's
// first-per-user pick is deterministic.
func (r *MongoLayoverRepository) FindDiscoverable(ctx context.Context, city string, start, end time.Time, exclude primitive.ObjectID) ([]models.Layover, error) {
	filter := bson.M{
		"city":         city,
		"discoverable": true,
		"user_id":      bson.M{"$ne": exclude},
		"start_date":   bson.M{"$lte": end},
		"end_date":     bson.M{"$gte": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to query overlapping layovers")
	}
	defer cursor.Close(ctx)

	var layovers []models.Layover
	if err := cursor.All(ctx, &layovers); err != nil {
		return nil, apperrors.Transient(err, "failed to decode overlapping layovers")
	}
	return layovers, nil
}

// RollStatuses flips layovers through upcoming → current → past based on
// their window. Expiry is a transition, never a deletion.
func (r *MongoLayoverRepository) RollStatuses(ctx context.Context, now time.Time) (int64, error) {
	var updated int64

	toCurrent, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.LayoverStatusUpcoming, "start_date": bson.M{"$lte": now}, "end_date": bson.M{"$gte": now}},
		bson.M{"$set": bson.M{"status": models.LayoverStatusCurrent, "updated_at": now}},
	)
	if err != nil {
		return 0, apperrors.Transient(err, "failed to roll layovers to current")
	}
	updated += toCurrent.ModifiedCount

	toPast, err := r.collection.UpdateMany(ctx,
		bson.M{"status": bson.M{"$ne": models.LayoverStatusPast}, "end_date": bson.M{"$lt": now}},
		bson.M{"$set": bson.M{"status": models.LayoverStatusPast, "updated_at": now}},
	)
	if err != nil {
		return 0, apperrors.Transient(err, "failed to roll layovers to past")
	}
	updated += toPast.ModifiedCount

	return updated, nil
}
