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

// MongoUserRepository handles database operations related to users.
type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection("users"),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("email %q is already registered", user.Email)
		}
		logrus.WithError(err).Error("Failed to insert user")
		return nil, apperrors.Transient(err, "failed to insert user")
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, apperrors.Transient(nil, "failed to cast inserted user ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user %s not found", id.Hex())
		}
		return nil, apperrors.Transient(err, "failed to find user by id")
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("no user with email %q", email)
		}
		return nil, apperrors.Transient(err, "failed to find user by email")
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Transient(err, "failed to fetch users by ids")
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperrors.Transient(err, "failed to decode users")
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, airline, base string) (*models.User, error) {
	update := bson.M{"$set": bson.M{
		"display_name": displayName,
		"airline":      airline,
		"base":         base,
		"updated_at":   time.Now(),
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		logrus.WithField("userID", id.Hex()).WithError(err).Error("Failed to update user")
		return nil, apperrors.Transient(err, "failed to update user")
	}
	return r.GetByID(ctx, id)
}

// AddConnection records the other user in this user's connections array.
// $addToSet keeps the operation idempotent under retries.
func (r *MongoUserRepository) AddConnection(ctx context.Context, userID, otherID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"connections": otherID}},
	)
	if err != nil {
		return apperrors.Transient(err, "failed to add connection")
	}
	return nil
}

func (r *MongoUserRepository) RemoveConnection(ctx context.Context, userID, otherID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"connections": otherID}},
	)
	if err != nil {
		return apperrors.Transient(err, "failed to remove connection")
	}
	return nil
}
