package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Arman334/CrewLink/internal/config"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB opens the Mongo connection and verifies it with a ping.
func ConnectDB(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	logrus.Info("Connected to MongoDB")
	return client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the indexes the query paths rely on:
//   - layovers (city, discoverable, start_date): backs the crew matcher's
//     windowed range query so matching never scans the user collection;
//   - connections pair_key unique: one connection per unordered pair;
//   - notifications (user_id, read) and expires_at for badge counting and
//     expiry sweeps;
//   - attendees (plan_id, user_id) unique.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	layoverIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "discoverable", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_date", Value: 1}}},
	}
	if _, err := db.Collection("layovers").Indexes().CreateMany(ctx, layoverIdx); err != nil {
		return fmt.Errorf("failed to create layover indexes: %v", err)
	}

	pairIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("connections").Indexes().CreateOne(ctx, pairIdx); err != nil {
		return fmt.Errorf("failed to create connection pair index: %v", err)
	}

	requestIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "to_user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "from_user_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection("connection_requests").Indexes().CreateMany(ctx, requestIdx); err != nil {
		return fmt.Errorf("failed to create request indexes: %v", err)
	}

	notifIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	}
	if _, err := db.Collection("notifications").Indexes().CreateMany(ctx, notifIdx); err != nil {
		return fmt.Errorf("failed to create notification indexes: %v", err)
	}

	attendeeIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "plan_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("attendees").Indexes().CreateOne(ctx, attendeeIdx); err != nil {
		return fmt.Errorf("failed to create attendee index: %v", err)
	}

	planIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "city", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduled_time", Value: 1}},
	}
	if _, err := db.Collection("plans").Indexes().CreateOne(ctx, planIdx); err != nil {
		return fmt.Errorf("failed to create plan index: %v", err)
	}

	emailIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection("users").Indexes().CreateOne(ctx, emailIdx); err != nil {
		return fmt.Errorf("failed to create user email index: %v", err)
	}

	logrus.Info("MongoDB indexes ensured")
	return nil
}
