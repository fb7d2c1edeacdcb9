package repository

import (
	"context"
	"time"

	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The interfaces below are the store ports the services depend on. The Mongo
// implementations in this package are the production adapters; the inmem
// package provides equivalents for tests. Implementations translate missing
// documents into apperrors.NotFound and store outages into
// apperrors.Transient.

type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, airline, base string) (*models.User, error)
	AddConnection(ctx context.Context, userID, otherID primitive.ObjectID) error
	RemoveConnection(ctx context.Context, userID, otherID primitive.ObjectID) error
}

type LayoverRepository interface {
	Create(ctx context.Context, layover *models.Layover) (*models.Layover, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Layover, error)
	Update(ctx context.Context, layover *models.Layover) (*models.Layover, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Layover, error)
	// FindDiscoverable returns discoverable layovers in the city whose window
	// intersects [start, end] inclusively, excluding the given user, ordered
	// by start_date ascending then _id ascending.
	FindDiscoverable(ctx context.Context, city string, start, end time.Time, exclude primitive.ObjectID) ([]models.Layover, error)
	// RollStatuses re-derives the status field of every layover from now.
	RollStatuses(ctx context.Context, now time.Time) (int64, error)
}

type ConnectionRepository interface {
	CreateRequest(ctx context.Context, req *models.ConnectionRequest) (*models.ConnectionRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.ConnectionRequest, error)
	// FindPendingBetween looks for a pending request in either direction.
	FindPendingBetween(ctx context.Context, a, b primitive.ObjectID) (*models.ConnectionRequest, error)
	// TransitionRequest flips the status only when the current value matches
	// from; reports whether the document was updated.
	TransitionRequest(ctx context.Context, id primitive.ObjectID, from, to string, at time.Time) (bool, error)
	ListPendingByReceiver(ctx context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error)
	ListPendingBySender(ctx context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error)

	// CreateConnection inserts the pair record. A duplicate pair key returns
	// the existing record, keeping accept idempotent across retries.
	CreateConnection(ctx context.Context, conn *models.Connection) (*models.Connection, error)
	GetConnectionByID(ctx context.Context, id primitive.ObjectID) (*models.Connection, error)
	GetConnectionByPair(ctx context.Context, a, b primitive.ObjectID) (*models.Connection, error)
	ListConnections(ctx context.Context, userID primitive.ObjectID) ([]models.Connection, error)
	DeleteConnection(ctx context.Context, id primitive.ObjectID) error
	IncrementUnread(ctx context.Context, connID, userID primitive.ObjectID, delta int64) error
	ResetUnread(ctx context.Context, connID, userID primitive.ObjectID) error
}

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) (*models.Plan, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Plan, error)
	ListByCity(ctx context.Context, city string) ([]models.Plan, error)
	// AddAttendee and RemoveAttendee mutate the membership set with a
	// single-document set-union / set-difference update that recomputes
	// attendee_count from the resulting set, so concurrent joiners never
	// lose each other's writes. Both return the updated plan.
	AddAttendee(ctx context.Context, planID, userID primitive.ObjectID) (*models.Plan, error)
	RemoveAttendee(ctx context.Context, planID, userID primitive.ObjectID) (*models.Plan, error)
	AddInvite(ctx context.Context, planID, userID primitive.ObjectID) error
	// ReplaceStops installs a renormalized stop list and the re-derived
	// plan-level scheduled time.
	ReplaceStops(ctx context.Context, planID primitive.ObjectID, stops []models.Stop, scheduledTime time.Time) error
	// TransitionStatus flips status only when the current value matches from.
	TransitionStatus(ctx context.Context, planID primitive.ObjectID, from, to string) (bool, error)
}

type AttendeeRepository interface {
	Upsert(ctx context.Context, attendee *models.Attendee) error
	Get(ctx context.Context, planID, userID primitive.ObjectID) (*models.Attendee, error)
	Delete(ctx context.Context, planID, userID primitive.ObjectID) error
	ListByPlan(ctx context.Context, planID primitive.ObjectID) ([]models.Attendee, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notif *models.Notification) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// MarkRead sets read=true on the user's own notifications among ids;
	// unknown or already-read ids are tolerated.
	MarkRead(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	ListByConnection(ctx context.Context, connID primitive.ObjectID) ([]models.Message, error)
}
