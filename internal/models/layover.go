package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	LayoverStatusUpcoming = "upcoming"
	LayoverStatusCurrent  = "current"
	LayoverStatusPast     = "past"
)

// Layover is a user's declared travel window in a city. Layovers live in
// their own collection keyed by (user_id, _id) so edits never rewrite a
// whole embedded array on the user document.
type Layover struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	City         string             `bson:"city" json:"city"`
	Area         string             `bson:"area,omitempty" json:"area,omitempty"`
	StartDate    time.Time          `bson:"start_date" json:"start_date"`
	EndDate      time.Time          `bson:"end_date" json:"end_date"`
	Status       string             `bson:"status" json:"status"`
	Discoverable bool               `bson:"discoverable" json:"discoverable"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// Overlaps reports whether the layover intersects [start, end], boundaries
// inclusive on both sides.
func (l *Layover) Overlaps(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}

// StatusAt derives the lifecycle status from the window. Expiry is a status
// transition, never a deletion.
func (l *Layover) StatusAt(now time.Time) string {
	switch {
	case now.Before(l.StartDate):
		return LayoverStatusUpcoming
	case now.After(l.EndDate):
		return LayoverStatusPast
	default:
		return LayoverStatusCurrent
	}
}
