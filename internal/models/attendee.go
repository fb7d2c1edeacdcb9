package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPInvited  = "invited"
	RSVPDeclined = "declined"
)

// Attendee is a user's membership and RSVP detail within a plan. The
// authoritative membership set lives on the plan document itself; this
// record carries the per-user RSVP and, for multi-stop plans, which stops
// the user is attending.
type Attendee struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PlanID         primitive.ObjectID   `bson:"plan_id" json:"plan_id"`
	UserID         primitive.ObjectID   `bson:"user_id" json:"user_id"`
	RSVPStatus     string               `bson:"rsvp_status" json:"rsvp_status"`
	AllStops       bool                 `bson:"all_stops" json:"all_stops"`
	StopsAttending []primitive.ObjectID `bson:"stops_attending,omitempty" json:"stops_attending,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// ValidRSVP reports whether s is a value a joiner may set directly.
// "invited" is assigned only through the invite flow.
func ValidRSVP(s string) bool {
	switch s {
	case RSVPGoing, RSVPMaybe, RSVPDeclined:
		return true
	}
	return false
}
