package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Arman334/CrewLink/internal/apperrors"
)

const (
	VisibilityPublic      = "public"
	VisibilityConnections = "connections"
	VisibilityInviteOnly  = "invite_only"

	PlanModeSingle    = "single"
	PlanModeMultiStop = "multi_stop"

	PlanStatusActive   = "active"
	PlanStatusCanceled = "canceled"
)

// SingleStop is the payload of a single-mode plan: one spot, one time.
type SingleStop struct {
	SpotID        string    `bson:"spot_id" json:"spot_id"`
	SpotName      string    `bson:"spot_name" json:"spot_name"`
	ScheduledTime time.Time `bson:"scheduled_time" json:"scheduled_time"`
}

// Stop is one entry of a multi-stop itinerary. Order values are dense and
// contiguous (0..n-1); sorting by Order yields the itinerary sequence.
type Stop struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	SpotID        string             `bson:"spot_id" json:"spot_id"`
	SpotName      string             `bson:"spot_name" json:"spot_name"`
	ScheduledTime time.Time          `bson:"scheduled_time" json:"scheduled_time"`
	Order         int                `bson:"order" json:"order"`
}

// Plan is a hosted meetup. Mode is a tagged union: exactly one of Single or
// Stops is populated, enforced by Validate so an illegal shape never reaches
// the store. AttendeeIDs always contains the host and AttendeeCount always
// equals len(AttendeeIDs); both are maintained by single-document pipeline
// updates so concurrent joiners cannot lose each other's writes.
type Plan struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	HostUserID    primitive.ObjectID   `bson:"host_user_id" json:"host_user_id"`
	Title         string               `bson:"title" json:"title"`
	City          string               `bson:"city" json:"city"`
	Area          string               `bson:"area,omitempty" json:"area,omitempty"`
	Visibility    string               `bson:"visibility" json:"visibility"`
	Mode          string               `bson:"mode" json:"mode"`
	Single        *SingleStop          `bson:"single,omitempty" json:"single,omitempty"`
	Stops         []Stop               `bson:"stops,omitempty" json:"stops,omitempty"`
	ScheduledTime time.Time            `bson:"scheduled_time" json:"scheduled_time"`
	InvitedIDs    []primitive.ObjectID `bson:"invited_ids,omitempty" json:"invited_ids,omitempty"`
	AttendeeIDs   []primitive.ObjectID `bson:"attendee_ids" json:"attendee_ids"`
	AttendeeCount int                  `bson:"attendee_count" json:"attendee_count"`
	Status        string               `bson:"status" json:"status"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// Validate checks the mode/payload shape invariants.
func (p *Plan) Validate() error {
	switch p.Mode {
	case PlanModeSingle:
		if p.Single == nil || len(p.Stops) > 0 {
			return apperrors.Validation("single mode requires a spot payload and no stops")
		}
	case PlanModeMultiStop:
		if p.Single != nil {
			return apperrors.Validation("multi_stop mode must not carry a single payload")
		}
		if len(p.Stops) < 2 {
			return apperrors.Validation("multi_stop mode requires at least 2 stops")
		}
	default:
		return apperrors.Validation("unknown plan mode %q", p.Mode)
	}
	switch p.Visibility {
	case VisibilityPublic, VisibilityConnections, VisibilityInviteOnly:
	default:
		return apperrors.Validation("unknown visibility %q", p.Visibility)
	}
	return nil
}

// HasAttendee reports membership without touching the attendee collection.
func (p *Plan) HasAttendee(userID primitive.ObjectID) bool {
	for _, id := range p.AttendeeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsInvited reports whether the user is on the explicit invite list.
func (p *Plan) IsInvited(userID primitive.ObjectID) bool {
	for _, id := range p.InvitedIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// StopByID finds a stop by id, nil when absent.
func (p *Plan) StopByID(stopID primitive.ObjectID) *Stop {
	for i := range p.Stops {
		if p.Stops[i].ID == stopID {
			return &p.Stops[i]
		}
	}
	return nil
}

// NormalizeStops rewrites Order to 0..n-1 following slice position.
func NormalizeStops(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	copy(out, stops)
	for i := range out {
		out[i].Order = i
	}
	return out
}

// EarliestStopTime derives the plan-level scheduled time for sorting:
// single mode uses the spot time, multi mode the earliest stop time.
func (p *Plan) EarliestStopTime() time.Time {
	if p.Mode == PlanModeSingle && p.Single != nil {
		return p.Single.ScheduledTime
	}
	var earliest time.Time
	for _, s := range p.Stops {
		if earliest.IsZero() || s.ScheduledTime.Before(earliest) {
			earliest = s.ScheduledTime
		}
	}
	return earliest
}
