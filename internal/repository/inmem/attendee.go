package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type attendeeKey struct {
	planID primitive.ObjectID
	userID primitive.ObjectID
}

type AttendeeRepository struct {
	mu        sync.Mutex
	attendees map[attendeeKey]*models.Attendee
}

func NewAttendeeRepository() *AttendeeRepository {
	return &AttendeeRepository{attendees: make(map[attendeeKey]*models.Attendee)}
}

func (r *AttendeeRepository) Upsert(_ context.Context, attendee *models.Attendee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := attendeeKey{attendee.PlanID, attendee.UserID}
	now := time.Now()
	if existing, ok := r.attendees[key]; ok {
		existing.RSVPStatus = attendee.RSVPStatus
		existing.AllStops = attendee.AllStops
		existing.StopsAttending = append([]primitive.ObjectID(nil), attendee.StopsAttending...)
		existing.UpdatedAt = now
		return nil
	}

	cp := *attendee
	if cp.ID.IsZero() {
		cp.ID = primitive.NewObjectID()
	}
	cp.StopsAttending = append([]primitive.ObjectID(nil), attendee.StopsAttending...)
	cp.CreatedAt = now
	cp.UpdatedAt = now
	r.attendees[key] = &cp
	return nil
}

func (r *AttendeeRepository) Get(_ context.Context, planID, userID primitive.ObjectID) (*models.Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.attendees[attendeeKey{planID, userID}]
	if !ok {
		return nil, apperrors.NotFound("attendee record not found")
	}
	cp := *a
	return &cp, nil
}

func (r *AttendeeRepository) Delete(_ context.Context, planID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.attendees, attendeeKey{planID, userID})
	return nil
}

func (r *AttendeeRepository) ListByPlan(_ context.Context, planID primitive.ObjectID) ([]models.Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Attendee
	for key, a := range r.attendees {
		if key.planID == planID {
			out = append(out, *a)
		}
	}
	return out, nil
}
