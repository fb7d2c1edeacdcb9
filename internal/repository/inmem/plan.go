package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanRepository mirrors the Mongo adapter's pipeline-update semantics:
// Add/RemoveAttendee are atomic set-union/set-difference operations under
// one lock, with the count always recomputed from the resulting set.
type PlanRepository struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*models.Plan
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[primitive.ObjectID]*models.Plan)}
}

func (r *PlanRepository) Create(_ context.Context, plan *models.Plan) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if plan.ID.IsZero() {
		plan.ID = primitive.NewObjectID()
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = plan.CreatedAt

	cp := clonePlan(plan)
	r.plans[plan.ID] = cp
	return plan, nil
}

func (r *PlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, apperrors.NotFound("plan %s not found", id.Hex())
	}
	return clonePlan(p), nil
}

func (r *PlanRepository) ListByCity(_ context.Context, city string) ([]models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Plan
	for _, p := range r.plans {
		if p.City == city && p.Status == models.PlanStatusActive {
			out = append(out, *clonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	return out, nil
}

func (r *PlanRepository) AddAttendee(_ context.Context, planID, userID primitive.ObjectID) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok {
		return nil, apperrors.NotFound("plan %s not found", planID.Hex())
	}
	if !p.HasAttendee(userID) {
		p.AttendeeIDs = append(p.AttendeeIDs, userID)
	}
	p.AttendeeCount = len(p.AttendeeIDs)
	p.UpdatedAt = time.Now()
	return clonePlan(p), nil
}

func (r *PlanRepository) RemoveAttendee(_ context.Context, planID, userID primitive.ObjectID) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok {
		return nil, apperrors.NotFound("plan %s not found", planID.Hex())
	}
	out := p.AttendeeIDs[:0]
	for _, id := range p.AttendeeIDs {
		if id != userID {
			out = append(out, id)
		}
	}
	p.AttendeeIDs = out
	p.AttendeeCount = len(p.AttendeeIDs)
	p.UpdatedAt = time.Now()
	return clonePlan(p), nil
}

func (r *PlanRepository) AddInvite(_ context.Context, planID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok {
		return apperrors.NotFound("plan %s not found", planID.Hex())
	}
	if !p.IsInvited(userID) {
		p.InvitedIDs = append(p.InvitedIDs, userID)
	}
	return nil
}

func (r *PlanRepository) ReplaceStops(_ context.Context, planID primitive.ObjectID, stops []models.Stop, scheduledTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok {
		return apperrors.NotFound("plan %s not found", planID.Hex())
	}
	p.Stops = append([]models.Stop(nil), stops...)
	p.ScheduledTime = scheduledTime
	p.UpdatedAt = time.Now()
	return nil
}

func (r *PlanRepository) TransitionStatus(_ context.Context, planID primitive.ObjectID, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plans[planID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return true, nil
}

func clonePlan(p *models.Plan) *models.Plan {
	cp := *p
	cp.Stops = append([]models.Stop(nil), p.Stops...)
	cp.InvitedIDs = append([]primitive.ObjectID(nil), p.InvitedIDs...)
	cp.AttendeeIDs = append([]primitive.ObjectID(nil), p.AttendeeIDs...)
	if p.Single != nil {
		single := *p.Single
		cp.Single = &single
	}
	return &cp
}
