package services

import (
	"context"
	"strings"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository"
	"github.com/Arman334/CrewLink/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanService creates and manages meetup plans: visibility tiers, attendee
// membership and itinerary ordering. Membership writes go through the plan
// repository's set-union/set-difference updates, so concurrent joins and
// leaves cannot lose each other; stop ordering is owned by the host alone.
type PlanService struct {
	planRepo     repository.PlanRepository
	attendeeRepo repository.AttendeeRepository
	connRepo     repository.ConnectionRepository
	notifSvc     *NotificationService

	now func() time.Time
}

func NewPlanService(planRepo repository.PlanRepository, attendeeRepo repository.AttendeeRepository, connRepo repository.ConnectionRepository, notifSvc *NotificationService) *PlanService {
	return &PlanService{
		planRepo:     planRepo,
		attendeeRepo: attendeeRepo,
		connRepo:     connRepo,
		notifSvc:     notifSvc,
		now:          time.Now,
	}
}

// SetNowForTest overrides the clock for deterministic tests.
func (s *PlanService) SetNowForTest(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// StopInput is one itinerary entry as submitted by the host, in intended
// sequence order.
type StopInput struct {
	SpotID        string
	SpotName      string
	ScheduledTime time.Time
}

type CreatePlanInput struct {
	Title      string
	City       string
	Area       string
	Visibility string
	Mode       string
	// Single-mode payload.
	SpotID        string
	SpotName      string
	ScheduledTime time.Time
	// Multi-stop payload, in itinerary order.
	Stops []StopInput
}

// CreatePlan validates the payload shape for the requested mode, stamps the
// host as the first attendee and writes the host's RSVP record. The plan
// document and the attendee record are separate writes; the plan document's
// attendee set is authoritative, so a crash between the two leaves only the
// RSVP detail missing and JoinPlan's upsert heals it on the next touch.
func (s *PlanService) CreatePlan(ctx context.Context, hostID primitive.ObjectID, in CreatePlanInput) (*models.Plan, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.Validation("title is required")
	}
	if strings.TrimSpace(in.City) == "" {
		return nil, apperrors.Validation("city is required")
	}

	plan := &models.Plan{
		HostUserID:  hostID,
		Title:       strings.TrimSpace(in.Title),
		City:        strings.TrimSpace(in.City),
		Area:        strings.TrimSpace(in.Area),
		Visibility:  in.Visibility,
		Mode:        in.Mode,
		AttendeeIDs: []primitive.ObjectID{hostID},
		Status:      models.PlanStatusActive,
	}
	plan.AttendeeCount = len(plan.AttendeeIDs)

	switch in.Mode {
	case models.PlanModeSingle:
		if strings.TrimSpace(in.SpotID) == "" {
			return nil, apperrors.Validation("spot is required for a single-stop plan")
		}
		if !in.ScheduledTime.After(s.now()) {
			return nil, apperrors.Validation("scheduled time must be in the future")
		}
		plan.Single = &models.SingleStop{
			SpotID:        in.SpotID,
			SpotName:      in.SpotName,
			ScheduledTime: in.ScheduledTime,
		}
	case models.PlanModeMultiStop:
		if len(in.Stops) < 2 {
			return nil, apperrors.Validation("a multi-stop plan needs at least 2 stops")
		}
		stops := make([]models.Stop, 0, len(in.Stops))
		for _, stop := range in.Stops {
			if strings.TrimSpace(stop.SpotID) == "" {
				return nil, apperrors.Validation("every stop needs a spot")
			}
			if stop.ScheduledTime.IsZero() {
				return nil, apperrors.Validation("every stop needs a scheduled time")
			}
			stops = append(stops, models.Stop{
				ID:            primitive.NewObjectID(),
				SpotID:        stop.SpotID,
				SpotName:      stop.SpotName,
				ScheduledTime: stop.ScheduledTime,
			})
		}
		plan.Stops = models.NormalizeStops(stops)
	}

	plan.ScheduledTime = plan.EarliestStopTime()
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	created, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}

	hostAttendee := &models.Attendee{
		PlanID:     created.ID,
		UserID:     hostID,
		RSVPStatus: models.RSVPGoing,
		AllStops:   true,
	}
	if err := s.attendeeRepo.Upsert(ctx, hostAttendee); err != nil {
		// The plan document already carries the host in attendee_ids; only
		// the RSVP detail is missing and a later join upserts it.
		logger.Log.WithError(err).WithField("planID", created.ID.Hex()).Warn("Failed to write host attendee record")
	}

	logger.Log.WithFields(map[string]interface{}{
		"planID": created.ID.Hex(),
		"mode":   created.Mode,
		"city":   created.City,
	}).Info("Plan created")
	return created, nil
}

// CanView applies the visibility tier. A false answer is a result, never an
// error: callers that must not see the plan get NotFound from GetPlan.
func (s *PlanService) CanView(ctx context.Context, plan *models.Plan, viewerID primitive.ObjectID) (bool, error) {
	if plan.HostUserID == viewerID {
		return true, nil
	}
	switch plan.Visibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityConnections:
		_, err := s.connRepo.GetConnectionByPair(ctx, plan.HostUserID, viewerID)
		if err == nil {
			return true, nil
		}
		if apperrors.IsKind(err, apperrors.KindNotFound) {
			return false, nil
		}
		return false, err
	case models.VisibilityInviteOnly:
		return plan.IsInvited(viewerID) || plan.HasAttendee(viewerID), nil
	}
	return false, nil
}

// GetPlan returns the plan when the viewer may see it, NotFound otherwise —
// an invite-only plan's existence is not leaked to outsiders.
func (s *PlanService) GetPlan(ctx context.Context, viewerID, planID primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	visible, err := s.CanView(ctx, plan, viewerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.NotFound("plan %s not found", planID.Hex())
	}
	return plan, nil
}

// ListPlansForCity returns the active plans in a city the viewer may see.
func (s *PlanService) ListPlansForCity(ctx context.Context, viewerID primitive.ObjectID, city string) ([]models.Plan, error) {
	if strings.TrimSpace(city) == "" {
		return nil, apperrors.Validation("city is required")
	}
	plans, err := s.planRepo.ListByCity(ctx, strings.TrimSpace(city))
	if err != nil {
		return nil, err
	}

	visible := make([]models.Plan, 0, len(plans))
	for i := range plans {
		ok, err := s.CanView(ctx, &plans[i], viewerID)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, plans[i])
		}
	}
	return visible, nil
}

// JoinPlan adds the caller to the attendee set. The set-union write makes
// concurrent joins safe and repeated joins a no-op; the RSVP record is
// upserted either way.
func (s *PlanService) JoinPlan(ctx context.Context, callerID, planID primitive.ObjectID, rsvp string, stopsAttending []primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.Status == models.PlanStatusCanceled {
		return nil, apperrors.Conflict("plan is canceled")
	}

	visible, err := s.CanView(ctx, plan, callerID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.Permission("plan is not open to this user")
	}

	if !models.ValidRSVP(rsvp) {
		return nil, apperrors.Validation("invalid rsvp status %q", rsvp)
	}

	attendee := &models.Attendee{
		PlanID:     planID,
		UserID:     callerID,
		RSVPStatus: rsvp,
		AllStops:   true,
	}
	if len(stopsAttending) > 0 {
		if plan.Mode != models.PlanModeMultiStop {
			return nil, apperrors.Validation("stop selection only applies to multi-stop plans")
		}
		for _, stopID := range stopsAttending {
			if plan.StopByID(stopID) == nil {
				return nil, apperrors.Validation("stop %s is not part of the plan", stopID.Hex())
			}
		}
		attendee.AllStops = false
		attendee.StopsAttending = stopsAttending
	}

	wasMember := plan.HasAttendee(callerID)

	updated, err := s.planRepo.AddAttendee(ctx, planID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.attendeeRepo.Upsert(ctx, attendee); err != nil {
		return nil, err
	}

	if !wasMember && callerID != plan.HostUserID {
		s.notifSvc.Notify(ctx, plan.HostUserID, models.NotifPlanJoined,
			"Someone joined your plan",
			"A crew member joined \""+plan.Title+"\".",
			&planID,
		)
	}
	return updated, nil
}

// LeavePlan removes the caller from the attendee set. The host cannot
// leave — canceling is the host's exit. Leaving a plan you are not part of
// is a no-op.
func (s *PlanService) LeavePlan(ctx context.Context, callerID, planID primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.HostUserID == callerID {
		return nil, apperrors.Permission("the host cannot leave the plan; cancel it instead")
	}

	updated, err := s.planRepo.RemoveAttendee(ctx, planID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.attendeeRepo.Delete(ctx, planID, callerID); err != nil {
		logger.Log.WithError(err).Warn("Failed to delete attendee record")
	}
	return updated, nil
}

// CancelPlan moves the plan to its terminal state and notifies attendees.
func (s *PlanService) CancelPlan(ctx context.Context, callerID, planID primitive.ObjectID) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.HostUserID != callerID {
		return apperrors.Permission("only the host can cancel the plan")
	}

	transitioned, err := s.planRepo.TransitionStatus(ctx, planID, models.PlanStatusActive, models.PlanStatusCanceled)
	if err != nil {
		return err
	}
	if !transitioned {
		// Already canceled; keep the operation idempotent.
		return nil
	}

	for _, attendeeID := range plan.AttendeeIDs {
		if attendeeID == plan.HostUserID {
			continue
		}
		s.notifSvc.Notify(ctx, attendeeID, models.NotifPlanCanceled,
			"Plan canceled",
			"\""+plan.Title+"\" was canceled by the host.",
			&planID,
		)
	}
	return nil
}

// InviteToPlan puts a user on the explicit invite list. Idempotent.
func (s *PlanService) InviteToPlan(ctx context.Context, callerID, planID, userID primitive.ObjectID) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.HostUserID != callerID {
		return apperrors.Permission("only the host can invite to the plan")
	}
	if plan.Status == models.PlanStatusCanceled {
		return apperrors.Conflict("plan is canceled")
	}

	if err := s.planRepo.AddInvite(ctx, planID, userID); err != nil {
		return err
	}
	s.notifSvc.Notify(ctx, userID, models.NotifPlanInvite,
		"Plan invitation",
		"You were invited to \""+plan.Title+"\".",
		&planID,
	)
	return nil
}

// ReorderStops installs a new itinerary sequence. The submitted ids must be
// exactly a permutation of the current stops; order values come back dense
// 0..n-1 and the plan-level scheduled time is re-derived.
func (s *PlanService) ReorderStops(ctx context.Context, callerID, planID primitive.ObjectID, stopIDs []primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.hostedMultiStopPlan(ctx, callerID, planID)
	if err != nil {
		return nil, err
	}

	if len(stopIDs) != len(plan.Stops) {
		return nil, apperrors.Validation("reorder must include every stop exactly once")
	}
	seen := make(map[primitive.ObjectID]bool, len(stopIDs))
	reordered := make([]models.Stop, 0, len(stopIDs))
	for _, stopID := range stopIDs {
		if seen[stopID] {
			return nil, apperrors.Validation("stop %s appears more than once", stopID.Hex())
		}
		seen[stopID] = true
		stop := plan.StopByID(stopID)
		if stop == nil {
			return nil, apperrors.Validation("stop %s is not part of the plan", stopID.Hex())
		}
		reordered = append(reordered, *stop)
	}

	return s.replaceStops(ctx, plan, reordered)
}

// RemoveStop deletes one stop and renumbers the rest. A multi-stop plan
// keeps at least 2 stops.
func (s *PlanService) RemoveStop(ctx context.Context, callerID, planID, stopID primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.hostedMultiStopPlan(ctx, callerID, planID)
	if err != nil {
		return nil, err
	}
	if plan.StopByID(stopID) == nil {
		return nil, apperrors.NotFound("stop %s not found", stopID.Hex())
	}
	if len(plan.Stops) <= 2 {
		return nil, apperrors.Validation("a multi-stop plan needs at least 2 stops")
	}

	remaining := make([]models.Stop, 0, len(plan.Stops)-1)
	for _, stop := range plan.Stops {
		if stop.ID != stopID {
			remaining = append(remaining, stop)
		}
	}
	return s.replaceStops(ctx, plan, remaining)
}

func (s *PlanService) replaceStops(ctx context.Context, plan *models.Plan, stops []models.Stop) (*models.Plan, error) {
	normalized := models.NormalizeStops(stops)
	plan.Stops = normalized
	scheduledTime := plan.EarliestStopTime()

	if err := s.planRepo.ReplaceStops(ctx, plan.ID, normalized, scheduledTime); err != nil {
		return nil, err
	}
	plan.ScheduledTime = scheduledTime
	return plan, nil
}

func (s *PlanService) hostedMultiStopPlan(ctx context.Context, callerID, planID primitive.ObjectID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.HostUserID != callerID {
		return nil, apperrors.Permission("only the host can edit the itinerary")
	}
	if plan.Status == models.PlanStatusCanceled {
		return nil, apperrors.Conflict("plan is canceled")
	}
	if plan.Mode != models.PlanModeMultiStop {
		return nil, apperrors.Validation("plan has no itinerary to edit")
	}
	return plan, nil
}

// ListAttendees returns the RSVP detail records for a plan the viewer can
// see.
func (s *PlanService) ListAttendees(ctx context.Context, viewerID, planID primitive.ObjectID) ([]models.Attendee, error) {
	if _, err := s.GetPlan(ctx, viewerID, planID); err != nil {
		return nil, err
	}
	attendees, err := s.attendeeRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []models.Attendee{}
	}
	return attendees, nil
}
