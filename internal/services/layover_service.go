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

// LayoverService owns a user's travel windows. Layovers are mutated only by
// their owner; expiry is a status transition driven by the scheduler, never
// a deletion.
type LayoverService struct {
	layoverRepo repository.LayoverRepository

	now func() time.Time
}

func NewLayoverService(layoverRepo repository.LayoverRepository) *LayoverService {
	return &LayoverService{
		layoverRepo: layoverRepo,
		now:         time.Now,
	}
}

// SetNowForTest overrides the clock for deterministic tests.
func (s *LayoverService) SetNowForTest(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

type CreateLayoverInput struct {
	City         string
	Area         string
	StartDate    time.Time
	EndDate      time.Time
	Discoverable bool
	Notes        string
}

func (s *LayoverService) CreateLayover(ctx context.Context, ownerID primitive.ObjectID, in CreateLayoverInput) (*models.Layover, error) {
	if err := validateWindow(in.City, in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	layover := &models.Layover{
		UserID:       ownerID,
		City:         strings.TrimSpace(in.City),
		Area:         strings.TrimSpace(in.Area),
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Discoverable: in.Discoverable,
		Notes:        in.Notes,
	}
	layover.Status = layover.StatusAt(s.now())

	created, err := s.layoverRepo.Create(ctx, layover)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create layover")
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"layoverID": created.ID.Hex(),
		"city":      created.City,
	}).Info("Layover created")
	return created, nil
}

func (s *LayoverService) UpdateLayover(ctx context.Context, callerID, layoverID primitive.ObjectID, in CreateLayoverInput) (*models.Layover, error) {
	layover, err := s.ownedLayover(ctx, callerID, layoverID)
	if err != nil {
		return nil, err
	}
	if err := validateWindow(in.City, in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	layover.City = strings.TrimSpace(in.City)
	layover.Area = strings.TrimSpace(in.Area)
	layover.StartDate = in.StartDate
	layover.EndDate = in.EndDate
	layover.Discoverable = in.Discoverable
	layover.Notes = in.Notes
	layover.Status = layover.StatusAt(s.now())

	return s.layoverRepo.Update(ctx, layover)
}

// SetDiscoverable toggles whether the layover surfaces in crew matching.
func (s *LayoverService) SetDiscoverable(ctx context.Context, callerID, layoverID primitive.ObjectID, discoverable bool) (*models.Layover, error) {
	layover, err := s.ownedLayover(ctx, callerID, layoverID)
	if err != nil {
		return nil, err
	}
	layover.Discoverable = discoverable
	return s.layoverRepo.Update(ctx, layover)
}

func (s *LayoverService) DeleteLayover(ctx context.Context, callerID, layoverID primitive.ObjectID) error {
	if _, err := s.ownedLayover(ctx, callerID, layoverID); err != nil {
		return err
	}
	return s.layoverRepo.Delete(ctx, layoverID)
}

// ListLayovers returns the caller's layovers ordered by start date.
func (s *LayoverService) ListLayovers(ctx context.Context, callerID primitive.ObjectID) ([]models.Layover, error) {
	layovers, err := s.layoverRepo.ListByUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if layovers == nil {
		layovers = []models.Layover{}
	}
	return layovers, nil
}

// RollStatuses advances layover lifecycle states; called by the scheduler.
func (s *LayoverService) RollStatuses(ctx context.Context) (int64, error) {
	return s.layoverRepo.RollStatuses(ctx, s.now())
}

func (s *LayoverService) ownedLayover(ctx context.Context, callerID, layoverID primitive.ObjectID) (*models.Layover, error) {
	layover, err := s.layoverRepo.GetByID(ctx, layoverID)
	if err != nil {
		return nil, err
	}
	if layover.UserID != callerID {
		return nil, apperrors.Permission("layover %s does not belong to caller", layoverID.Hex())
	}
	return layover, nil
}

func validateWindow(city string, start, end time.Time) error {
	if strings.TrimSpace(city) == "" {
		return apperrors.Validation("city is required")
	}
	if start.IsZero() || end.IsZero() {
		return apperrors.Validation("start and end dates are required")
	}
	if !start.Before(end) {
		return apperrors.Validation("start date must be before end date")
	}
	return nil
}
