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

// MatcherService finds crew whose discoverable layovers overlap a query
// window. It is read-only: no result is ever an error, and an empty city has
// an empty answer.
type MatcherService struct {
	layoverRepo repository.LayoverRepository
	userRepo    repository.UserRepository
	connRepo    repository.ConnectionRepository
}

func NewMatcherService(layoverRepo repository.LayoverRepository, userRepo repository.UserRepository, connRepo repository.ConnectionRepository) *MatcherService {
	return &MatcherService{
		layoverRepo: layoverRepo,
		userRepo:    userRepo,
		connRepo:    connRepo,
	}
}

// FindOverlappingCrew returns one candidate per user with a discoverable
// layover in the city intersecting [start, end] inclusively. The store query
// is indexed by (city, discoverable, start_date), so matching never scans
// the user collection. When a user has several overlapping layovers, the one
// with the earliest start date is reported, smaller id breaking ties — the
// repository sort order makes the first layover seen per user the winner.
func (s *MatcherService) FindOverlappingCrew(ctx context.Context, requesterID primitive.ObjectID, city string, start, end time.Time) ([]models.CrewCandidate, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, apperrors.Validation("city is required")
	}
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, apperrors.Validation("invalid query window")
	}

	layovers, err := s.layoverRepo.FindDiscoverable(ctx, city, start, end, requesterID)
	if err != nil {
		return nil, err
	}
	if len(layovers) == 0 {
		return []models.CrewCandidate{}, nil
	}

	// First layover per user wins; the repo sort makes that deterministic.
	picked := make(map[primitive.ObjectID]models.Layover)
	order := make([]primitive.ObjectID, 0, len(layovers))
	for _, l := range layovers {
		if _, seen := picked[l.UserID]; seen {
			continue
		}
		picked[l.UserID] = l
		order = append(order, l.UserID)
	}

	users, err := s.userRepo.GetByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	outgoing, err := s.pendingOutgoingSet(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	connected, err := s.connectedSet(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.CrewCandidate, 0, len(order))
	for _, userID := range order {
		user, ok := byID[userID]
		if !ok {
			// Layover without an account is stale data; skip it.
			logger.Log.WithField("userID", userID.Hex()).Warn("Layover references missing user")
			continue
		}

		status := models.ConnStatusNone
		if connected[userID] {
			status = models.ConnStatusConnected
		} else if outgoing[userID] {
			status = models.ConnStatusPendingOutgoing
		}

		candidates = append(candidates, models.CrewCandidate{
			UserID:           user.ID,
			DisplayName:      user.DisplayName,
			Airline:          user.Airline,
			Base:             user.Base,
			Layover:          picked[userID],
			ConnectionStatus: status,
		})
	}
	return candidates, nil
}

func (s *MatcherService) pendingOutgoingSet(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	requests, err := s.connRepo.ListPendingBySender(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]bool, len(requests))
	for _, req := range requests {
		out[req.ToUserID] = true
	}
	return out, nil
}

func (s *MatcherService) connectedSet(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	conns, err := s.connRepo.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]bool, len(conns))
	for _, conn := range conns {
		out[conn.Other(userID)] = true
	}
	return out, nil
}
