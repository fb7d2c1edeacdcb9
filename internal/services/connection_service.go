package services

import (
	"context"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository"
	"github.com/Arman334/CrewLink/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionService is the request state machine and connection graph:
// none → pending → accepted (connected) or rejected (back to none).
type ConnectionService struct {
	connRepo repository.ConnectionRepository
	userRepo repository.UserRepository
	notifSvc *NotificationService
}

func NewConnectionService(connRepo repository.ConnectionRepository, userRepo repository.UserRepository, notifSvc *NotificationService) *ConnectionService {
	return &ConnectionService{
		connRepo: connRepo,
		userRepo: userRepo,
		notifSvc: notifSvc,
	}
}

// SendConnectionRequest creates a pending request. Self-requests, duplicate
// pending requests in either direction and already-connected pairs conflict.
func (s *ConnectionService) SendConnectionRequest(ctx context.Context, fromID, toID primitive.ObjectID) (*models.ConnectionRequest, error) {
	if fromID == toID {
		return nil, apperrors.Conflict("cannot send a connection request to yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, toID); err != nil {
		return nil, err
	}

	if _, err := s.connRepo.GetConnectionByPair(ctx, fromID, toID); err == nil {
		return nil, apperrors.Conflict("users are already connected")
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	if _, err := s.connRepo.FindPendingBetween(ctx, fromID, toID); err == nil {
		return nil, apperrors.Conflict("a request is already pending between these users")
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	request := &models.ConnectionRequest{
		FromUserID: fromID,
		ToUserID:   toID,
	}
	created, err := s.connRepo.CreateRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, toID, models.NotifRequestReceived,
		"New connection request",
		"A crew member wants to connect with you.",
		&created.ID,
	)

	logger.Log.WithFields(map[string]interface{}{
		"from": fromID.Hex(),
		"to":   toID.Hex(),
	}).Info("Connection request sent")
	return created, nil
}

// AcceptConnectionRequest transitions pending → accepted and materializes
// the connection. Accepting an already-accepted request is a no-op that
// returns the existing connection; a rejected request stays rejected.
func (s *ConnectionService) AcceptConnectionRequest(ctx context.Context, callerID, requestID primitive.ObjectID) (*models.Connection, error) {
	request, err := s.connRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ToUserID != callerID {
		return nil, apperrors.Permission("only the receiver can accept a request")
	}

	switch request.Status {
	case models.RequestStatusAccepted:
		// Idempotent: the connection already exists.
		return s.connRepo.GetConnectionByPair(ctx, request.FromUserID, request.ToUserID)
	case models.RequestStatusRejected:
		return nil, apperrors.Conflict("request was already rejected")
	}

	transitioned, err := s.connRepo.TransitionRequest(ctx, requestID, models.RequestStatusPending, models.RequestStatusAccepted, time.Now())
	if err != nil {
		return nil, err
	}
	if !transitioned {
		// Lost a race with another responder; re-read and settle on the
		// terminal state that won.
		return s.AcceptConnectionRequest(ctx, callerID, requestID)
	}

	conn, err := s.connRepo.CreateConnection(ctx, models.NewConnection(request.FromUserID, request.ToUserID))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.AddConnection(ctx, request.FromUserID, request.ToUserID); err != nil {
		logger.Log.WithError(err).Warn("Failed to mirror connection on sender")
	}
	if err := s.userRepo.AddConnection(ctx, request.ToUserID, request.FromUserID); err != nil {
		logger.Log.WithError(err).Warn("Failed to mirror connection on receiver")
	}

	s.notifSvc.Notify(ctx, request.FromUserID, models.NotifRequestAccepted,
		"Connection request accepted",
		"Your connection request was accepted.",
		&conn.ID,
	)
	// The caller's own badge shrinks too: one fewer pending request.
	s.notifSvc.PublishBadge(ctx, callerID)

	logger.Log.WithField("pair", conn.PairKey).Info("Connection established")
	return conn, nil
}

// RejectConnectionRequest transitions pending → rejected. No connection is
// created and either side may send a fresh request later. Re-rejecting is a
// no-op; rejecting an accepted request conflicts.
func (s *ConnectionService) RejectConnectionRequest(ctx context.Context, callerID, requestID primitive.ObjectID) error {
	request, err := s.connRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.ToUserID != callerID {
		return apperrors.Permission("only the receiver can reject a request")
	}

	switch request.Status {
	case models.RequestStatusRejected:
		return nil
	case models.RequestStatusAccepted:
		return apperrors.Conflict("request was already accepted")
	}

	if _, err := s.connRepo.TransitionRequest(ctx, requestID, models.RequestStatusPending, models.RequestStatusRejected, time.Now()); err != nil {
		return err
	}
	s.notifSvc.PublishBadge(ctx, callerID)
	return nil
}

// IsConnected reports whether the pair has an established connection.
func (s *ConnectionService) IsConnected(ctx context.Context, a, b primitive.ObjectID) (bool, error) {
	_, err := s.connRepo.GetConnectionByPair(ctx, a, b)
	if err == nil {
		return true, nil
	}
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		return false, nil
	}
	return false, err
}

// PendingOutgoing returns the user ids the caller has open requests to.
func (s *ConnectionService) PendingOutgoing(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	requests, err := s.connRepo.ListPendingBySender(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]primitive.ObjectID, 0, len(requests))
	for _, req := range requests {
		out = append(out, req.ToUserID)
	}
	return out, nil
}

// PendingIncoming returns the open requests awaiting the caller's response.
func (s *ConnectionService) PendingIncoming(ctx context.Context, userID primitive.ObjectID) ([]models.ConnectionRequest, error) {
	requests, err := s.connRepo.ListPendingByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.ConnectionRequest{}
	}
	return requests, nil
}

// ListConnections returns the caller's connections with the other party
// resolved to a public profile.
func (s *ConnectionService) ListConnections(ctx context.Context, userID primitive.ObjectID) ([]ConnectionView, error) {
	conns, err := s.connRepo.ListConnections(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ConnectionView, 0, len(conns))
	for _, conn := range conns {
		otherID := conn.Other(userID)
		view := ConnectionView{
			ID:     conn.ID,
			Unread: conn.Unread[userID.Hex()],
		}
		if other, err := s.userRepo.GetByID(ctx, otherID); err == nil {
			view.User = other.Public()
		} else {
			view.User = models.PublicUser{ID: otherID}
		}
		views = append(views, view)
	}
	return views, nil
}

// RemoveConnection unfriends: deletes the pair record and both mirror
// entries. Either party may do it.
func (s *ConnectionService) RemoveConnection(ctx context.Context, callerID, connectionID primitive.ObjectID) error {
	conn, err := s.connRepo.GetConnectionByID(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.Includes(callerID) {
		return apperrors.Permission("connection does not involve caller")
	}

	if err := s.connRepo.DeleteConnection(ctx, connectionID); err != nil {
		return err
	}
	other := conn.Other(callerID)
	if err := s.userRepo.RemoveConnection(ctx, callerID, other); err != nil {
		logger.Log.WithError(err).Warn("Failed to unmirror connection on caller")
	}
	if err := s.userRepo.RemoveConnection(ctx, other, callerID); err != nil {
		logger.Log.WithError(err).Warn("Failed to unmirror connection on other user")
	}
	return nil
}

// ConnectionView is a connection as seen by one of its parties.
type ConnectionView struct {
	ID     primitive.ObjectID `json:"id"`
	User   models.PublicUser  `json:"user"`
	Unread int64              `json:"unread"`
}
