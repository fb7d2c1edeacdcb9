package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type connFixture struct {
	conns  *inmem.ConnectionRepository
	users  *inmem.UserRepository
	notifs *inmem.NotificationRepository
	svc    *ConnectionService
}

func newConnFixture() *connFixture {
	conns := inmem.NewConnectionRepository()
	users := inmem.NewUserRepository()
	notifs := inmem.NewNotificationRepository()
	notifSvc := NewNotificationService(notifs, conns, nil)
	return &connFixture{
		conns:  conns,
		users:  users,
		notifs: notifs,
		svc:    NewConnectionService(conns, users, notifSvc),
	}
}

func (f *connFixture) addUser(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	u, err := f.users.Create(context.Background(), &models.User{
		DisplayName: name,
		Email:       fmt.Sprintf("%s@crew.test", name),
	})
	require.NoError(t, err)
	return u.ID
}

func TestSendConnectionRequest(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, alice, req.FromUserID)
	assert.Equal(t, bob, req.ToUserID)

	// The receiver got a notification.
	notifs, err := f.notifs.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifRequestReceived, notifs[0].Type)
}

func TestSendConnectionRequestConflicts(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	_, err := f.svc.SendConnectionRequest(ctx, alice, alice)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "self-request")

	_, err = f.svc.SendConnectionRequest(ctx, alice, primitive.NewObjectID())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "unknown receiver")

	_, err = f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)

	// Duplicate in the same direction and the reverse direction both conflict.
	_, err = f.svc.SendConnectionRequest(ctx, alice, bob)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	_, err = f.svc.SendConnectionRequest(ctx, bob, alice)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestAcceptConnectionRequest(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)

	// Only the receiver may accept.
	_, err = f.svc.AcceptConnectionRequest(ctx, alice, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	conn, err := f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	require.NoError(t, err)
	assert.True(t, conn.Includes(alice))
	assert.True(t, conn.Includes(bob))

	connected, err := f.svc.IsConnected(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, connected)

	// Both mirror arrays were updated.
	a, err := f.users.GetByID(ctx, alice)
	require.NoError(t, err)
	assert.Contains(t, a.Connections, bob)
	b, err := f.users.GetByID(ctx, bob)
	require.NoError(t, err)
	assert.Contains(t, b.Connections, alice)

	// Accepting again is a no-op returning the same connection.
	again, err := f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, again.ID)

	// The sender was told.
	notifs, err := f.notifs.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifRequestAccepted, notifs[0].Type)

	// A connected pair cannot open a new request.
	_, err = f.svc.SendConnectionRequest(ctx, bob, alice)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestRejectConnectionRequest(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)

	err = f.svc.RejectConnectionRequest(ctx, alice, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "sender cannot reject")

	require.NoError(t, f.svc.RejectConnectionRequest(ctx, bob, req.ID))

	// Re-rejecting is a no-op; no connection was made.
	require.NoError(t, f.svc.RejectConnectionRequest(ctx, bob, req.ID))
	connected, err := f.svc.IsConnected(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, connected)

	// Accepting a rejected request conflicts.
	_, err = f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Either side may try again with a fresh request.
	_, err = f.svc.SendConnectionRequest(ctx, bob, alice)
	require.NoError(t, err)
}

func TestRejectAcceptedRequestConflicts(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)
	_, err = f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	require.NoError(t, err)

	err = f.svc.RejectConnectionRequest(ctx, bob, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestRemoveConnection(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	eve := f.addUser(t, "eve")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)
	conn, err := f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	require.NoError(t, err)

	err = f.svc.RemoveConnection(ctx, eve, conn.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "outsider cannot remove")

	require.NoError(t, f.svc.RemoveConnection(ctx, alice, conn.ID))

	connected, err := f.svc.IsConnected(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, connected)

	a, err := f.users.GetByID(ctx, alice)
	require.NoError(t, err)
	assert.NotContains(t, a.Connections, bob)

	// After removal the pair may reconnect from scratch.
	_, err = f.svc.SendConnectionRequest(ctx, bob, alice)
	require.NoError(t, err)
}

func TestListConnections(t *testing.T) {
	ctx := context.Background()
	f := newConnFixture()
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	req, err := f.svc.SendConnectionRequest(ctx, alice, bob)
	require.NoError(t, err)
	conn, err := f.svc.AcceptConnectionRequest(ctx, bob, req.ID)
	require.NoError(t, err)

	require.NoError(t, f.conns.IncrementUnread(ctx, conn.ID, alice, 2))

	views, err := f.svc.ListConnections(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, bob, views[0].User.ID)
	assert.Equal(t, "bob", views[0].User.DisplayName)
	assert.Equal(t, int64(2), views[0].Unread)
}
