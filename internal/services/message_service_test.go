package services

import (
	"context"
	"testing"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type msgFixture struct {
	conns    *inmem.ConnectionRepository
	svc      *MessageService
	notifSvc *NotificationService
}

func newMsgFixture() *msgFixture {
	conns := inmem.NewConnectionRepository()
	notifSvc := NewNotificationService(inmem.NewNotificationRepository(), conns, nil)
	return &msgFixture{
		conns:    conns,
		svc:      NewMessageService(inmem.NewMessageRepository(), conns, notifSvc),
		notifSvc: notifSvc,
	}
}

func TestSendMessageBumpsUnread(t *testing.T) {
	ctx := context.Background()
	f := newMsgFixture()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	conn, err := f.conns.CreateConnection(ctx, models.NewConnection(alice, bob))
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice, conn.ID, "see you at the lobby")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, alice, conn.ID, "bring an umbrella")
	require.NoError(t, err)

	stored, err := f.conns.GetConnectionByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Unread[bob.Hex()])
	assert.Equal(t, int64(0), stored.Unread[alice.Hex()])

	// The recipient's badge reflects the counter.
	total, err := f.notifSvc.AggregateUnreadCount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	messages, err := f.svc.ListMessages(ctx, bob, conn.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSendMessageGuards(t *testing.T) {
	ctx := context.Background()
	f := newMsgFixture()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	eve := primitive.NewObjectID()
	conn, err := f.conns.CreateConnection(ctx, models.NewConnection(alice, bob))
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, eve, conn.ID, "hi")
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "outsider cannot send")

	_, err = f.svc.SendMessage(ctx, alice, conn.ID, "   ")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "blank text")

	_, err = f.svc.ListMessages(ctx, eve, conn.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))
}

func TestMarkConversationRead(t *testing.T) {
	ctx := context.Background()
	f := newMsgFixture()

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	conn, err := f.conns.CreateConnection(ctx, models.NewConnection(alice, bob))
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice, conn.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkConversationRead(ctx, bob, conn.ID))
	// Idempotent.
	require.NoError(t, f.svc.MarkConversationRead(ctx, bob, conn.ID))

	stored, err := f.conns.GetConnectionByID(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.Unread[bob.Hex()])
}
