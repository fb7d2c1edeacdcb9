package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

type matcherFixture struct {
	layovers *inmem.LayoverRepository
	users    *inmem.UserRepository
	conns    *inmem.ConnectionRepository
	svc      *MatcherService
}

func newMatcherFixture() *matcherFixture {
	layovers := inmem.NewLayoverRepository()
	users := inmem.NewUserRepository()
	conns := inmem.NewConnectionRepository()
	return &matcherFixture{
		layovers: layovers,
		users:    users,
		conns:    conns,
		svc:      NewMatcherService(layovers, users, conns),
	}
}

func (f *matcherFixture) addUser(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	u, err := f.users.Create(context.Background(), &models.User{
		DisplayName: name,
		Email:       fmt.Sprintf("%s@crew.test", name),
	})
	require.NoError(t, err)
	return u.ID
}

func (f *matcherFixture) addLayover(t *testing.T, userID primitive.ObjectID, city string, start, end time.Time, discoverable bool) primitive.ObjectID {
	t.Helper()
	l, err := f.layovers.Create(context.Background(), &models.Layover{
		UserID:       userID,
		City:         city,
		StartDate:    start,
		EndDate:      end,
		Discoverable: discoverable,
	})
	require.NoError(t, err)
	return l.ID
}

func TestFindOverlappingCrew(t *testing.T) {
	ctx := context.Background()
	f := newMatcherFixture()

	me := f.addUser(t, "me")
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	carol := f.addUser(t, "carol")
	dave := f.addUser(t, "dave")

	// Alice overlaps the query window; Bob touches only the end boundary,
	// which still counts. Carol is in another city, Dave is hidden.
	f.addLayover(t, alice, "Tokyo", day(10), day(14), true)
	f.addLayover(t, bob, "Tokyo", day(16), day(20), true)
	f.addLayover(t, carol, "Osaka", day(10), day(14), true)
	f.addLayover(t, dave, "Tokyo", day(10), day(14), false)
	// My own layover never matches me.
	f.addLayover(t, me, "Tokyo", day(10), day(14), true)

	candidates, err := f.svc.FindOverlappingCrew(ctx, me, "Tokyo", day(12), day(16))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, alice, candidates[0].UserID)
	assert.Equal(t, bob, candidates[1].UserID)
	assert.Equal(t, "alice", candidates[0].DisplayName)
}

func TestFindOverlappingCrewOneCandidatePerUser(t *testing.T) {
	ctx := context.Background()
	f := newMatcherFixture()

	me := f.addUser(t, "me")
	alice := f.addUser(t, "alice")

	// Two overlapping layovers for the same user: the earlier start wins.
	f.addLayover(t, alice, "Tokyo", day(12), day(15), true)
	early := f.addLayover(t, alice, "Tokyo", day(10), day(13), true)

	candidates, err := f.svc.FindOverlappingCrew(ctx, me, "Tokyo", day(11), day(16))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, early, candidates[0].Layover.ID)
}

func TestFindOverlappingCrewAnnotatesConnectionStatus(t *testing.T) {
	ctx := context.Background()
	f := newMatcherFixture()

	me := f.addUser(t, "me")
	friend := f.addUser(t, "friend")
	invited := f.addUser(t, "invited")
	stranger := f.addUser(t, "stranger")

	f.addLayover(t, friend, "Tokyo", day(10), day(14), true)
	f.addLayover(t, invited, "Tokyo", day(10), day(14), true)
	f.addLayover(t, stranger, "Tokyo", day(10), day(14), true)

	_, err := f.conns.CreateConnection(ctx, models.NewConnection(me, friend))
	require.NoError(t, err)
	_, err = f.conns.CreateRequest(ctx, &models.ConnectionRequest{FromUserID: me, ToUserID: invited})
	require.NoError(t, err)

	candidates, err := f.svc.FindOverlappingCrew(ctx, me, "Tokyo", day(10), day(14))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	byUser := make(map[primitive.ObjectID]string)
	for _, c := range candidates {
		byUser[c.UserID] = c.ConnectionStatus
	}
	assert.Equal(t, models.ConnStatusConnected, byUser[friend])
	assert.Equal(t, models.ConnStatusPendingOutgoing, byUser[invited])
	assert.Equal(t, models.ConnStatusNone, byUser[stranger])
}

func TestFindOverlappingCrewValidation(t *testing.T) {
	ctx := context.Background()
	f := newMatcherFixture()
	me := f.addUser(t, "me")

	_, err := f.svc.FindOverlappingCrew(ctx, me, "  ", day(10), day(14))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.svc.FindOverlappingCrew(ctx, me, "Tokyo", day(14), day(10))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	// No matches is an empty answer, never an error.
	candidates, err := f.svc.FindOverlappingCrew(ctx, me, "Tokyo", day(10), day(14))
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
}
