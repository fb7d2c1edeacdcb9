package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planFixture struct {
	plans     *inmem.PlanRepository
	attendees *inmem.AttendeeRepository
	conns     *inmem.ConnectionRepository
	notifs    *inmem.NotificationRepository
	users     *inmem.UserRepository
	svc       *PlanService
}

func newPlanFixture() *planFixture {
	plans := inmem.NewPlanRepository()
	attendees := inmem.NewAttendeeRepository()
	conns := inmem.NewConnectionRepository()
	notifs := inmem.NewNotificationRepository()
	users := inmem.NewUserRepository()
	notifSvc := NewNotificationService(notifs, conns, nil)

	svc := NewPlanService(plans, attendees, conns, notifSvc)
	svc.SetNowForTest(func() time.Time { return day(1) })
	return &planFixture{
		plans:     plans,
		attendees: attendees,
		conns:     conns,
		notifs:    notifs,
		users:     users,
		svc:       svc,
	}
}

func (f *planFixture) addUser(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	u, err := f.users.Create(context.Background(), &models.User{
		DisplayName: name,
		Email:       fmt.Sprintf("%s@crew.test", name),
	})
	require.NoError(t, err)
	return u.ID
}

func (f *planFixture) connect(t *testing.T, a, b primitive.ObjectID) {
	t.Helper()
	_, err := f.conns.CreateConnection(context.Background(), models.NewConnection(a, b))
	require.NoError(t, err)
}

func singlePlanInput(visibility string) CreatePlanInput {
	return CreatePlanInput{
		Title:         "Ramen night",
		City:          "Tokyo",
		Visibility:    visibility,
		Mode:          models.PlanModeSingle,
		SpotID:        "spot-ramen",
		SpotName:      "Ichiran Shibuya",
		ScheduledTime: day(10),
	}
}

func multiPlanInput(visibility string, times ...time.Time) CreatePlanInput {
	in := CreatePlanInput{
		Title:      "Izakaya crawl",
		City:       "Tokyo",
		Visibility: visibility,
		Mode:       models.PlanModeMultiStop,
	}
	for i, ts := range times {
		in.Stops = append(in.Stops, StopInput{
			SpotID:        fmt.Sprintf("spot-%d", i),
			SpotName:      fmt.Sprintf("Stop %d", i),
			ScheduledTime: ts,
		})
	}
	return in
}

func TestCreatePlanSingle(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusActive, plan.Status)
	assert.True(t, plan.HasAttendee(host))
	assert.Equal(t, 1, plan.AttendeeCount)
	assert.Equal(t, day(10), plan.ScheduledTime)

	// The host's RSVP record exists from the start.
	a, err := f.attendees.Get(ctx, plan.ID, host)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPGoing, a.RSVPStatus)
	assert.True(t, a.AllStops)
}

func TestCreatePlanValidation(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")

	in := singlePlanInput(models.VisibilityPublic)
	in.Title = "  "
	_, err := f.svc.CreatePlan(ctx, host, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "blank title")

	in = singlePlanInput(models.VisibilityPublic)
	in.SpotID = ""
	_, err = f.svc.CreatePlan(ctx, host, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "single without spot")

	in = singlePlanInput(models.VisibilityPublic)
	in.ScheduledTime = day(1).Add(-time.Hour)
	_, err = f.svc.CreatePlan(ctx, host, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "past time")

	_, err = f.svc.CreatePlan(ctx, host, multiPlanInput(models.VisibilityPublic, day(10)))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "multi with one stop")

	in = singlePlanInput("everyone")
	_, err = f.svc.CreatePlan(ctx, host, in)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "unknown visibility")
}

func TestCreatePlanMultiStopOrdering(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")

	plan, err := f.svc.CreatePlan(ctx, host, multiPlanInput(models.VisibilityPublic, day(12), day(10), day(14)))
	require.NoError(t, err)
	require.Len(t, plan.Stops, 3)
	for i, stop := range plan.Stops {
		assert.Equal(t, i, stop.Order)
	}
	// Plan-level time is the earliest stop time, not the first stop's.
	assert.Equal(t, day(10), plan.ScheduledTime)
}

func TestPlanVisibilityTiers(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	friend := f.addUser(t, "friend")
	stranger := f.addUser(t, "stranger")
	invitee := f.addUser(t, "invitee")
	f.connect(t, host, friend)

	public, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	connOnly, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityConnections))
	require.NoError(t, err)
	inviteOnly, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityInviteOnly))
	require.NoError(t, err)
	require.NoError(t, f.svc.InviteToPlan(ctx, host, inviteOnly.ID, invitee))

	_, err = f.svc.GetPlan(ctx, stranger, public.ID)
	assert.NoError(t, err, "public is visible to anyone")

	_, err = f.svc.GetPlan(ctx, friend, connOnly.ID)
	assert.NoError(t, err, "connections tier admits a connection")
	_, err = f.svc.GetPlan(ctx, stranger, connOnly.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "connections tier hides from strangers")

	_, err = f.svc.GetPlan(ctx, invitee, inviteOnly.ID)
	assert.NoError(t, err, "invite tier admits invitees")
	_, err = f.svc.GetPlan(ctx, friend, inviteOnly.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound), "invite tier hides even from connections")
	_, err = f.svc.GetPlan(ctx, host, inviteOnly.ID)
	assert.NoError(t, err, "host always sees own plan")

	// City listing applies the same filter per viewer.
	visible, err := f.svc.ListPlansForCity(ctx, stranger, "Tokyo")
	require.NoError(t, err)
	assert.Len(t, visible, 1)
	visible, err = f.svc.ListPlansForCity(ctx, friend, "Tokyo")
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestJoinPlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)

	updated, err := f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPGoing, nil)
	require.NoError(t, err)
	assert.True(t, updated.HasAttendee(guest))
	assert.Equal(t, 2, updated.AttendeeCount)

	// Joining again is a no-op on the set; the RSVP may still change.
	updated, err = f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPMaybe, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.AttendeeCount)
	a, err := f.attendees.Get(ctx, plan.ID, guest)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPMaybe, a.RSVPStatus)

	// The host was told exactly once, on the first join.
	notifs, err := f.notifs.ListByUser(ctx, host)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifPlanJoined, notifs[0].Type)

	_, err = f.svc.JoinPlan(ctx, guest, plan.ID, "attending", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "bad rsvp")
}

func TestJoinPlanGuards(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	stranger := f.addUser(t, "stranger")

	hidden, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityInviteOnly))
	require.NoError(t, err)
	_, err = f.svc.JoinPlan(ctx, stranger, hidden.ID, models.RSVPGoing, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "not visible")

	canceled, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	require.NoError(t, f.svc.CancelPlan(ctx, host, canceled.ID))
	_, err = f.svc.JoinPlan(ctx, stranger, canceled.ID, models.RSVPGoing, nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "canceled plan")
}

func TestJoinPlanConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)

	const joiners = 16
	ids := make([]primitive.ObjectID, joiners)
	for i := range ids {
		ids[i] = f.addUser(t, fmt.Sprintf("guest%d", i))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(userID primitive.ObjectID) {
			defer wg.Done()
			_, err := f.svc.JoinPlan(ctx, userID, plan.ID, models.RSVPGoing, nil)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	final, err := f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, joiners+1, final.AttendeeCount)
	assert.Len(t, final.AttendeeIDs, joiners+1)
}

func TestJoinPlanStopSelection(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")

	plan, err := f.svc.CreatePlan(ctx, host, multiPlanInput(models.VisibilityPublic, day(10), day(11), day(12)))
	require.NoError(t, err)

	_, err = f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPGoing, []primitive.ObjectID{primitive.NewObjectID()})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "unknown stop id")

	subset := []primitive.ObjectID{plan.Stops[0].ID, plan.Stops[2].ID}
	_, err = f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPGoing, subset)
	require.NoError(t, err)

	a, err := f.attendees.Get(ctx, plan.ID, guest)
	require.NoError(t, err)
	assert.False(t, a.AllStops)
	assert.ElementsMatch(t, subset, a.StopsAttending)

	// Stop selection makes no sense on a single-mode plan.
	single, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	_, err = f.svc.JoinPlan(ctx, guest, single.ID, models.RSVPGoing, subset[:1])
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestLeavePlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	_, err = f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPGoing, nil)
	require.NoError(t, err)

	_, err = f.svc.LeavePlan(ctx, host, plan.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "host cannot leave")

	updated, err := f.svc.LeavePlan(ctx, guest, plan.ID)
	require.NoError(t, err)
	assert.False(t, updated.HasAttendee(guest))
	assert.Equal(t, 1, updated.AttendeeCount)
	_, err = f.attendees.Get(ctx, plan.ID, guest)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Leaving a plan you are not in is a no-op.
	_, err = f.svc.LeavePlan(ctx, guest, plan.ID)
	assert.NoError(t, err)
}

func TestCancelPlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityPublic))
	require.NoError(t, err)
	_, err = f.svc.JoinPlan(ctx, guest, plan.ID, models.RSVPGoing, nil)
	require.NoError(t, err)

	err = f.svc.CancelPlan(ctx, guest, plan.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "only host cancels")

	require.NoError(t, f.svc.CancelPlan(ctx, host, plan.ID))
	stored, err := f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusCanceled, stored.Status)

	// Attendees other than the host were notified once; a repeat cancel is
	// idempotent and does not notify again.
	require.NoError(t, f.svc.CancelPlan(ctx, host, plan.ID))
	notifs, err := f.notifs.ListByUser(ctx, guest)
	require.NoError(t, err)
	canceledNotifs := 0
	for _, n := range notifs {
		if n.Type == models.NotifPlanCanceled {
			canceledNotifs++
		}
	}
	assert.Equal(t, 1, canceledNotifs)
}

func TestReorderStops(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")

	plan, err := f.svc.CreatePlan(ctx, host, multiPlanInput(models.VisibilityPublic, day(10), day(11), day(12)))
	require.NoError(t, err)
	s0, s1, s2 := plan.Stops[0].ID, plan.Stops[1].ID, plan.Stops[2].ID

	_, err = f.svc.ReorderStops(ctx, guest, plan.ID, []primitive.ObjectID{s2, s1, s0})
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "only host edits")

	_, err = f.svc.ReorderStops(ctx, host, plan.ID, []primitive.ObjectID{s2, s1})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "missing a stop")

	_, err = f.svc.ReorderStops(ctx, host, plan.ID, []primitive.ObjectID{s2, s1, s1})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "duplicate stop")

	_, err = f.svc.ReorderStops(ctx, host, plan.ID, []primitive.ObjectID{s2, s1, primitive.NewObjectID()})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "foreign stop")

	updated, err := f.svc.ReorderStops(ctx, host, plan.ID, []primitive.ObjectID{s2, s0, s1})
	require.NoError(t, err)
	require.Len(t, updated.Stops, 3)
	assert.Equal(t, s2, updated.Stops[0].ID)
	assert.Equal(t, s0, updated.Stops[1].ID)
	assert.Equal(t, s1, updated.Stops[2].ID)
	for i, stop := range updated.Stops {
		assert.Equal(t, i, stop.Order)
	}
	// Reordering does not change the earliest time.
	assert.Equal(t, day(10), updated.ScheduledTime)
}

func TestRemoveStop(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")

	plan, err := f.svc.CreatePlan(ctx, host, multiPlanInput(models.VisibilityPublic, day(10), day(11), day(12)))
	require.NoError(t, err)
	s0, s1, s2 := plan.Stops[0].ID, plan.Stops[1].ID, plan.Stops[2].ID

	_, err = f.svc.RemoveStop(ctx, host, plan.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Removing the earliest stop re-derives the plan time and renumbers.
	updated, err := f.svc.RemoveStop(ctx, host, plan.ID, s0)
	require.NoError(t, err)
	require.Len(t, updated.Stops, 2)
	assert.Equal(t, s1, updated.Stops[0].ID)
	assert.Equal(t, s2, updated.Stops[1].ID)
	assert.Equal(t, 0, updated.Stops[0].Order)
	assert.Equal(t, 1, updated.Stops[1].Order)
	assert.Equal(t, day(11), updated.ScheduledTime)

	// A multi-stop plan keeps at least two stops.
	_, err = f.svc.RemoveStop(ctx, host, plan.ID, s1)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestInviteToPlan(t *testing.T) {
	ctx := context.Background()
	f := newPlanFixture()
	host := f.addUser(t, "host")
	guest := f.addUser(t, "guest")
	invitee := f.addUser(t, "invitee")

	plan, err := f.svc.CreatePlan(ctx, host, singlePlanInput(models.VisibilityInviteOnly))
	require.NoError(t, err)

	err = f.svc.InviteToPlan(ctx, guest, plan.ID, invitee)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "only host invites")

	require.NoError(t, f.svc.InviteToPlan(ctx, host, plan.ID, invitee))

	notifs, err := f.notifs.ListByUser(ctx, invitee)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifPlanInvite, notifs[0].Type)

	// Re-inviting does not duplicate the invite list entry.
	require.NoError(t, f.svc.InviteToPlan(ctx, host, plan.ID, invitee))
	stored, err := f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, stored.InvitedIDs, 1)

	_, err = f.svc.GetPlan(ctx, invitee, plan.ID)
	assert.NoError(t, err)
	_, err = f.svc.JoinPlan(ctx, invitee, plan.ID, models.RSVPGoing, nil)
	assert.NoError(t, err)
}
