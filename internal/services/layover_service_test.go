package services

import (
	"context"
	"testing"
	"time"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newLayoverService(now time.Time) (*LayoverService, *inmem.LayoverRepository) {
	repo := inmem.NewLayoverRepository()
	svc := NewLayoverService(repo)
	svc.SetNowForTest(func() time.Time { return now })
	return svc, repo
}

func TestCreateLayover(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLayoverService(day(5))
	owner := primitive.NewObjectID()

	created, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{
		City:         "  Tokyo ",
		StartDate:    day(10),
		EndDate:      day(14),
		Discoverable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", created.City)
	assert.Equal(t, models.LayoverStatusUpcoming, created.Status)

	current, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{
		City:      "Tokyo",
		StartDate: day(4),
		EndDate:   day(6),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LayoverStatusCurrent, current.Status)
}

func TestCreateLayoverValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLayoverService(day(5))
	owner := primitive.NewObjectID()

	_, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{StartDate: day(10), EndDate: day(14)})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "missing city")

	_, err = svc.CreateLayover(ctx, owner, CreateLayoverInput{City: "Tokyo", EndDate: day(14)})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "missing start")

	_, err = svc.CreateLayover(ctx, owner, CreateLayoverInput{City: "Tokyo", StartDate: day(14), EndDate: day(10)})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "inverted window")
}

func TestLayoverOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newLayoverService(day(5))
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	created, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{
		City:      "Tokyo",
		StartDate: day(10),
		EndDate:   day(14),
	})
	require.NoError(t, err)

	_, err = svc.SetDiscoverable(ctx, other, created.ID, true)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))
	err = svc.DeleteLayover(ctx, other, created.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	updated, err := svc.SetDiscoverable(ctx, owner, created.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.Discoverable)

	require.NoError(t, svc.DeleteLayover(ctx, owner, created.ID))
	_, err = svc.SetDiscoverable(ctx, owner, created.ID, false)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRollStatuses(t *testing.T) {
	ctx := context.Background()
	svc, repo := newLayoverService(day(5))
	owner := primitive.NewObjectID()

	past, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{City: "Tokyo", StartDate: day(1), EndDate: day(3)})
	require.NoError(t, err)
	// Created while already over: status derives from the window at write
	// time, so the roll has nothing to change for this one.
	assert.Equal(t, models.LayoverStatusPast, past.Status)

	upcoming, err := svc.CreateLayover(ctx, owner, CreateLayoverInput{City: "Tokyo", StartDate: day(10), EndDate: day(14)})
	require.NoError(t, err)
	require.Equal(t, models.LayoverStatusUpcoming, upcoming.Status)

	// Time passes; the upcoming layover is now in progress.
	svc.SetNowForTest(func() time.Time { return day(11) })
	rolled, err := svc.RollStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rolled)

	stored, err := repo.GetByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LayoverStatusCurrent, stored.Status)

	// Expiry is a transition, not a deletion.
	svc.SetNowForTest(func() time.Time { return day(20) })
	_, err = svc.RollStatuses(ctx)
	require.NoError(t, err)
	stored, err = repo.GetByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LayoverStatusPast, stored.Status)
}
