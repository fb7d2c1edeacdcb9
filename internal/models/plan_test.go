package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlanValidateShapes(t *testing.T) {
	single := &SingleStop{SpotID: "spot-1", ScheduledTime: day(10)}
	stops := []Stop{
		{ID: primitive.NewObjectID(), SpotID: "spot-1", ScheduledTime: day(10)},
		{ID: primitive.NewObjectID(), SpotID: "spot-2", ScheduledTime: day(11)},
	}

	tests := []struct {
		name    string
		plan    Plan
		wantErr bool
	}{
		{"valid single", Plan{Mode: PlanModeSingle, Visibility: VisibilityPublic, Single: single}, false},
		{"valid multi", Plan{Mode: PlanModeMultiStop, Visibility: VisibilityConnections, Stops: stops}, false},
		{"single without payload", Plan{Mode: PlanModeSingle, Visibility: VisibilityPublic}, true},
		{"single with stops", Plan{Mode: PlanModeSingle, Visibility: VisibilityPublic, Single: single, Stops: stops}, true},
		{"multi with single payload", Plan{Mode: PlanModeMultiStop, Visibility: VisibilityPublic, Single: single, Stops: stops}, true},
		{"multi with one stop", Plan{Mode: PlanModeMultiStop, Visibility: VisibilityPublic, Stops: stops[:1]}, true},
		{"unknown mode", Plan{Mode: "group", Visibility: VisibilityPublic, Single: single}, true},
		{"unknown visibility", Plan{Mode: PlanModeSingle, Visibility: "friends", Single: single}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeStops(t *testing.T) {
	stops := []Stop{
		{ID: primitive.NewObjectID(), Order: 7},
		{ID: primitive.NewObjectID(), Order: 3},
		{ID: primitive.NewObjectID(), Order: 3},
	}

	normalized := NormalizeStops(stops)
	require.Len(t, normalized, 3)
	for i, stop := range normalized {
		assert.Equal(t, i, stop.Order)
		assert.Equal(t, stops[i].ID, stop.ID)
	}
	// Input slice untouched.
	assert.Equal(t, 7, stops[0].Order)
}

func TestEarliestStopTime(t *testing.T) {
	single := Plan{
		Mode:   PlanModeSingle,
		Single: &SingleStop{ScheduledTime: day(12)},
	}
	assert.Equal(t, day(12), single.EarliestStopTime())

	multi := Plan{
		Mode: PlanModeMultiStop,
		Stops: []Stop{
			{ScheduledTime: day(14)},
			{ScheduledTime: day(9)},
			{ScheduledTime: day(20)},
		},
	}
	assert.Equal(t, day(9), multi.EarliestStopTime())

	var empty Plan
	assert.True(t, empty.EarliestStopTime().IsZero())
}

func TestValidRSVP(t *testing.T) {
	assert.True(t, ValidRSVP(RSVPGoing))
	assert.True(t, ValidRSVP(RSVPMaybe))
	assert.True(t, ValidRSVP(RSVPDeclined))
	// "invited" is assigned by the invite flow, never by a joiner.
	assert.False(t, ValidRSVP(RSVPInvited))
	assert.False(t, ValidRSVP("attending"))
}
