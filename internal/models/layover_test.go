package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestLayoverOverlaps(t *testing.T) {
	layover := Layover{StartDate: day(10), EndDate: day(14)}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"window inside layover", day(11), day(12), true},
		{"layover inside window", day(1), day(28), true},
		{"partial overlap at front", day(8), day(10), true},
		{"partial overlap at back", day(14), day(20), true},
		{"touching start boundary", day(5), day(10), true},
		{"touching end boundary", day(14), day(18), true},
		{"entirely before", day(1), day(9), false},
		{"entirely after", day(15), day(20), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, layover.Overlaps(tt.start, tt.end))
		})
	}
}

func TestLayoverStatusAt(t *testing.T) {
	layover := Layover{StartDate: day(10), EndDate: day(14)}

	assert.Equal(t, LayoverStatusUpcoming, layover.StatusAt(day(9)))
	assert.Equal(t, LayoverStatusCurrent, layover.StatusAt(day(10)))
	assert.Equal(t, LayoverStatusCurrent, layover.StatusAt(day(12)))
	assert.Equal(t, LayoverStatusCurrent, layover.StatusAt(day(14)))
	assert.Equal(t, LayoverStatusPast, layover.StatusAt(day(15)))
}
