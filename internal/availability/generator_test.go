package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Monday. 2024-01-01 was a Monday in UTC.
var monday8am = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestGenerateMondayMorning(t *testing.T) {
	slots := []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"}}

	got := Generate(slots, 7, 60, monday8am, nil)

	// Horizon of 7 days starting Monday does not reach the following Monday.
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got[0].StartsAt)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), got[1].StartsAt)
	assert.Equal(t, got[0].StartsAt.Add(time.Hour), got[0].EndsAt)

	got = Generate(slots, 8, 60, monday8am, nil)
	require.Len(t, got, 4)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), got[2].StartsAt)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), got[3].StartsAt)
}

func TestGenerateNeverEmitsPast(t *testing.T) {
	slots := []Slot{
		{DayOfWeek: 1, StartTime: "00:00", EndTime: "23:00"},
		{DayOfWeek: 3, StartTime: "06:00", EndTime: "22:00"},
	}
	now := time.Date(2024, 1, 1, 13, 30, 0, 0, time.UTC)

	for _, slot := range Generate(slots, 14, 30, now, nil) {
		assert.True(t, slot.StartsAt.After(now), "slot %s not strictly after now", slot.StartsAt)
	}
}

func TestGenerateChronologicalAndDeduplicated(t *testing.T) {
	// Overlapping windows on the same day produce duplicate instants.
	slots := []Slot{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "14:00"},
	}

	got := Generate(slots, 1, 60, monday8am, nil)

	seen := make(map[int64]bool)
	for i, slot := range got {
		require.False(t, seen[slot.StartsAt.UnixNano()], "duplicate slot at %s", slot.StartsAt)
		seen[slot.StartsAt.UnixNano()] = true
		if i > 0 {
			require.True(t, got[i-1].StartsAt.Before(slot.StartsAt), "slots out of order")
		}
	}
	// 09:00..13:00 inclusive start times.
	require.Len(t, got, 5)
}

func TestGenerateExcludesBusyIntervals(t *testing.T) {
	slots := []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}}
	busy := []Interval{{
		Start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
	}}

	got := Generate(slots, 1, 60, monday8am, busy)

	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), got[0].StartsAt)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), got[1].StartsAt)
}

func TestGenerateBusyPartialOverlap(t *testing.T) {
	slots := []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}}
	// 45-minute appointment at 09:30 blocks both the 09:00 and 10:00 hours'
	// windows it intersects.
	busy := []Interval{{
		Start: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC),
	}}

	got := Generate(slots, 1, 60, monday8am, busy)

	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), got[0].StartsAt)
}

func TestGenerateEmptyAvailability(t *testing.T) {
	assert.Empty(t, Generate(nil, 10, 60, monday8am, nil))
}

func TestGenerateZeroParametersUseDefaults(t *testing.T) {
	slots := []Slot{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}}

	got := Generate(slots, 0, 0, monday8am, nil)

	// Default horizon of 10 days covers the first and the following Monday.
	require.Len(t, got, 2)
	assert.Equal(t, time.Hour, got[0].EndsAt.Sub(got[0].StartsAt))
}

func TestGenerateRestartable(t *testing.T) {
	slots := []Slot{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: 4, StartTime: "13:00", EndTime: "18:00"},
	}
	first := Generate(slots, 10, 30, monday8am, nil)
	second := Generate(slots, 10, 30, monday8am, nil)
	assert.Equal(t, first, second)
}

func TestIntervalOverlaps(t *testing.T) {
	base := Interval{
		Start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
	}

	// Half-open semantics: touching endpoints do not overlap.
	assert.False(t, base.Overlaps(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), base.Start))
	assert.False(t, base.Overlaps(base.End, base.End.Add(time.Hour)))
	assert.True(t, base.Overlaps(time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 45, 0, 0, time.UTC)))
	assert.True(t, base.Overlaps(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}
