package availability

import (
	"sort"
	"time"
)

// Default generation parameters, matching the portal UI's browse window.
const (
	DefaultHorizonDays        = 10
	DefaultGranularityMinutes = 60
)

// Interval is a half-open busy window [Start, End) that blocks slots,
// typically an existing non-cancelled appointment.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(start, end time.Time) bool {
	return start.Before(iv.End) && iv.Start.Before(end)
}

// Generate expands weekly availability into bookable slots over the horizon.
//
// For each day offset 0..horizonDays-1 from now's date, availability windows
// matching that calendar day's weekday are walked from start to end in steps
// of granularityMinutes. A slot is emitted when its start is strictly after
// now and its window does not overlap any busy interval. Output is
// chronological and deduplicated on StartsAt; the function is pure, so the
// sequence is restartable by calling it again with the same inputs.
func Generate(slots []Slot, horizonDays, granularityMinutes int, now time.Time, busy []Interval) []BookableSlot {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultGranularityMinutes
	}

	step := time.Duration(granularityMinutes) * time.Minute
	loc := now.Location()
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)

	seen := make(map[int64]struct{})
	var out []BookableSlot

	for offset := 0; offset < horizonDays; offset++ {
		date := midnight.AddDate(0, 0, offset)
		weekday := int(date.Weekday())

		for _, slot := range slots {
			if slot.DayOfWeek != weekday {
				continue
			}
			startMin, err := parseClock(slot.StartTime)
			if err != nil {
				continue
			}
			endMin, err := parseClock(slot.EndTime)
			if err != nil || startMin >= endMin {
				continue
			}

			windowEnd := date.Add(time.Duration(endMin) * time.Minute)
			for t := date.Add(time.Duration(startMin) * time.Minute); t.Before(windowEnd); t = t.Add(step) {
				if !t.After(now) {
					continue
				}
				end := t.Add(step)
				if overlapsAny(t, end, busy) {
					continue
				}
				key := t.UnixNano()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, BookableSlot{StartsAt: t, EndsAt: end})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, iv := range busy {
		if iv.Overlaps(start, end) {
			return true
		}
	}
	return false
}
