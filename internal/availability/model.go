// Package availability models a provider's recurring weekly open hours and
// expands them into concrete bookable slots.
package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidDay is returned when a slot's day of week is outside 0..6.
	ErrInvalidDay = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")

	// ErrInvalidRange is returned when a slot's start time is not before its
	// end time, including malformed HH:MM values.
	ErrInvalidRange = errors.New("start time must be before end time")
)

// Slot is one recurring weekly open-hours window for a provider.
// Times are clock times in the provider's working timezone, "HH:MM" 24-hour.
type Slot struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookableSlot is a concrete dated instant derived from weekly availability.
// It is ephemeral: recomputed per request, never persisted.
type BookableSlot struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock time %q out of range", value)
	}
	return hours*60 + minutes, nil
}

// Validate checks a single slot. Overlap between slots is not an error;
// the generator deduplicates the instants overlapping ranges produce.
func (s Slot) Validate() error {
	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return fmt.Errorf("%w: got %d", ErrInvalidDay, s.DayOfWeek)
	}
	start, err := parseClock(s.StartTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if start >= end {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidRange, s.StartTime, s.EndTime)
	}
	return nil
}

// Validate checks a full weekly availability set.
func Validate(slots []Slot) error {
	for i, slot := range slots {
		if err := slot.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
	}
	return nil
}
