package domain

import (
	"fmt"
	"time"
)

// Default booking window limits.
const (
	DefaultGraceWindow = 5 * time.Minute
	DefaultMinDuration = 30 * time.Minute
	DefaultMaxDuration = 24 * time.Hour
)

// BookingRules carries the limits a proposed reservation window must satisfy.
// The grace window allows a start slightly in the past to absorb request latency.
type BookingRules struct {
	GraceWindow time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

func DefaultBookingRules() BookingRules {
	return BookingRules{
		GraceWindow: DefaultGraceWindow,
		MinDuration: DefaultMinDuration,
		MaxDuration: DefaultMaxDuration,
	}
}

// ValidateInterval checks a proposed [start, end) window. Inputs are
// normalized to UTC first. Rules run in order and the first failure wins;
// the returned error wraps ErrInvalidInput and its reason is user-facing.
func (r BookingRules) ValidateInterval(start, end, now time.Time) error {
	start = start.UTC()
	end = end.UTC()
	now = now.UTC()

	if start.Before(now.Add(-r.GraceWindow)) {
		return fmt.Errorf("%w: start time cannot be in the past", ErrInvalidInput)
	}
	if end.Before(now) {
		return fmt.Errorf("%w: end time cannot be in the past", ErrInvalidInput)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	if end.Sub(start) < r.MinDuration {
		return fmt.Errorf("%w: minimum reservation duration is %d minutes", ErrInvalidInput, int(r.MinDuration.Minutes()))
	}
	if end.Sub(start) > r.MaxDuration {
		return fmt.Errorf("%w: maximum reservation duration is %d hours", ErrInvalidInput, int(r.MaxDuration.Hours()))
	}
	return nil
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching boundaries do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
