package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusBooked    ReservationStatus = "BOOKED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Reservation is a booked time interval on a court for a user. It references
// the court and user by id only; related aggregates are loaded explicitly
// when needed.
type Reservation struct {
	ID        uuid.UUID
	CourtID   uuid.UUID
	UserID    uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	TotalCost decimal.Decimal
	Status    ReservationStatus
	CreatedAt time.Time
}

// NewReservation validates the references, the interval and the cost, and
// produces a Booked reservation. Times are stored in UTC.
func NewReservation(courtID, userID uuid.UUID, start, end time.Time, totalCost decimal.Decimal, rules BookingRules, now time.Time) (*Reservation, error) {
	if err := validateRefs(courtID, userID); err != nil {
		return nil, err
	}
	if err := rules.ValidateInterval(start, end, now); err != nil {
		return nil, err
	}
	if err := validateCost(totalCost); err != nil {
		return nil, err
	}
	return &Reservation{
		ID:        uuid.New(),
		CourtID:   courtID,
		UserID:    userID,
		StartTime: start.UTC(),
		EndTime:   end.UTC(),
		TotalCost: totalCost,
		Status:    StatusBooked,
		CreatedAt: now.UTC(),
	}, nil
}

// Update re-runs the creation validations and replaces the mutable fields.
// Status and creation time are untouched.
func (r *Reservation) Update(courtID, userID uuid.UUID, start, end time.Time, totalCost decimal.Decimal, rules BookingRules, now time.Time) error {
	if err := validateRefs(courtID, userID); err != nil {
		return err
	}
	if err := rules.ValidateInterval(start, end, now); err != nil {
		return err
	}
	if err := validateCost(totalCost); err != nil {
		return err
	}
	r.CourtID = courtID
	r.UserID = userID
	r.StartTime = start.UTC()
	r.EndTime = end.UTC()
	r.TotalCost = totalCost
	return nil
}

// UpdateStatus enforces the lifecycle: Cancelled and Completed are terminal.
func (r *Reservation) UpdateStatus(newStatus ReservationStatus) error {
	if r.Status == StatusCancelled && newStatus != StatusCancelled {
		return fmt.Errorf("%w: cannot restore a cancelled reservation", ErrConflict)
	}
	if r.Status == StatusCompleted && newStatus != StatusCompleted {
		return fmt.Errorf("%w: cannot modify a completed reservation", ErrConflict)
	}
	r.Status = newStatus
	return nil
}

// RecalculateCost recomputes the total from the current interval, for when
// the court or its rate changed.
func (r *Reservation) RecalculateCost(hourlyRate decimal.Decimal) error {
	cost := ReservationCost(r.StartTime, r.EndTime, hourlyRate)
	if !cost.IsPositive() {
		return fmt.Errorf("%w: failed to calculate cost", ErrInvalidInput)
	}
	r.TotalCost = cost
	return nil
}

func validateRefs(courtID, userID uuid.UUID) error {
	if courtID == uuid.Nil {
		return fmt.Errorf("%w: court id cannot be empty", ErrInvalidInput)
	}
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}
	return nil
}

func validateCost(totalCost decimal.Decimal) error {
	if totalCost.IsNegative() {
		return fmt.Errorf("%w: total cost cannot be negative", ErrInvalidInput)
	}
	return nil
}
