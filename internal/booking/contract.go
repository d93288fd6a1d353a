package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
)

// ReservationStorage is the persistence surface the service needs.
// Create and Update must enforce slot availability atomically. Update
// only writes when the stored status still equals expected, so a
// concurrent transition cannot be silently overwritten.
type ReservationStorage interface {
	CreateReservation(ctx context.Context, res *domain.Reservation) error
	UpdateReservation(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus, event string) error
	DeleteReservation(ctx context.Context, id uuid.UUID) error
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	ListReservations(ctx context.Context) ([]domain.Reservation, error)
	ListReservationsForCourt(ctx context.Context, courtID uuid.UUID) ([]domain.Reservation, error)
	ListDueForCompletion(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	IsAvailable(ctx context.Context, courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
}

type CourtStorage interface {
	GetCourt(ctx context.Context, id uuid.UUID) (*domain.TennisCourt, error)
}

// AuditLog records reservation lifecycle actions out of band. Failures
// are logged, never surfaced to the caller.
type AuditLog interface {
	LogReservation(ctx context.Context, action string, res *domain.Reservation) error
}
