package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
)

// Service orchestrates reservation lifecycle on top of the storage and
// court lookups. All domain validation happens in the domain package,
// the service adds cross-entity checks and user-facing error reasons.
type Service struct {
	reservations ReservationStorage
	courts       CourtStorage
	rules        domain.BookingRules
	now          func() time.Time
	logger       observability.Logger
	audit        AuditLog
}

func NewService(reservations ReservationStorage, courts CourtStorage, rules domain.BookingRules, logger observability.Logger, audit AuditLog) *Service {
	return &Service{
		reservations: reservations,
		courts:       courts,
		rules:        rules,
		now:          time.Now,
		logger:       logger,
		audit:        audit,
	}
}

// ReservationView is the wire projection of a reservation.
type ReservationView struct {
	ID        uuid.UUID `json:"id"`
	CourtID   uuid.UUID `json:"courtId"`
	UserID    uuid.UUID `json:"userId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	TotalCost string    `json:"totalCost"`
	Status    string    `json:"status"`
}

func viewOf(res *domain.Reservation) *ReservationView {
	return &ReservationView{
		ID:        res.ID,
		CourtID:   res.CourtID,
		UserID:    res.UserID,
		StartTime: res.StartTime,
		EndTime:   res.EndTime,
		TotalCost: res.TotalCost.String(),
		Status:    string(res.Status),
	}
}

// CreateReservation books a court window for a user, pricing it off the
// court's current hourly rate.
func (s *Service) CreateReservation(ctx context.Context, courtID, userID uuid.UUID, start, end time.Time) (*ReservationView, error) {
	court, err := s.court(ctx, courtID)
	if err != nil {
		return nil, err
	}

	cost := domain.ReservationCost(start, end, court.HourlyRate)
	res, err := domain.NewReservation(courtID, userID, start, end, cost, s.rules, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.reservations.CreateReservation(ctx, res); err != nil {
		return nil, s.bookingErr(err)
	}

	observability.ReservationsCreated.Inc()
	s.recordAudit(ctx, "reservation.created", res)
	return viewOf(res), nil
}

// UpdateReservation moves a booked reservation to a new window on the
// same or another court, repricing it off that court's rate. Cancelled
// and completed reservations are frozen.
func (s *Service) UpdateReservation(ctx context.Context, id, courtID uuid.UUID, start, end time.Time) (*ReservationView, error) {
	res, err := s.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot modify a %s reservation", domain.ErrConflict, strings.ToLower(string(res.Status)))
	}
	court, err := s.court(ctx, courtID)
	if err != nil {
		return nil, err
	}

	cost := domain.ReservationCost(start, end, court.HourlyRate)
	if err := res.Update(courtID, res.UserID, start, end, cost, s.rules, s.now()); err != nil {
		return nil, err
	}

	if err := s.reservations.UpdateReservation(ctx, res, domain.StatusBooked, "reservation.updated"); err != nil {
		return nil, s.bookingErr(err)
	}

	s.recordAudit(ctx, "reservation.updated", res)
	return viewOf(res), nil
}

// CancelReservation cancels a booked reservation. Only the owner or an
// admin may cancel.
func (s *Service) CancelReservation(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*ReservationView, error) {
	return s.transition(ctx, id, requesterID, isAdmin, domain.StatusCancelled, "reservation.cancelled")
}

// CompleteReservation marks a reservation completed. Admin only at the
// API level, the completion worker calls it for every due reservation.
func (s *Service) CompleteReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	res, err := s.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	prior := res.Status
	if err := res.UpdateStatus(domain.StatusCompleted); err != nil {
		return nil, err
	}
	if err := s.reservations.UpdateReservation(ctx, res, prior, "reservation.completed"); err != nil {
		return nil, s.bookingErr(err)
	}
	s.recordAudit(ctx, "reservation.completed", res)
	return viewOf(res), nil
}

func (s *Service) transition(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, status domain.ReservationStatus, event string) (*ReservationView, error) {
	res, err := s.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && res.UserID != requesterID {
		return nil, fmt.Errorf("%w: not allowed to modify this reservation", domain.ErrForbidden)
	}
	prior := res.Status
	if err := res.UpdateStatus(status); err != nil {
		return nil, err
	}
	if err := s.reservations.UpdateReservation(ctx, res, prior, event); err != nil {
		return nil, s.bookingErr(err)
	}
	s.recordAudit(ctx, event, res)
	return viewOf(res), nil
}

// DeleteReservation removes a reservation outright. Only the owner or
// an admin may delete.
func (s *Service) DeleteReservation(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) error {
	res, err := s.reservation(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && res.UserID != requesterID {
		return fmt.Errorf("%w: not allowed to delete this reservation", domain.ErrForbidden)
	}
	if err := s.reservations.DeleteReservation(ctx, id); err != nil {
		return s.bookingErr(err)
	}
	s.recordAudit(ctx, "reservation.deleted", res)
	return nil
}

// CheckAvailability reports whether the court is free for the window.
// The window itself must be a valid booking interval. A non-nil
// excludeID leaves that reservation out, for probing a move-in-place.
func (s *Service) CheckAvailability(ctx context.Context, courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	if _, err := s.court(ctx, courtID); err != nil {
		return false, err
	}
	if err := s.rules.ValidateInterval(start, end, s.now()); err != nil {
		return false, err
	}
	return s.reservations.IsAvailable(ctx, courtID, start, end, excludeID)
}

func (s *Service) GetReservation(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	res, err := s.reservation(ctx, id)
	if err != nil {
		return nil, err
	}
	return viewOf(res), nil
}

func (s *Service) ListReservations(ctx context.Context) ([]ReservationView, error) {
	return s.views(s.reservations.ListReservations(ctx))
}

func (s *Service) ListReservationsForCourt(ctx context.Context, courtID uuid.UUID) ([]ReservationView, error) {
	if _, err := s.court(ctx, courtID); err != nil {
		return nil, err
	}
	return s.views(s.reservations.ListReservationsForCourt(ctx, courtID))
}

// CompleteDue transitions every booked reservation whose window has
// passed to Completed. Returns how many were completed.
func (s *Service) CompleteDue(ctx context.Context) (int, error) {
	due, err := s.reservations.ListDueForCompletion(ctx, s.now())
	if err != nil {
		return 0, err
	}
	completed := 0
	for i := range due {
		res := &due[i]
		prior := res.Status
		if err := res.UpdateStatus(domain.StatusCompleted); err != nil {
			continue
		}
		// A reservation cancelled between the listing and this write is
		// skipped, the conditional update reports the status conflict.
		if err := s.reservations.UpdateReservation(ctx, res, prior, "reservation.completed"); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			s.logger.WithField("reservation_id", res.ID).Error("failed to complete reservation: ", err)
			continue
		}
		s.recordAudit(ctx, "reservation.completed", res)
		completed++
	}
	return completed, nil
}

func (s *Service) views(list []domain.Reservation, err error) ([]ReservationView, error) {
	if err != nil {
		return nil, err
	}
	out := make([]ReservationView, 0, len(list))
	for i := range list {
		out = append(out, *viewOf(&list[i]))
	}
	return out, nil
}

func (s *Service) reservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res, err := s.reservations.GetReservation(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: reservation not found", domain.ErrNotFound)
	}
	return res, err
}

func (s *Service) court(ctx context.Context, id uuid.UUID) (*domain.TennisCourt, error) {
	court, err := s.courts.GetCourt(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: court not found", domain.ErrNotFound)
	}
	return court, err
}

// bookingErr turns the storage layer's bare conflict into the message
// users see when a slot is taken. Conflicts that already carry a
// reason, such as a concurrent status change, pass through untouched.
func (s *Service) bookingErr(err error) error {
	if errors.Is(err, domain.ErrConflict) && err.Error() == domain.ErrConflict.Error() {
		observability.BookingConflicts.Inc()
		return fmt.Errorf("%w: time slot is not available", domain.ErrConflict)
	}
	return err
}

func (s *Service) recordAudit(ctx context.Context, action string, res *domain.Reservation) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogReservation(ctx, action, res); err != nil {
		s.logger.WithField("action", action).Error("audit log failed: ", err)
	}
}
