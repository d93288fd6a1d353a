package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
	"github.com/shopspring/decimal"
)

type memStorage struct {
	reservations map[uuid.UUID]*domain.Reservation
	events       []string
}

func newMemStorage() *memStorage {
	return &memStorage{reservations: make(map[uuid.UUID]*domain.Reservation)}
}

func (m *memStorage) taken(courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, r := range m.reservations {
		if r.CourtID != courtID || r.Status == domain.StatusCancelled {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if domain.Overlaps(start, end, r.StartTime, r.EndTime) {
			return true
		}
	}
	return false
}

func (m *memStorage) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	if m.taken(res.CourtID, res.StartTime, res.EndTime, nil) {
		return domain.ErrConflict
	}
	cp := *res
	m.reservations[res.ID] = &cp
	m.events = append(m.events, "reservation.created")
	return nil
}

func (m *memStorage) UpdateReservation(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus, event string) error {
	cur, ok := m.reservations[res.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != expected {
		return fmt.Errorf("%w: cannot modify a %s reservation", domain.ErrConflict, strings.ToLower(string(cur.Status)))
	}
	if m.taken(res.CourtID, res.StartTime, res.EndTime, &res.ID) {
		return domain.ErrConflict
	}
	cp := *res
	m.reservations[res.ID] = &cp
	m.events = append(m.events, event)
	return nil
}

func (m *memStorage) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.reservations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memStorage) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStorage) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.reservations {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStorage) ListReservationsForCourt(ctx context.Context, courtID uuid.UUID) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.CourtID == courtID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStorage) ListDueForCompletion(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.Status == domain.StatusBooked && !r.EndTime.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStorage) IsAvailable(ctx context.Context, courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	return !m.taken(courtID, start, end, excludeID), nil
}

type memCourts struct {
	courts map[uuid.UUID]*domain.TennisCourt
}

func (m *memCourts) GetCourt(ctx context.Context, id uuid.UUID) (*domain.TennisCourt, error) {
	c, ok := m.courts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type memAudit struct {
	actions []string
}

func (m *memAudit) LogReservation(ctx context.Context, action string, res *domain.Reservation) error {
	m.actions = append(m.actions, action)
	return nil
}

type fixture struct {
	svc     *Service
	storage *memStorage
	audit   *memAudit
	court   *domain.TennisCourt
	userID  uuid.UUID
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	court, err := domain.NewTennisCourt("Center Court", decimal.NewFromInt(2000), "Main show court")
	if err != nil {
		t.Fatal(err)
	}

	storage := newMemStorage()
	audit := &memAudit{}
	svc := NewService(storage, &memCourts{courts: map[uuid.UUID]*domain.TennisCourt{court.ID: court}},
		domain.DefaultBookingRules(), observability.NewLogger(), audit)

	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, storage: storage, audit: audit, court: court, userID: uuid.New(), now: now}
}

func TestService_CreateReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.Status != "BOOKED" {
		t.Errorf("expected BOOKED, got %s", view.Status)
	}
	if view.TotalCost != "3000" {
		t.Errorf("expected cost 3000, got %s", view.TotalCost)
	}
	if len(f.audit.actions) != 1 || f.audit.actions[0] != "reservation.created" {
		t.Errorf("expected audit entry, got %v", f.audit.actions)
	}
}

func TestService_CreateReservation_UnknownCourt(t *testing.T) {
	f := newFixture(t)

	start := f.now.Add(2 * time.Hour)
	_, err := f.svc.CreateReservation(context.Background(), uuid.New(), f.userID, start, start.Add(time.Hour))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := domain.Reason(err); got != "court not found" {
		t.Errorf("unexpected reason %q", got)
	}
}

func TestService_CreateReservation_SlotTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	if _, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.CreateReservation(ctx, f.court.ID, uuid.New(), start.Add(30*time.Minute), start.Add(2*time.Hour))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := domain.Reason(err); got != "time slot is not available" {
		t.Errorf("unexpected reason %q", got)
	}
}

func TestService_CreateReservation_InvalidInterval(t *testing.T) {
	f := newFixture(t)

	start := f.now.Add(2 * time.Hour)
	_, err := f.svc.CreateReservation(context.Background(), f.court.ID, f.userID, start, start.Add(10*time.Minute))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestService_UpdateReservation_Reprices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.UpdateReservation(ctx, view.ID, f.court.ID, start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.TotalCost != "4000" {
		t.Errorf("expected repriced cost 4000, got %s", updated.TotalCost)
	}
}

func TestService_UpdateReservation_NewCourtRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cheap, err := domain.NewTennisCourt("Practice Court", decimal.NewFromInt(500), "Back lot court")
	if err != nil {
		t.Fatal(err)
	}
	f.svc.courts.(*memCourts).courts[cheap.ID] = cheap

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if view.TotalCost != "2000" {
		t.Fatalf("expected cost 2000, got %s", view.TotalCost)
	}

	// Same window, different court: cost follows the new court's rate.
	moved, err := f.svc.UpdateReservation(ctx, view.ID, cheap.ID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if moved.CourtID != cheap.ID {
		t.Errorf("expected reservation on new court, got %s", moved.CourtID)
	}
	if moved.TotalCost != "500" {
		t.Errorf("expected cost 500, got %s", moved.TotalCost)
	}
}

func TestService_UpdateReservation_TerminalFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CancelReservation(ctx, view.ID, f.userID, false); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.UpdateReservation(ctx, view.ID, f.court.ID, start.Add(3*time.Hour), start.Add(4*time.Hour))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict updating cancelled reservation, got %v", err)
	}
	if got := domain.Reason(err); got != "cannot modify a cancelled reservation" {
		t.Errorf("unexpected reason %q", got)
	}

	// The window must be untouched.
	got, err := f.svc.GetReservation(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.StartTime.Equal(start) || got.Status != "CANCELLED" {
		t.Errorf("cancelled reservation changed: start %v status %s", got.StartTime, got.Status)
	}

	completed, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CompleteReservation(ctx, completed.ID); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.UpdateReservation(ctx, completed.ID, f.court.ID, start.Add(3*time.Hour), start.Add(4*time.Hour))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict updating completed reservation, got %v", err)
	}
	if got := domain.Reason(err); got != "cannot modify a completed reservation" {
		t.Errorf("unexpected reason %q", got)
	}
}

func TestService_CancelReservation_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.CancelReservation(ctx, view.ID, uuid.New(), false)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	cancelled, err := f.svc.CancelReservation(ctx, view.ID, f.userID, false)
	if err != nil {
		t.Fatalf("expected owner to cancel, got %v", err)
	}
	if cancelled.Status != "CANCELLED" {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	// A cancelled reservation stays cancelled.
	if _, err := f.svc.CancelReservation(ctx, view.ID, f.userID, false); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict re-cancelling, got %v", err)
	}
}

func TestService_CancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CancelReservation(ctx, view.ID, f.userID, false); err != nil {
		t.Fatal(err)
	}

	free, err := f.svc.CheckAvailability(ctx, f.court.ID, start, start.Add(time.Hour), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !free {
		t.Error("expected slot to be free after cancellation")
	}

	if _, err := f.svc.CreateReservation(ctx, f.court.ID, uuid.New(), start, start.Add(time.Hour)); err != nil {
		t.Errorf("expected rebooking to succeed, got %v", err)
	}
}

func TestService_DeleteReservation_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteReservation(ctx, view.ID, uuid.New(), false); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	// Admin may delete anyone's reservation.
	if err := f.svc.DeleteReservation(ctx, view.ID, uuid.New(), true); err != nil {
		t.Fatalf("expected admin delete to succeed, got %v", err)
	}
	if _, err := f.svc.GetReservation(ctx, view.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestService_CheckAvailability_InvalidWindow(t *testing.T) {
	f := newFixture(t)

	start := f.now.Add(2 * time.Hour)
	_, err := f.svc.CheckAvailability(context.Background(), f.court.ID, start.Add(time.Hour), start, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestService_CompleteDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	first, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start.Add(5*time.Hour), start.Add(6*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	// Advance past the first window only.
	f.svc.now = func() time.Time { return start.Add(90 * time.Minute) }

	n, err := f.svc.CompleteDue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completion, got %d", n)
	}

	got, err := f.svc.GetReservation(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "COMPLETED" {
		t.Errorf("expected COMPLETED, got %s", got.Status)
	}
	got, err = f.svc.GetReservation(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "BOOKED" {
		t.Errorf("expected second to stay BOOKED, got %s", got.Status)
	}
}

// cancelAfterList flips a reservation to cancelled between the due
// listing and the completion write, like a user cancelling mid-sweep.
type cancelAfterList struct {
	*memStorage
	victim uuid.UUID
}

func (c *cancelAfterList) ListDueForCompletion(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	due, err := c.memStorage.ListDueForCompletion(ctx, now)
	if err != nil {
		return nil, err
	}
	if r, ok := c.reservations[c.victim]; ok {
		r.Status = domain.StatusCancelled
	}
	return due, nil
}

func TestService_CompleteDue_LosesToConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := f.now.Add(2 * time.Hour)
	view, err := f.svc.CreateReservation(ctx, f.court.ID, f.userID, start, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	f.svc.reservations = &cancelAfterList{memStorage: f.storage, victim: view.ID}
	f.svc.now = func() time.Time { return start.Add(90 * time.Minute) }

	n, err := f.svc.CompleteDue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 completions, got %d", n)
	}

	got, err := f.svc.GetReservation(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "CANCELLED" {
		t.Errorf("expected cancellation to survive the sweep, got %s", got.Status)
	}
}
