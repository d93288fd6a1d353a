package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/robertarktes/tennis-court-reservations/internal/observability"
	"github.com/shopspring/decimal"
)

const (
	SerializationFailureCode = "40001"
	UniqueViolationCode      = "23505"
)

type Repository struct {
	pool   *pgxpool.Pool
	logger observability.Logger
}

func NewRepository(pool *pgxpool.Pool, logger observability.Logger) *Repository {
	return &Repository{pool: pool, logger: logger}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx runs fn inside a SERIALIZABLE transaction. Serialization failures
// surface as domain.ErrSerializationFailure so callers can retry or 409.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() {
		observability.DBTxDuration.Observe(time.Since(start).Seconds())
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

// wrap converts unexpected driver errors into a generic domain.ErrStorage
// after logging them, so internals never leak to callers. Domain-level
// results pass through untouched.
func (r *Repository) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.IsAny(err, domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidInput, domain.ErrSerializationFailure) {
		return err
	}
	r.logger.WithField("op", op).Error("storage operation failed: ", err)
	return domain.ErrStorage
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const reservationColumns = `id, court_id, user_id, start_time, end_time, total_cost::text, status, created_at`

// Overlap of half-open intervals on the same court; cancelled reservations
// do not block a slot. Backed by the (court_id, start_time, end_time) index.
const overlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE court_id = $1
		  AND status <> 'CANCELLED'
		  AND start_time < $3
		  AND end_time > $2
		  AND ($4::uuid IS NULL OR id <> $4)
	)`

func overlapExists(ctx context.Context, q querier, courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	var taken bool
	err := q.QueryRow(ctx, overlapQuery, courtID, start, end, excludeID).Scan(&taken)
	return taken, err
}

// CreateReservation inserts the reservation and its outbox event after
// re-checking availability, all in one serializable transaction. Two
// concurrent creates for an overlapping slot cannot both commit.
func (r *Repository) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		taken, err := overlapExists(ctx, tx, res.CourtID, res.StartTime, res.EndTime, nil)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrConflict
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO reservations (id, court_id, user_id, start_time, end_time, total_cost, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
		`, res.ID, res.CourtID, res.UserID, res.StartTime, res.EndTime, res.TotalCost.String(), string(res.Status), res.CreatedAt)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, newReservationOutbox("reservation.created", res))
	})
	return r.wrap("create reservation", err)
}

// UpdateReservation rewrites the mutable fields; the availability re-check
// excludes the reservation itself so moving within its own slot is allowed.
// The row is only written while its status still equals expected, so the
// write loses cleanly against a concurrent transition instead of clobbering
// it. The event name ends up on the outbox record (reservation.updated,
// reservation.cancelled, reservation.completed).
func (r *Repository) UpdateReservation(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus, event string) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		exclude := res.ID
		taken, err := overlapExists(ctx, tx, res.CourtID, res.StartTime, res.EndTime, &exclude)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrConflict
		}
		result, err := tx.Exec(ctx, `
			UPDATE reservations
			SET court_id = $2, user_id = $3, start_time = $4, end_time = $5, total_cost = $6::numeric, status = $7
			WHERE id = $1 AND status = $8
		`, res.ID, res.CourtID, res.UserID, res.StartTime, res.EndTime, res.TotalCost.String(), string(res.Status), string(expected))
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return r.staleReservation(ctx, tx, res.ID)
		}
		return insertOutbox(ctx, tx, newReservationOutbox(event, res))
	})
	return r.wrap("update reservation", err)
}

// staleReservation tells a missing row apart from one whose status moved
// under the caller.
func (r *Repository) staleReservation(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var current string
	err := tx.QueryRow(ctx, `SELECT status FROM reservations WHERE id = $1`, id).Scan(&current)
	if err == pgx.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot modify a %s reservation", domain.ErrConflict, strings.ToLower(current))
}

func (r *Repository) DeleteReservation(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return r.wrap("delete reservation", err)
}

func (r *Repository) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE id = $1
	`, id))
	if err != nil {
		return nil, r.wrap("get reservation", err)
	}
	return res, nil
}

func (r *Repository) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	return r.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations ORDER BY start_time
	`)
}

func (r *Repository) ListReservationsForCourt(ctx context.Context, courtID uuid.UUID) ([]domain.Reservation, error) {
	return r.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations WHERE court_id = $1 ORDER BY start_time
	`, courtID)
}

// ListDueForCompletion returns Booked reservations whose window has passed.
func (r *Repository) ListDueForCompletion(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	return r.listReservations(ctx, `
		SELECT `+reservationColumns+` FROM reservations
		WHERE status = 'BOOKED' AND end_time <= $1
		ORDER BY end_time
	`, now)
}

func (r *Repository) listReservations(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("list reservations", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, r.wrap("list reservations", err)
		}
		out = append(out, *res)
	}
	return out, r.wrap("list reservations", rows.Err())
}

// IsAvailable is the read-only availability check exposed through the API.
func (r *Repository) IsAvailable(ctx context.Context, courtID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	taken, err := overlapExists(ctx, r.pool, courtID, start, end, excludeID)
	if err != nil {
		return false, r.wrap("check availability", err)
	}
	return !taken, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	var cost, status string
	err := row.Scan(&res.ID, &res.CourtID, &res.UserID, &res.StartTime, &res.EndTime, &cost, &status, &res.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Status = domain.ReservationStatus(status)
	res.TotalCost, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
