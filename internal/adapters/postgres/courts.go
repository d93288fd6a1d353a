package postgres

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
	"github.com/shopspring/decimal"
)

const courtColumns = `id, name, hourly_rate::text, description`

func (r *Repository) CreateCourt(ctx context.Context, court *domain.TennisCourt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courts (id, name, hourly_rate, description)
		VALUES ($1, $2, $3::numeric, $4)
	`, court.ID, court.Name, court.HourlyRate.String(), court.Description)
	return r.wrap("create court", mapCourtNameConflict(err))
}

func (r *Repository) UpdateCourt(ctx context.Context, court *domain.TennisCourt) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE courts SET name = $2, hourly_rate = $3::numeric, description = $4 WHERE id = $1
	`, court.ID, court.Name, court.HourlyRate.String(), court.Description)
	if err != nil {
		return r.wrap("update court", mapCourtNameConflict(err))
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteCourt refuses to delete a court that still has reservations, checked
// and deleted in one transaction.
func (r *Repository) DeleteCourt(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var reserved bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM reservations WHERE court_id = $1)
		`, id).Scan(&reserved); err != nil {
			return err
		}
		if reserved {
			return fmt.Errorf("%w: cannot delete a court with existing reservations", domain.ErrConflict)
		}
		result, err := tx.Exec(ctx, `DELETE FROM courts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return r.wrap("delete court", err)
}

func (r *Repository) GetCourt(ctx context.Context, id uuid.UUID) (*domain.TennisCourt, error) {
	court, err := scanCourt(r.pool.QueryRow(ctx, `
		SELECT `+courtColumns+` FROM courts WHERE id = $1
	`, id))
	if err != nil {
		return nil, r.wrap("get court", err)
	}
	return court, nil
}

func (r *Repository) ListCourts(ctx context.Context) ([]domain.TennisCourt, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+courtColumns+` FROM courts ORDER BY name`)
	if err != nil {
		return nil, r.wrap("list courts", err)
	}
	defer rows.Close()

	var out []domain.TennisCourt
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			return nil, r.wrap("list courts", err)
		}
		out = append(out, *court)
	}
	return out, r.wrap("list courts", rows.Err())
}

func scanCourt(row pgx.Row) (*domain.TennisCourt, error) {
	var court domain.TennisCourt
	var rate string
	err := row.Scan(&court.ID, &court.Name, &rate, &court.Description)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	court.HourlyRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, err
	}
	return &court, nil
}

func mapCourtNameConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolationCode {
		return fmt.Errorf("%w: court name is already taken", domain.ErrConflict)
	}
	return err
}
