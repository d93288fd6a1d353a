package postgres

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/robertarktes/tennis-court-reservations/internal/domain"
)

const userColumns = `id, first_name, last_name, email, phone_number, registration_date`

// CreateUser stores the user and, when present, their credentials in one
// transaction.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User, creds *domain.UserCredentials) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, first_name, last_name, email, phone_number, registration_date)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, user.ID, user.FirstName, user.LastName, user.Email, user.PhoneNumber, user.RegistrationDate)
		if err != nil {
			return mapEmailConflict(err)
		}
		if creds == nil {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_credentials (id, user_id, password_hash, role, created_at, failed_login_attempts)
			VALUES ($1, $2, $3, $4, $5, 0)
		`, creds.ID, creds.UserID, creds.PasswordHash, string(creds.Role), creds.CreatedAt)
		return err
	})
	return r.wrap("create user", err)
}

func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name = $2, last_name = $3, email = $4, phone_number = $5 WHERE id = $1
	`, user.ID, user.FirstName, user.LastName, user.Email, user.PhoneNumber)
	if err != nil {
		return r.wrap("update user", mapEmailConflict(err))
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteUser refuses to delete a user that still has reservations.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var reserved bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM reservations WHERE user_id = $1)
		`, id).Scan(&reserved); err != nil {
			return err
		}
		if reserved {
			return fmt.Errorf("%w: cannot delete a user with existing reservations", domain.ErrConflict)
		}
		result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return r.wrap("delete user", err)
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if err != nil {
		return nil, r.wrap("get user", err)
	}
	return user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY registration_date`)
	if err != nil {
		return nil, r.wrap("list users", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.wrap("list users", err)
		}
		out = append(out, *user)
	}
	return out, r.wrap("list users", rows.Err())
}

// GetCredentialsByEmail loads a user together with their login state, used
// by the login flow.
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*domain.User, *domain.UserCredentials, error) {
	var user domain.User
	var creds domain.UserCredentials
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.phone_number, u.registration_date,
		       c.id, c.user_id, c.password_hash, c.role, c.created_at, c.last_login_at,
		       c.failed_login_attempts, c.locked_until
		FROM users u
		JOIN user_credentials c ON c.user_id = u.id
		WHERE u.email = $1
	`, email).Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PhoneNumber, &user.RegistrationDate,
		&creds.ID, &creds.UserID, &creds.PasswordHash, &role, &creds.CreatedAt, &creds.LastLoginAt,
		&creds.FailedLoginAttempts, &creds.LockedUntil,
	)
	if err == pgx.ErrNoRows {
		return nil, nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, nil, r.wrap("get credentials by email", err)
	}
	creds.Role = domain.UserRole(role)
	return &user, &creds, nil
}

// SaveCredentials persists login bookkeeping (attempts, lockout, last login).
func (r *Repository) SaveCredentials(ctx context.Context, creds *domain.UserCredentials) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE user_credentials
		SET password_hash = $2, role = $3, last_login_at = $4, failed_login_attempts = $5, locked_until = $6
		WHERE id = $1
	`, creds.ID, creds.PasswordHash, string(creds.Role), creds.LastLoginAt, creds.FailedLoginAttempts, creds.LockedUntil)
	if err != nil {
		return r.wrap("save credentials", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PhoneNumber, &user.RegistrationDate)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func mapEmailConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolationCode {
		return fmt.Errorf("%w: email is already registered", domain.ErrConflict)
	}
	return err
}
