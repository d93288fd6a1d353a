package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

const (
	maxFailedLogins = 5
	lockoutPeriod   = 15 * time.Minute
)

// UserCredentials holds the login state for a user. The password itself is
// hashed by the auth package before it reaches the domain.
type UserCredentials struct {
	ID                  uuid.UUID
	UserID              uuid.UUID
	PasswordHash        string
	Role                UserRole
	CreatedAt           time.Time
	LastLoginAt         *time.Time
	FailedLoginAttempts int
	LockedUntil         *time.Time
}

func NewUserCredentials(userID uuid.UUID, passwordHash string, role UserRole, now time.Time) (*UserCredentials, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id cannot be empty", ErrInvalidInput)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash cannot be empty", ErrInvalidInput)
	}
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return &UserCredentials{
		ID:           uuid.New(),
		UserID:       userID,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now.UTC(),
	}, nil
}

func (c *UserCredentials) IsLocked(now time.Time) bool {
	return c.LockedUntil != nil && c.LockedUntil.After(now)
}

// RecordFailedAttempt counts a bad login and locks the account after too many.
func (c *UserCredentials) RecordFailedAttempt(now time.Time) {
	c.FailedLoginAttempts++
	if c.FailedLoginAttempts >= maxFailedLogins {
		until := now.UTC().Add(lockoutPeriod)
		c.LockedUntil = &until
	}
}

func (c *UserCredentials) RecordSuccessfulLogin(now time.Time) {
	t := now.UTC()
	c.LastLoginAt = &t
	c.FailedLoginAttempts = 0
	c.LockedUntil = nil
}
