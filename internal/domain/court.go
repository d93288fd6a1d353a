package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Court field limits.
const (
	MinNameLength        = 2
	MaxNameLength        = 50
	MinDescriptionLength = 2
	MaxDescriptionLength = 200
)

var (
	MinHourlyRate = decimal.NewFromInt(100)
	MaxHourlyRate = decimal.NewFromInt(10000)

	courtNameRe = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
)

// TennisCourt is a bookable physical resource with an hourly rate.
type TennisCourt struct {
	ID          uuid.UUID
	Name        string
	HourlyRate  decimal.Decimal
	Description string
}

func NewTennisCourt(name string, hourlyRate decimal.Decimal, description string) (*TennisCourt, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validateCourt(name, hourlyRate, description); err != nil {
		return nil, err
	}
	return &TennisCourt{
		ID:          uuid.New(),
		Name:        name,
		HourlyRate:  hourlyRate,
		Description: description,
	}, nil
}

func (c *TennisCourt) Update(name string, hourlyRate decimal.Decimal, description string) error {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if err := validateCourt(name, hourlyRate, description); err != nil {
		return err
	}
	c.Name = name
	c.HourlyRate = hourlyRate
	c.Description = description
	return nil
}

func validateCourt(name string, hourlyRate decimal.Decimal, description string) error {
	if name == "" {
		return fmt.Errorf("%w: court name cannot be empty", ErrInvalidInput)
	}
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return fmt.Errorf("%w: court name must be %d to %d characters", ErrInvalidInput, MinNameLength, MaxNameLength)
	}
	if !courtNameRe.MatchString(name) {
		return fmt.Errorf("%w: court name contains invalid characters", ErrInvalidInput)
	}
	if description == "" {
		return fmt.Errorf("%w: court description cannot be empty", ErrInvalidInput)
	}
	if len(description) < MinDescriptionLength || len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: court description must be %d to %d characters", ErrInvalidInput, MinDescriptionLength, MaxDescriptionLength)
	}
	if !hourlyRate.GreaterThan(MinHourlyRate) {
		return fmt.Errorf("%w: hourly rate must be greater than %s", ErrInvalidInput, MinHourlyRate)
	}
	if hourlyRate.GreaterThan(MaxHourlyRate) {
		return fmt.Errorf("%w: hourly rate cannot exceed %s", ErrInvalidInput, MaxHourlyRate)
	}
	return nil
}
