package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	MinEmailLength = 5
	MaxEmailLength = 255
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is a registered player. Reservations reference it by id; the
// deletion guard lives in storage, which knows whether any exist.
type User struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	PhoneNumber      string
	RegistrationDate time.Time
}

func NewUser(firstName, lastName, email, phoneNumber string, now time.Time) (*User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	phoneNumber = strings.TrimSpace(phoneNumber)

	if err := validateUser(firstName, lastName, email, phoneNumber); err != nil {
		return nil, err
	}
	return &User{
		ID:               uuid.New(),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		PhoneNumber:      phoneNumber,
		RegistrationDate: now.UTC(),
	}, nil
}

func (u *User) Update(firstName, lastName, email, phoneNumber string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.ToLower(strings.TrimSpace(email))
	phoneNumber = strings.TrimSpace(phoneNumber)

	if err := validateUser(firstName, lastName, email, phoneNumber); err != nil {
		return err
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Email = email
	u.PhoneNumber = phoneNumber
	return nil
}

func validateUser(firstName, lastName, email, phoneNumber string) error {
	if err := validatePersonName("first name", firstName); err != nil {
		return err
	}
	if err := validatePersonName("last name", lastName); err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}
	if len(email) < MinEmailLength || len(email) > MaxEmailLength {
		return fmt.Errorf("%w: email must be %d to %d characters", ErrInvalidInput, MinEmailLength, MaxEmailLength)
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if phoneNumber == "" {
		return fmt.Errorf("%w: phone number cannot be empty", ErrInvalidInput)
	}
	digits := 0
	for _, r := range phoneNumber {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("%w: phone number must contain %d to %d digits", ErrInvalidInput, MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

func validatePersonName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidInput, field)
	}
	if len(value) < MinNameLength || len(value) > MaxNameLength {
		return fmt.Errorf("%w: %s must be %d to %d characters", ErrInvalidInput, field, MinNameLength, MaxNameLength)
	}
	for _, r := range value {
		if unicode.IsDigit(r) {
			return fmt.Errorf("%w: %s must not contain digits", ErrInvalidInput, field)
		}
	}
	return nil
}
