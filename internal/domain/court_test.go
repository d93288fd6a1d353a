package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTennisCourt(t *testing.T) {
	court, err := NewTennisCourt("  Center Court 1  ", decimal.NewFromInt(1500), "Outdoor clay court")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if court.Name != "Center Court 1" {
		t.Errorf("expected trimmed name, got %q", court.Name)
	}
}

func TestNewTennisCourt_Failures(t *testing.T) {
	rate := decimal.NewFromInt(1500)

	tests := []struct {
		name        string
		courtName   string
		rate        decimal.Decimal
		description string
		wantErr     string
	}{
		{"empty name", "", rate, "desc ok", "court name cannot be empty"},
		{"name too short", "A", rate, "desc ok", "court name must be 2 to 50 characters"},
		{"name too long", strings.Repeat("a", 51), rate, "desc ok", "court name must be 2 to 50 characters"},
		{"name with punctuation", "Court #1!", rate, "desc ok", "court name contains invalid characters"},
		{"empty description", "Court 1", rate, "", "court description cannot be empty"},
		{"description too long", "Court 1", rate, strings.Repeat("d", 201), "court description must be 2 to 200 characters"},
		{"rate exactly 100", "Court 1", decimal.NewFromInt(100), "desc ok", "hourly rate must be greater than 100"},
		{"rate below 100", "Court 1", decimal.NewFromInt(99), "desc ok", "hourly rate must be greater than 100"},
		{"rate above 10000", "Court 1", decimal.NewFromInt(10001), "desc ok", "hourly rate cannot exceed 10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTennisCourt(tt.courtName, tt.rate, tt.description)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := Reason(err); got != tt.wantErr {
				t.Errorf("expected reason %q, got %q", tt.wantErr, got)
			}
		})
	}
}

func TestTennisCourt_Update(t *testing.T) {
	court, err := NewTennisCourt("Court 1", decimal.NewFromInt(1000), "Hard court")
	if err != nil {
		t.Fatal(err)
	}
	if err := court.Update("Court 2", decimal.NewFromInt(2000), "Resurfaced hard court"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if court.Name != "Court 2" || !court.HourlyRate.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("update not applied: %q %s", court.Name, court.HourlyRate)
	}

	if err := court.Update("Court 2", decimal.NewFromInt(50), "Resurfaced hard court"); err == nil {
		t.Fatal("expected rate validation error")
	}
	if !court.HourlyRate.Equal(decimal.NewFromInt(2000)) {
		t.Error("failed update must not mutate the court")
	}
}
