package domain

import (
	"errors"
	"testing"
	"time"
)

func TestValidateInterval(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	rules := DefaultBookingRules()

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr string
	}{
		{
			name:  "valid one hour tomorrow",
			start: now.Add(24 * time.Hour),
			end:   now.Add(25 * time.Hour),
		},
		{
			name:  "valid exactly 30 minutes",
			start: now.Add(time.Hour),
			end:   now.Add(time.Hour + 30*time.Minute),
		},
		{
			name:  "valid exactly 24 hours",
			start: now.Add(time.Hour),
			end:   now.Add(25 * time.Hour),
		},
		{
			name:  "valid start inside grace window",
			start: now.Add(-4 * time.Minute),
			end:   now.Add(time.Hour),
		},
		{
			name:    "start ten minutes in the past",
			start:   now.Add(-10 * time.Minute),
			end:     now.Add(time.Hour),
			wantErr: "start time cannot be in the past",
		},
		{
			name:    "end before start",
			start:   now.Add(2 * time.Hour),
			end:     now.Add(time.Hour),
			wantErr: "end time must be after start time",
		},
		{
			name:    "zero duration",
			start:   now.Add(time.Hour),
			end:     now.Add(time.Hour),
			wantErr: "end time must be after start time",
		},
		{
			name:    "shorter than 30 minutes",
			start:   now.Add(time.Hour),
			end:     now.Add(time.Hour + 29*time.Minute),
			wantErr: "minimum reservation duration is 30 minutes",
		},
		{
			name:    "longer than 24 hours",
			start:   now.Add(time.Hour),
			end:     now.Add(25*time.Hour + time.Minute),
			wantErr: "maximum reservation duration is 24 hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.ValidateInterval(tt.start, tt.end, now)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if got := Reason(err); got != tt.wantErr {
				t.Errorf("expected reason %q, got %q", tt.wantErr, got)
			}
		})
	}
}

func TestValidateInterval_EndInThePast(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	// Start is inside the grace window but the end is already gone.
	rules := BookingRules{GraceWindow: time.Hour, MinDuration: time.Minute, MaxDuration: 24 * time.Hour}

	err := rules.ValidateInterval(now.Add(-30*time.Minute), now.Add(-10*time.Minute), now)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if got := Reason(err); got != "end time cannot be in the past" {
		t.Errorf("unexpected reason %q", got)
	}
}

func TestValidateInterval_ConfigurableGrace(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	rules := DefaultBookingRules()
	rules.GraceWindow = time.Minute

	err := rules.ValidateInterval(now.Add(-3*time.Minute), now.Add(time.Hour), now)
	if err == nil {
		t.Fatal("expected past-start error with a 1 minute grace window")
	}

	rules.GraceWindow = 5 * time.Minute
	if err := rules.ValidateInterval(now.Add(-3*time.Minute), now.Add(time.Hour), now); err != nil {
		t.Fatalf("expected no error with a 5 minute grace window, got %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd int
		want                           bool
	}{
		{"candidate starts inside existing", 30, 90, 0, 60, true},
		{"candidate ends inside existing", -30, 30, 0, 60, true},
		{"candidate contains existing", -30, 90, 0, 60, true},
		{"existing contains candidate", 10, 20, 0, 60, true},
		{"identical intervals", 0, 60, 0, 60, true},
		{"touching end to start", -60, 0, 0, 60, false},
		{"touching start to end", 60, 120, 0, 60, false},
		{"disjoint", 120, 180, 0, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(at(tt.aStart), at(tt.aEnd), at(tt.bStart), at(tt.bEnd))
			if got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
		})
	}
}
