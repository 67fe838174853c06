package scheduling

import (
	"errors"
	"testing"
	"time"
)

func TestTimeValidatorRejectsBeforeBuffer(t *testing.T) {
	v := NewTimeValidator(60 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		candidate time.Time
		wantErr   bool
	}{
		{"in the past", now.Add(-time.Hour), true},
		{"now exactly", now, true},
		{"one second short", now.Add(59 * time.Second), true},
		{"exactly at boundary", now.Add(60 * time.Second), false},
		{"one second past boundary", now.Add(61 * time.Second), false},
		{"far future", now.Add(24 * time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate(tc.candidate, now)
			if tc.wantErr && err == nil {
				t.Fatalf("Validate(%v) = nil, want error", tc.candidate)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate(%v) = %v, want nil", tc.candidate, err)
			}
		})
	}
}

func TestTimeValidatorErrorCarriesShortfall(t *testing.T) {
	v := NewTimeValidator(60 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := v.Validate(now.Add(10*time.Second), now)
	var te *TimeError
	if !errors.As(err, &te) {
		t.Fatalf("Validate = %v, want *TimeError", err)
	}
	if got := te.ShortBy(); got != 50*time.Second {
		t.Errorf("ShortBy() = %v, want 50s", got)
	}
}

func TestTimeValidatorNormalizesZones(t *testing.T) {
	v := NewTimeValidator(60 * time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Same instant as the boundary, expressed in a non-UTC zone.
	est := time.FixedZone("EST", -5*3600)
	candidate := time.Date(2026, 3, 1, 7, 1, 0, 0, est)
	if err := v.Validate(candidate, now); err != nil {
		t.Fatalf("Validate(boundary in EST) = %v, want nil", err)
	}
}

func TestTimeValidatorDefaultBuffer(t *testing.T) {
	v := NewTimeValidator(0)
	if v.Buffer() != DefaultBookingBuffer {
		t.Errorf("Buffer() = %v, want %v", v.Buffer(), DefaultBookingBuffer)
	}
	v = NewTimeValidator(-time.Minute)
	if v.Buffer() != DefaultBookingBuffer {
		t.Errorf("Buffer() = %v for negative input, want %v", v.Buffer(), DefaultBookingBuffer)
	}
}
