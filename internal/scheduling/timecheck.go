package scheduling

import "time"

// DefaultBookingBuffer is the minimum lead time for a new slot when no
// buffer is configured.
const DefaultBookingBuffer = 60 * time.Second

// TimeValidator checks a proposed interview start against "now + buffer".
// It is pure: no clock access, no side effects. Callers resolve any
// client-local-time ambiguity before calling; both inputs are compared as
// absolute UTC instants.
type TimeValidator struct {
	buffer time.Duration
}

// NewTimeValidator creates a validator with the given lead-time buffer.
// A non-positive buffer falls back to DefaultBookingBuffer.
func NewTimeValidator(buffer time.Duration) *TimeValidator {
	if buffer <= 0 {
		buffer = DefaultBookingBuffer
	}
	return &TimeValidator{buffer: buffer}
}

// Buffer returns the configured lead-time buffer.
func (v *TimeValidator) Buffer() time.Duration { return v.buffer }

// Validate rejects candidate times strictly before now + buffer. A candidate
// exactly at the boundary is accepted.
func (v *TimeValidator) Validate(candidate, now time.Time) error {
	candidate = candidate.UTC()
	minValid := now.UTC().Add(v.buffer)
	if candidate.Before(minValid) {
		return &TimeError{Candidate: candidate, MinValid: minValid}
	}
	return nil
}
