package scheduling

import (
	"fmt"
	"time"
)

// Quantizer converts absolute instants to integer minutes from a horizon
// start and back. Every downstream stage operates in minute units so the
// constraint model never carries a time.Time.
type Quantizer struct {
	start time.Time
}

// NewQuantizer builds a Quantizer anchored at the horizon's start instant.
func NewQuantizer(horizonStart time.Time) Quantizer {
	return Quantizer{start: horizonStart}
}

// ToMinutes converts an instant to integer minutes from the horizon start.
// The instant must be minute-aligned relative to the horizon start;
// non-aligned instants are rejected rather than truncated.
func (q Quantizer) ToMinutes(t time.Time) (int, error) {
	delta := t.Sub(q.start)
	if delta%time.Minute != 0 {
		return 0, fmt.Errorf("instant %s is not minute-aligned with horizon start %s", t.Format(time.RFC3339), q.start.Format(time.RFC3339))
	}
	return int(delta / time.Minute), nil
}

// ToInstant converts integer minutes from the horizon start back to an
// absolute instant. Satisfies ToInstant(ToMinutes(x)) == x for minute-
// aligned x within the horizon.
func (q Quantizer) ToInstant(minutes int) time.Time {
	return q.start.Add(time.Duration(minutes) * time.Minute)
}
