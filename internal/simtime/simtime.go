// Package simtime implements the wall-clock instant type the simulator
// advances in fixed steps.
package simtime

import (
	"fmt"
	"time"
)

// Time is a UTC instant with microsecond precision. It wraps time.Time so
// that simulated instants cannot accidentally be compared against wall
// clock time elsewhere in the process.
type Time struct {
	t time.Time
}

const layout = "2006-01-02 15:04:05"

// New builds a Time from a UTC instant, truncated to microsecond precision.
func New(t time.Time) Time {
	return Time{t: t.UTC().Truncate(time.Microsecond)}
}

// Parse reads the "YYYY-MM-DD HH:MM:SS" format used by the scenario config.
func Parse(s string) (Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Time{}, fmt.Errorf("simtime: parse %q: %w", s, err)
	}
	return New(t), nil
}

// Unix builds a Time from a Unix timestamp in seconds.
func Unix(sec float64) Time {
	whole := int64(sec)
	frac := sec - float64(whole)
	return New(time.Unix(whole, int64(frac*1e9)))
}

// AddSeconds returns the instant offset by the given (possibly fractional,
// possibly negative) number of seconds.
func (t Time) AddSeconds(s float64) Time {
	return New(t.t.Add(time.Duration(s * float64(time.Second))))
}

// SinceSeconds returns t - other, in seconds.
func (t Time) SinceSeconds(other Time) float64 {
	return t.t.Sub(other.t).Seconds()
}

// Before reports whether t occurs strictly before other.
func (t Time) Before(other Time) bool { return t.t.Before(other.t) }

// After reports whether t occurs strictly after other.
func (t Time) After(other Time) bool { return t.t.After(other.t) }

// Equal reports whether t and other represent the same instant.
func (t Time) Equal(other Time) bool { return t.t.Equal(other.t) }

// UnixSeconds returns the instant's unix timestamp in seconds.
func (t Time) UnixSeconds() float64 { return float64(t.t.UnixMicro()) / 1e6 }

// Std returns the underlying time.Time, for interop with orbit propagation
// libraries that expect one.
func (t Time) Std() time.Time { return t.t }

// Copy returns a value copy. Time is already a value type; Copy exists so
// call sites mirroring the "returns a copy of current time" runtime-API
// contract read the same as the rest of the codebase.
func (t Time) Copy() Time { return t }

func (t Time) String() string { return t.t.Format(layout) }

// Sequence produces t0, t0+Δ, t0+2Δ, … up to but excluding tEnd, returning
// the number of steps N = (tEnd-t0)/delta. It does not allocate the steps
// themselves; callers derive timestamp i as Step(t0, delta, i).
func Sequence(start, end Time, delta float64) (n int, err error) {
	if delta <= 0 {
		return 0, fmt.Errorf("simtime: delta must be positive, got %v", delta)
	}
	total := end.SinceSeconds(start)
	n = int(total / delta)
	if n <= 0 {
		return 0, fmt.Errorf("simtime: end must be after start by at least one delta")
	}
	return n, nil
}

// Step returns t0 + i*delta.
func Step(start Time, delta float64, i int) Time {
	return start.AddSeconds(delta * float64(i))
}
