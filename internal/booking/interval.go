// Package booking provides the time-interval model, validation rules and
// conflict detection for castle bookings. Everything here is pure: callers
// fetch booking data and pass it in.
package booking

import (
	"fmt"
	"time"
)

// DefaultBuffer is the setup/teardown allowance applied around a candidate
// booking when testing overlap.
const DefaultBuffer = 30 * time.Minute

// minutesPerDay bounds the minutes-since-midnight representation (0-1439).
const minutesPerDay = 24 * 60

// Limits holds the configurable booking constraints.
type Limits struct {
	MinDuration time.Duration
	MaxDuration time.Duration
	Buffer      time.Duration
}

// DefaultLimits returns the standard hire constraints: 2-12 hours with a
// 30 minute buffer.
func DefaultLimits() Limits {
	return Limits{
		MinDuration: 2 * time.Hour,
		MaxDuration: 12 * time.Hour,
		Buffer:      DefaultBuffer,
	}
}

// ParseClock converts an HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock converts minutes since midnight back to an HH:MM string.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Interval is a half-open [Start, End) window on a single calendar day.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval from a YYYY-MM-DD date and start/end minutes
// since midnight. The end must be strictly after the start.
func NewInterval(date string, startMin, endMin int) (Interval, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	if startMin < 0 || startMin >= minutesPerDay || endMin < 0 || endMin > minutesPerDay {
		return Interval{}, fmt.Errorf("times out of range: %d-%d", startMin, endMin)
	}
	if endMin <= startMin {
		return Interval{}, fmt.Errorf("end %s is not after start %s", FormatClock(endMin), FormatClock(startMin))
	}

	return Interval{
		Start: day.Add(time.Duration(startMin) * time.Minute),
		End:   day.Add(time.Duration(endMin) * time.Minute),
	}, nil
}

// IntervalFromClocks builds an interval from HH:MM strings.
func IntervalFromClocks(date, startTime, endTime string) (Interval, error) {
	startMin, err := ParseClock(startTime)
	if err != nil {
		return Interval{}, err
	}
	endMin, err := ParseClock(endTime)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(date, startMin, endMin)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the interval, widened by the buffer on both sides,
// intersects other. The buffer models setup and teardown time around the
// receiver's window.
func (i Interval) Overlaps(other Interval, buffer time.Duration) bool {
	endsBefore := !i.End.Add(buffer).After(other.Start)
	startsAfter := !i.Start.Add(-buffer).Before(other.End)
	return !(endsBefore || startsAfter)
}
