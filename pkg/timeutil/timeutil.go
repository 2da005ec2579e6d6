// Package timeutil provides the engine's notion of "today": a Clock bound to
// a reference timezone, plus calendar-day arithmetic used by streak tracking
// and analytics bucketing. All progression rules operate on calendar days in
// the reference location, never on raw instants.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// Clock supplies the current time. The engine takes a Clock instead of
// calling time.Now so that day-boundary behavior is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock. It reports time.Now converted into
// the configured reference location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock creates a SystemClock for the given location.
// A nil location falls back to UTC.
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return &SystemClock{Location: loc}
}

// Now returns the current time in the reference location.
func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant. Used in tests.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c *FixedClock) Now() time.Time {
	return c.Instant
}

// Advance moves the fixed instant forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.Instant = c.Instant.Add(d)
}

// AdvanceDays moves the fixed instant forward by whole calendar days.
func (c *FixedClock) AdvanceDays(days int) {
	c.Instant = c.Instant.AddDate(0, 0, days)
}

// LoadLocation resolves an IANA timezone name, defaulting to UTC when the
// name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// Date creates a midnight time on the given date in loc.
func Date(year, month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// DateOf is StartOfDay; it names the "calendar day" reading of an instant.
// Completion and mood dates are stored in this form.
func DateOf(t time.Time) time.Time {
	return StartOfDay(t)
}

// SameDay reports whether two instants fall on the same calendar day,
// compared in t1's location.
func SameDay(t1, t2 time.Time) bool {
	a, b := t1, t2.In(t1.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// DaysBetween returns the signed number of calendar days from t1 to t2.
// Positive when t2 is later. Comparison happens in t1's location, so a
// completion stamped late at night and one early the next morning are one
// day apart.
func DaysBetween(t1, t2 time.Time) int {
	a := StartOfDay(t1)
	b := StartOfDay(t2.In(t1.Location()))
	return int(b.Sub(a).Hours() / 24)
}

// IsConsecutiveDay reports whether t2 is exactly the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return DaysBetween(t1, t2) == 1
}

// FormatDate is the wire format for calendar days (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// FormatDateStr renders a calendar day in wire format.
func FormatDateStr(t time.Time) string {
	return t.Format(FormatDate)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(FormatDate, value, loc)
}
