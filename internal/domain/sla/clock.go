// Package sla holds the calendar arithmetic, priority budgets, status
// vocabularies and ordering rules that every case and workflow computation in
// casetrack is built on. Nothing in this package reads the wall clock or
// performs I/O; "now" is always passed in.
package sla

import (
	"strings"
	"time"

	"github.com/turtacn/casetrack/pkg/errors"
)

// DateLayout is the wire and CLI format for calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// Clock is the single source of "now" for callers that need one.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (UTC when nil). The location
// only decides which calendar day "now" falls on.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns At. Used by tests and by the CLI --today flag.
type FixedClock struct {
	At time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time {
	return c.At
}

// CalendarDate drops the time-of-day and zone of t, keeping the calendar day
// as observed in t's own location, and returns it as UTC midnight.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of c.Now().
func Today(c Clock) time.Time {
	return CalendarDate(c.Now())
}

// DaysBetween returns the whole calendar-day difference b − a. Times of day
// are ignored, so the result is exact and never fractional.
func DaysBetween(a, b time.Time) int {
	da, db := CalendarDate(a), CalendarDate(b)
	return int((db.Unix() - da.Unix()) / secondsPerDay)
}

// AddDays returns the calendar date d shifted by n days.
func AddDays(d time.Time, n int) time.Time {
	return CalendarDate(d).AddDate(0, 0, n)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, errors.CodeInvalidParam, "invalid date %q, expected %s", s, DateLayout)
	}
	return t, nil
}

// FormatDate renders a nullable date, "" when absent.
func FormatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(DateLayout)
}

//Personal.AI order the ending
