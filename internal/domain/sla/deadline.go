package sla

import "time"

// DeadlineBucket groups active cases for dashboard counters.
type DeadlineBucket string

const (
	DeadlineOverdue    DeadlineBucket = "overdue"
	DeadlineThisWeek   DeadlineBucket = "thisWeek"
	DeadlineUpcoming   DeadlineBucket = "upcoming"
	DeadlineNoDeadline DeadlineBucket = "noDeadline"
)

// ThisWeekWindowDays is the inclusive look-ahead of the thisWeek bucket.
const ThisWeekWindowDays = 7

// ParseDeadlineBucket returns the bucket named s.
func ParseDeadlineBucket(s string) (DeadlineBucket, error) {
	switch b := DeadlineBucket(s); b {
	case DeadlineOverdue, DeadlineThisWeek, DeadlineUpcoming, DeadlineNoDeadline:
		return b, nil
	}
	return "", UnknownEnumValue("deadline bucket", s)
}

// ClassifyDeadline buckets a nullable deadline against the calendar day of now.
func ClassifyDeadline(deadline *time.Time, now time.Time) DeadlineBucket {
	if deadline == nil {
		return DeadlineNoDeadline
	}
	today := CalendarDate(now)
	d := CalendarDate(*deadline)
	switch {
	case d.Before(today):
		return DeadlineOverdue
	case !d.After(AddDays(today, ThisWeekWindowDays)):
		return DeadlineThisWeek
	default:
		return DeadlineUpcoming
	}
}

// DeadlineCounts tallies buckets over a set of active cases.
type DeadlineCounts struct {
	Overdue    int `json:"overdue"`
	ThisWeek   int `json:"this_week"`
	Upcoming   int `json:"upcoming"`
	NoDeadline int `json:"no_deadline"`
}

// Add counts one case in bucket b.
func (c *DeadlineCounts) Add(b DeadlineBucket) {
	switch b {
	case DeadlineOverdue:
		c.Overdue++
	case DeadlineThisWeek:
		c.ThisWeek++
	case DeadlineUpcoming:
		c.Upcoming++
	case DeadlineNoDeadline:
		c.NoDeadline++
	}
}

// Total is the number of counted cases.
func (c DeadlineCounts) Total() int {
	return c.Overdue + c.ThisWeek + c.Upcoming + c.NoDeadline
}

// Get returns the count of bucket b.
func (c DeadlineCounts) Get(b DeadlineBucket) int {
	switch b {
	case DeadlineOverdue:
		return c.Overdue
	case DeadlineThisWeek:
		return c.ThisWeek
	case DeadlineUpcoming:
		return c.Upcoming
	case DeadlineNoDeadline:
		return c.NoDeadline
	}
	return 0
}

// DeadlineBuckets returns every bucket in dashboard order.
func DeadlineBuckets() []DeadlineBucket {
	return []DeadlineBucket{DeadlineOverdue, DeadlineThisWeek, DeadlineUpcoming, DeadlineNoDeadline}
}

//Personal.AI order the ending
