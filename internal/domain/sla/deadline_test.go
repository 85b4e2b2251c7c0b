package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDeadline(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC)
	ptr := func(d time.Time) *time.Time { return &d }

	cases := []struct {
		name     string
		deadline *time.Time
		want     DeadlineBucket
	}{
		{"absent", nil, DeadlineNoDeadline},
		{"well past", ptr(date(2024, 6, 1)), DeadlineOverdue},
		{"yesterday", ptr(date(2024, 6, 9)), DeadlineOverdue},
		{"today", ptr(date(2024, 6, 10)), DeadlineThisWeek},
		{"today plus seven", ptr(date(2024, 6, 17)), DeadlineThisWeek},
		{"today plus eight", ptr(date(2024, 6, 18)), DeadlineUpcoming},
		{"late in the day still today", ptr(time.Date(2024, 6, 10, 23, 59, 0, 0, time.UTC)), DeadlineThisWeek},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ClassifyDeadline(tc.deadline, now))
		})
	}
}

func TestDeadlineCounts(t *testing.T) {
	t.Parallel()

	var c DeadlineCounts
	for _, b := range []DeadlineBucket{DeadlineOverdue, DeadlineOverdue, DeadlineThisWeek, DeadlineNoDeadline} {
		c.Add(b)
	}
	assert.Equal(t, 2, c.Overdue)
	assert.Equal(t, 2, c.Get(DeadlineOverdue))
	assert.Equal(t, 0, c.Get(DeadlineUpcoming))
	assert.Equal(t, 4, c.Total())

	_, err := ParseDeadlineBucket("soon")
	assert.Error(t, err)
	b, err := ParseDeadlineBucket("thisWeek")
	assert.NoError(t, err)
	assert.Equal(t, DeadlineThisWeek, b)
}

//Personal.AI order the ending
