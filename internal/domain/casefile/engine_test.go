package casefile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/pkg/errors"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

var now = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func activeCase(id string, p sla.Priority, daysAgo int) *Case {
	submitted := sla.AddDays(now, -daysAgo)
	received := submitted
	return &Case{
		ID:            id,
		CaseType:      "Appointment",
		Priority:      p,
		Status:        sla.StatusInProcess,
		SubmittedDate: &submitted,
		ReceivedDate:  &received,
	}
}

func TestComputeCaseDerived_MediumBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		days int
		want sla.SLAStatus
	}{
		{11, sla.SLAWithinSLA},
		{12, sla.SLAAtRisk},
		{13, sla.SLACritical},
		{14, sla.SLAOverdue},
		{15, sla.SLAOverdue},
	}
	for _, tc := range cases {
		d, err := ComputeCaseDerived(activeCase("HR-1", sla.PriorityMedium, tc.days), now)
		require.NoError(t, err)
		assert.Equal(t, tc.days, d.DaysInProcess)
		assert.Equal(t, tc.want, d.SLAStatus, "days=%d", tc.days)
		assert.Equal(t, 14, d.OverallSLADays)
	}
}

func TestComputeCaseDerived_ActiveCountsToNow(t *testing.T) {
	t.Parallel()

	for n := 0; n < 30; n++ {
		d, err := ComputeCaseDerived(activeCase("HR-2", sla.PriorityLow, n), now)
		require.NoError(t, err)
		assert.Equal(t, n, d.DaysInProcess)
	}
}

func TestComputeCaseDerived_FutureSubmissionIsZero(t *testing.T) {
	t.Parallel()

	d, err := ComputeCaseDerived(activeCase("HR-3", sla.PriorityHigh, -4), now)
	require.NoError(t, err)
	assert.Equal(t, 0, d.DaysInProcess)
	assert.Equal(t, sla.SLAWithinSLA, d.SLAStatus)
}

func TestComputeCaseDerived_TerminalFreezesAtSignedDate(t *testing.T) {
	t.Parallel()

	c := &Case{
		ID:            "HR-4",
		CaseType:      "Promotion",
		Priority:      sla.PriorityHigh,
		Status:        sla.StatusApprovedSigned,
		SubmittedDate: day(2024, 5, 1),
		ReceivedDate:  day(2024, 5, 1),
		SignedDate:    day(2024, 5, 6),
	}

	for _, at := range []time.Time{now, now.AddDate(0, 3, 0)} {
		d, err := ComputeCaseDerived(c, at)
		require.NoError(t, err)
		assert.Equal(t, 5, d.DaysInProcess)
		assert.Equal(t, sla.SLACompleted, d.SLAStatus)
	}

	c.SignedDate = day(2024, 5, 9)
	d, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	assert.Equal(t, 8, d.DaysInProcess)
	assert.Equal(t, sla.SLACompletedOverdue, d.SLAStatus)
}

func TestComputeCaseDerived_TerminalHasNoDeadlineBucket(t *testing.T) {
	t.Parallel()

	open := activeCase("HR-6", sla.PriorityMedium, 4)
	open.Deadline = day(2024, 6, 1)
	closed := activeCase("HR-7", sla.PriorityMedium, 4)
	closed.Deadline = day(2024, 6, 1)
	closed.Status = sla.StatusApprovedSigned
	closed.SignedDate = day(2024, 6, 8)

	d, err := ComputeCaseDerived(open, now)
	require.NoError(t, err)
	assert.Equal(t, sla.DeadlineOverdue, d.DeadlineBucket)

	d, err = ComputeCaseDerived(closed, now)
	require.NoError(t, err)
	assert.Empty(t, d.DeadlineBucket)
}

func TestComputeCaseDerived_TerminalWithoutSignedDateUsesNow(t *testing.T) {
	t.Parallel()

	c := activeCase("HR-5", sla.PriorityUrgent, 3)
	c.Status = sla.StatusNotApproved

	d, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	assert.Equal(t, 3, d.DaysInProcess)
	assert.Equal(t, sla.SLACompleted, d.SLAStatus)
}

func TestComputeCaseDerived_QueryCountersRunIndependently(t *testing.T) {
	t.Parallel()

	c := activeCase("HR-6", sla.PriorityMedium, 10)
	c.Status = sla.StatusDeptQueryHigherAuthority
	c.FirstQueryIssuedDate = day(2024, 6, 1)
	c.FirstQueryResponseDate = day(2024, 6, 4)
	c.SecondQueryIssuedDate = day(2024, 6, 6)

	d, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	assert.Equal(t, 10, d.DaysInProcess, "query does not toll the main clock")
	assert.Equal(t, 0, d.FirstQueryPendingDays)
	assert.Equal(t, 4, d.SecondQueryPendingDays)
}

func TestComputeCaseDerived_ReceivedToHigher(t *testing.T) {
	t.Parallel()

	c := activeCase("HR-7", sla.PriorityMedium, 5)
	d, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	assert.Nil(t, d.DaysReceivedToSubmittedToHigher)

	c.ReceivedDate = day(2024, 6, 1)
	c.SubmittedToHigherDate = day(2024, 6, 8)
	d, err = ComputeCaseDerived(c, now)
	require.NoError(t, err)
	require.NotNil(t, d.DaysReceivedToSubmittedToHigher)
	assert.Equal(t, 7, *d.DaysReceivedToSubmittedToHigher)
}

func TestComputeCaseDerived_Errors(t *testing.T) {
	t.Parallel()

	missing := activeCase("HR-8", sla.PriorityLow, 1)
	missing.SubmittedDate = nil

	badOrder := activeCase("HR-9", sla.PriorityLow, 1)
	badOrder.FirstQueryIssuedDate = day(2024, 6, 5)
	badOrder.FirstQueryResponseDate = day(2024, 6, 4)

	badSecond := activeCase("HR-10", sla.PriorityLow, 1)
	badSecond.SecondQueryIssuedDate = day(2024, 6, 5)
	badSecond.SecondQueryResponseDate = day(2024, 6, 1)

	badPriority := activeCase("HR-11", sla.Priority("P0"), 1)

	badStatus := activeCase("HR-12", sla.PriorityLow, 1)
	badStatus.Status = sla.Status("Closed")

	signedEarly := activeCase("HR-13", sla.PriorityLow, 1)
	signedEarly.Status = sla.StatusApprovedSigned
	signedEarly.SignedDate = day(2024, 1, 1)

	cases := []struct {
		name string
		c    *Case
		code errors.ErrorCode
	}{
		{"missing submitted", missing, errors.CodeMissingRequiredDate},
		{"first response before issue", badOrder, errors.CodeInvalidDateOrder},
		{"second response before issue", badSecond, errors.CodeInvalidDateOrder},
		{"unknown priority", badPriority, errors.CodeUnknownEnumValue},
		{"unknown status", badStatus, errors.CodeUnknownEnumValue},
		{"signed before submitted", signedEarly, errors.CodeInvalidDateOrder},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ComputeCaseDerived(tc.c, now)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
			assert.Contains(t, err.Error(), tc.c.ID)
		})
	}
}

func TestComputeCaseDerived_Idempotent(t *testing.T) {
	t.Parallel()

	c := activeCase("HR-14", sla.PriorityHigh, 6)
	c.FirstQueryIssuedDate = day(2024, 6, 7)
	c.Deadline = day(2024, 6, 12)

	first, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	second, err := ComputeCaseDerived(c, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, sla.DeadlineThisWeek, first.DeadlineBucket)
}

func TestComputeBatch_ErrorsAreScopedPerCase(t *testing.T) {
	t.Parallel()

	broken := activeCase("B", sla.PriorityLow, 2)
	broken.SubmittedDate = nil

	results := ComputeBatch([]*Case{
		activeCase("A", sla.PriorityUrgent, 5),
		broken,
		activeCase("C", sla.PriorityMedium, 1),
	}, now)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, sla.SLAOverdue, results[0].Derived.SLAStatus)
	assert.True(t, errors.IsCode(results[1].Err, errors.CodeMissingRequiredDate))
	assert.Equal(t, "B", results[1].CaseID)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, sla.SLAWithinSLA, results[2].Derived.SLAStatus)
}

//Personal.AI order the ending
