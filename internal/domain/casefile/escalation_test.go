package casefile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

func TestDetectEscalations(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	mk := func(id string, submitted int) *Case {
		return &Case{ID: id, CaseType: "Permit", Priority: sla.PriorityUrgent, Status: sla.StatusInProcess, SubmittedDate: day(submitted)}
	}

	views := []View{
		NewView(mk("worse", 7), now),  // 3 days -> Overdue
		NewView(mk("same", 9), now),   // 1 day -> WithinSLA
		NewView(mk("fresh", 7), now),  // no snapshot
		{Case: &Case{ID: "broken"}, Err: assert.AnError},
	}
	prev := map[string]Snapshot{
		"worse":  {CaseID: "worse", SLAStatus: sla.SLACritical},
		"same":   {CaseID: "same", SLAStatus: sla.SLAWithinSLA},
		"broken": {CaseID: "broken", SLAStatus: sla.SLAWithinSLA},
	}

	got := DetectEscalations(prev, views)
	require.Len(t, got, 1)
	assert.Equal(t, "worse", got[0].CaseID)
	assert.Equal(t, sla.SLACritical, got[0].Previous)
	assert.Equal(t, sla.SLAOverdue, got[0].Current)
	assert.Equal(t, 3, got[0].DaysInProcess)
	assert.Equal(t, 3, got[0].AllowedDays)

	snaps := Snapshots(views)
	assert.Len(t, snaps, 3)
}

func TestDetectEscalations_CompletionIsNotEscalation(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	submitted := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := &Case{ID: "done", CaseType: "Permit", Priority: sla.PriorityUrgent, Status: sla.StatusApprovedSigned, SubmittedDate: &submitted}

	got := DetectEscalations(map[string]Snapshot{"done": {SLAStatus: sla.SLAWithinSLA}}, []View{NewView(c, now)})
	assert.Empty(t, got)
}

//Personal.AI order the ending
