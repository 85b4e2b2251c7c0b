package testutil

import (
	"fmt"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/domain/workflow"
)

// FixedNow is the reference "now" used by service and transport tests.
var FixedNow = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

// Clock returns a clock pinned to FixedNow.
func Clock() sla.Clock {
	return sla.FixedClock{At: FixedNow}
}

// Date returns a pointer to the calendar date y-m-d.
func Date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// NewCase returns a valid Medium-priority InProcess case submitted daysAgo days before FixedNow.
func NewCase(id string, daysAgo int) *casefile.Case {
	submitted := sla.AddDays(FixedNow, -daysAgo)
	received := submitted
	return &casefile.Case{
		ID:            id,
		CaseType:      "Appointment",
		Title:         "Case " + id,
		Department:    "Administration",
		Priority:      sla.PriorityMedium,
		Status:        sla.StatusInProcess,
		SubmittedDate: &submitted,
		ReceivedDate:  &received,
		CreatedAt:     FixedNow,
		UpdatedAt:     FixedNow,
	}
}

// NewSteps returns n NotStarted steps for projectID with 5-day targets.
func NewSteps(projectID string, n int) []workflow.Step {
	steps := make([]workflow.Step, n)
	for i := range steps {
		steps[i] = workflow.Step{
			ID:            fmt.Sprintf("%s-step-%d", projectID, i+1),
			ProjectID:     projectID,
			StepOrder:     i + 1,
			Title:         fmt.Sprintf("Step %d", i+1),
			SLATargetDays: 5,
		}
	}
	return steps
}

//Personal.AI order the ending
