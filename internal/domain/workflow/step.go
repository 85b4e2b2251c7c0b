// Package workflow tracks the checklist steps of a project and folds them into
// a project-level status.
//
// A step's elapsed-day counter runs live from its start date until the step is
// marked done, at which point the value is frozen against the completion date.
// Un-marking clears the frozen value and the counter resumes. Every freeze is
// recomputed from the step's current start/completion pair; nothing is cached
// across toggles.
package workflow

import (
	"strings"
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/pkg/errors"
)

// StepState is the derived lifecycle position of a step.
type StepState string

const (
	StateNotStarted StepState = "NotStarted"
	StateRunning    StepState = "Running"
	StateDone       StepState = "Done"
)

// Step is one checklist item of a project's workflow instance.
type Step struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	StepOrder         int        `json:"step_order"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	SLATargetDays     int        `json:"sla_target_days"`
	IsDone            bool       `json:"is_done"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	CompletionDate    *time.Time `json:"completion_date,omitempty"`
	FrozenDaysElapsed *int       `json:"frozen_days_elapsed,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// State returns the step's position in NotStarted → Running → Done.
func (s *Step) State() StepState {
	switch {
	case s.IsDone:
		return StateDone
	case s.StartDate != nil:
		return StateRunning
	default:
		return StateNotStarted
	}
}

// Validate checks the fields a user can edit.
func (s *Step) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.InvalidParam("step title is required").WithDetail("step_id=" + s.ID)
	}
	if s.SLATargetDays < 0 {
		return errors.InvalidParam("sla target days must not be negative").WithDetail("step_id=" + s.ID)
	}
	if s.StartDate != nil && s.CompletionDate != nil && sla.DaysBetween(*s.StartDate, *s.CompletionDate) < 0 {
		return sla.InvalidDateOrder("step_id", s.ID, "completionDate", "startDate")
	}
	return nil
}

// MarkDone moves the step to Done. An empty completion date becomes the
// calendar day of now, and the frozen counter is recomputed from the current
// start/completion pair, clamped at zero. A step that was never started
// freezes at zero.
func MarkDone(s *Step, now time.Time) {
	if s.CompletionDate == nil {
		today := sla.CalendarDate(now)
		s.CompletionDate = &today
	}
	s.IsDone = true
	s.FrozenDaysElapsed = freeze(s)
}

// MarkUndone moves the step back to Running (or NotStarted) and clears the
// frozen counter. The completion date is kept.
func MarkUndone(s *Step) {
	s.IsDone = false
	s.FrozenDaysElapsed = nil
}

// SetDone applies the done flag through MarkDone or MarkUndone.
func SetDone(s *Step, done bool, now time.Time) {
	if done {
		MarkDone(s, now)
		return
	}
	MarkUndone(s)
}

// SetDates replaces the start and completion dates. A done step is refrozen
// from the new pair; an empty completion date on a done step defaults to now.
func SetDates(s *Step, start, completion *time.Time, now time.Time) error {
	next := *s
	next.StartDate = calendarPtr(start)
	next.CompletionDate = calendarPtr(completion)
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	if s.IsDone {
		MarkDone(s, now)
	}
	return nil
}

// DaysElapsed returns the frozen value of a done step, the live count of a
// started step, or nil when the step has not started.
func DaysElapsed(s *Step, now time.Time) *int {
	if s.FrozenDaysElapsed != nil {
		v := *s.FrozenDaysElapsed
		return &v
	}
	if s.StartDate == nil {
		return nil
	}
	v := sla.DaysBetween(*s.StartDate, now)
	return &v
}

// IsOverdue reports whether an unfinished, started step has run past its target.
func IsOverdue(s *Step, now time.Time) bool {
	if s.IsDone {
		return false
	}
	elapsed := DaysElapsed(s, now)
	if elapsed == nil {
		return false
	}
	return *elapsed > s.SLATargetDays
}

// IsAtRisk reports whether an unfinished, started step has used at least the
// at-risk share of its target.
func IsAtRisk(s *Step, now time.Time) bool {
	if s.IsDone {
		return false
	}
	elapsed := DaysElapsed(s, now)
	if elapsed == nil {
		return false
	}
	return float64(*elapsed) >= sla.AtRiskRatio*float64(s.SLATargetDays)
}

func freeze(s *Step) *int {
	v := 0
	if s.StartDate != nil {
		v = max(0, sla.DaysBetween(*s.StartDate, *s.CompletionDate))
	}
	return &v
}

func calendarPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := sla.CalendarDate(*t)
	return &d
}

// StepView is a step with its derived state as of a given day.
type StepView struct {
	Step
	State       StepState `json:"state"`
	DaysElapsed *int      `json:"days_elapsed"`
	IsOverdue   bool      `json:"is_overdue"`
}

// Evaluate derives the view of s as of now.
func Evaluate(s Step, now time.Time) StepView {
	return StepView{
		Step:        s,
		State:       s.State(),
		DaysElapsed: DaysElapsed(&s, now),
		IsOverdue:   IsOverdue(&s, now),
	}
}

//Personal.AI order the ending
