package workflow

import (
	"sort"
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

// ProjectStatus is the project-level fold of its steps.
type ProjectStatus string

const (
	ProjectOnTrack   ProjectStatus = "on-track"
	ProjectAtRisk    ProjectStatus = "at-risk"
	ProjectDelayed   ProjectStatus = "delayed"
	ProjectCompleted ProjectStatus = "completed"
)

// ParseProjectStatus validates s.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch p := ProjectStatus(s); p {
	case ProjectOnTrack, ProjectAtRisk, ProjectDelayed, ProjectCompleted:
		return p, nil
	}
	return "", sla.UnknownEnumValue("project status", s)
}

// Rollup folds steps into a project status. Precedence is strict: completed,
// then delayed, then at-risk, then on-track. With no steps the prior status is
// returned unchanged.
func Rollup(steps []Step, prior ProjectStatus, now time.Time) ProjectStatus {
	if len(steps) == 0 {
		return prior
	}

	allDone := true
	for i := range steps {
		if !steps[i].IsDone {
			allDone = false
			break
		}
	}
	if allDone {
		return ProjectCompleted
	}

	for i := range steps {
		if IsOverdue(&steps[i], now) {
			return ProjectDelayed
		}
	}
	for i := range steps {
		if IsAtRisk(&steps[i], now) {
			return ProjectAtRisk
		}
	}
	return ProjectOnTrack
}

// StatusChange is emitted when a re-rollup moves a project to a new status.
type StatusChange struct {
	ProjectID string        `json:"project_id"`
	Previous  ProjectStatus `json:"previous"`
	Current   ProjectStatus `json:"current"`
	Done      int           `json:"done"`
	Total     int           `json:"total"`
	ChangedAt time.Time     `json:"changed_at"`
}

// DetectChange re-rolls steps and reports a StatusChange when the result
// differs from prior.
func DetectChange(projectID string, steps []Step, prior ProjectStatus, now time.Time) (ProjectStatus, *StatusChange) {
	next := Rollup(steps, prior, now)
	if next == prior {
		return next, nil
	}
	done, total := Progress(steps)
	return next, &StatusChange{
		ProjectID: projectID,
		Previous:  prior,
		Current:   next,
		Done:      done,
		Total:     total,
		ChangedAt: now,
	}
}

// SortSteps orders steps by StepOrder, then id.
func SortSteps(steps []Step) {
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].StepOrder != steps[j].StepOrder {
			return steps[i].StepOrder < steps[j].StepOrder
		}
		return steps[i].ID < steps[j].ID
	})
}

// Progress counts done steps.
func Progress(steps []Step) (done, total int) {
	for i := range steps {
		if steps[i].IsDone {
			done++
		}
	}
	return done, len(steps)
}

//Personal.AI order the ending
