package workflow

import (
	"context"
	"time"
)

// Project is the persisted workflow header of a project.
type Project struct {
	ID           string        `json:"project_id"`
	Name         string        `json:"name"`
	TemplateName string        `json:"template_name"`
	Status       ProjectStatus `json:"status"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// StepMutation edits a step in place. Returning an error aborts the update.
type StepMutation func(s *Step) error

// Repository is the workflow store.
//
// UpdateStep must read the step, apply mutate and write every column back in a
// single atomic unit, so no reader ever sees is_done without the matching
// frozen_days_elapsed.
type Repository interface {
	CreateProject(ctx context.Context, p *Project, steps []Step) error
	GetProject(ctx context.Context, projectID string) (*Project, error)
	SaveProjectStatus(ctx context.Context, projectID string, status ProjectStatus) error
	ListSteps(ctx context.Context, projectID string) ([]Step, error)
	GetStep(ctx context.Context, stepID string) (*Step, error)
	UpdateStep(ctx context.Context, stepID string, mutate StepMutation) (*Step, error)
}

//Personal.AI order the ending
