package workflow

import (
	"fmt"
	"strings"

	"github.com/turtacn/casetrack/pkg/errors"
)

// TemplateStep is one entry of a workflow template.
type TemplateStep struct {
	Title         string `json:"title" yaml:"title" mapstructure:"title"`
	Description   string `json:"description,omitempty" yaml:"description" mapstructure:"description"`
	SLATargetDays int    `json:"sla_target_days" yaml:"sla_target_days" mapstructure:"sla_target_days"`
}

// Template is an ordered list of steps used to instantiate a project workflow.
type Template struct {
	Name  string         `json:"name" yaml:"name" mapstructure:"name"`
	Steps []TemplateStep `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Validate requires at least one step, each with a title and a non-negative target.
func (t Template) Validate() error {
	if len(t.Steps) == 0 {
		return errors.New(errors.CodeTemplateInvalid, "template has no steps").WithDetail("template=" + t.Name)
	}
	for i, s := range t.Steps {
		if strings.TrimSpace(s.Title) == "" {
			return errors.New(errors.CodeTemplateInvalid, fmt.Sprintf("step %d has no title", i+1)).
				WithDetail("template=" + t.Name)
		}
		if s.SLATargetDays < 0 {
			return errors.New(errors.CodeTemplateInvalid, fmt.Sprintf("step %d has a negative sla target", i+1)).
				WithDetail("template=" + t.Name)
		}
	}
	return nil
}

// Instantiate creates one NotStarted step per template entry, numbered from 1.
// newID supplies step identifiers.
func (t Template) Instantiate(projectID string, newID func() string) ([]Step, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	steps := make([]Step, len(t.Steps))
	for i, ts := range t.Steps {
		steps[i] = Step{
			ID:            newID(),
			ProjectID:     projectID,
			StepOrder:     i + 1,
			Title:         strings.TrimSpace(ts.Title),
			Description:   ts.Description,
			SLATargetDays: ts.SLATargetDays,
		}
	}
	return steps, nil
}

//Personal.AI order the ending
