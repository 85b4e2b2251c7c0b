package casetracking

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// WorkflowView is a project's checklist with derived step state and rollup.
type WorkflowView struct {
	Project workflow.Project    `json:"project"`
	Steps   []workflow.StepView `json:"steps"`
	Done    int                 `json:"done"`
	Total   int                 `json:"total"`
}

// InstantiateInput creates a project workflow from a named template or an
// inline one. Inline wins when both are given.
type InstantiateInput struct {
	ProjectID    string             `json:"project_id"`
	Name         string             `json:"name,omitempty"`
	TemplateName string             `json:"template_name,omitempty"`
	Template     *workflow.Template `json:"template,omitempty"`
}

// WorkflowService is the application contract for project workflows.
type WorkflowService interface {
	Get(ctx context.Context, projectID string) (*WorkflowView, error)
	Instantiate(ctx context.Context, in InstantiateInput) (*WorkflowView, error)
	SetStepDone(ctx context.Context, stepID string, done bool, completion *time.Time) (*workflow.StepView, error)
	UpdateStepDates(ctx context.Context, stepID string, start, completion *time.Time) (*workflow.StepView, error)
	Templates() []workflow.Template
}

type workflowServiceImpl struct {
	repo      workflow.Repository
	clock     sla.Clock
	templates map[string]workflow.Template
	ports     ports
	logger    logging.Logger
}

// NewWorkflowService builds a WorkflowService. templates are addressable by
// name from InstantiateInput.TemplateName.
func NewWorkflowService(repo workflow.Repository, clock sla.Clock, templates []workflow.Template, logger logging.Logger, opts ...Option) WorkflowService {
	byName := make(map[string]workflow.Template, len(templates))
	for _, t := range templates {
		byName[t.Name] = t
	}
	return &workflowServiceImpl{
		repo:      repo,
		clock:     clock,
		templates: byName,
		ports:     newPorts(opts),
		logger:    logger.Named("workflow_service"),
	}
}

// TemplatesFromConfig converts configured templates to domain templates.
func TemplatesFromConfig(cfgs []config.TemplateConfig) []workflow.Template {
	out := make([]workflow.Template, 0, len(cfgs))
	for _, tc := range cfgs {
		t := workflow.Template{Name: tc.Name, Steps: make([]workflow.TemplateStep, len(tc.Steps))}
		for i, sc := range tc.Steps {
			t.Steps[i] = workflow.TemplateStep{
				Title:         sc.Title,
				Description:   sc.Description,
				SLATargetDays: sc.SLATargetDays,
			}
		}
		out = append(out, t)
	}
	return out
}

func (s *workflowServiceImpl) Templates() []workflow.Template {
	out := make([]workflow.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *workflowServiceImpl) Get(ctx context.Context, projectID string) (*WorkflowView, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.InvalidParam("project id is required")
	}
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.ListSteps(ctx, projectID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	project.Status = s.refreshStatus(ctx, project, steps, now)
	return buildView(*project, steps, now), nil
}

func (s *workflowServiceImpl) Instantiate(ctx context.Context, in InstantiateInput) (*WorkflowView, error) {
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, errors.InvalidParam("project id is required")
	}
	tmpl, err := s.resolveTemplate(in)
	if err != nil {
		return nil, err
	}
	steps, err := tmpl.Instantiate(projectID, common.NewID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	project := &workflow.Project{
		ID:           projectID,
		Name:         strings.TrimSpace(in.Name),
		TemplateName: tmpl.Name,
		Status:       workflow.Rollup(steps, "", now),
		UpdatedAt:    now,
	}
	if err := s.repo.CreateProject(ctx, project, steps); err != nil {
		return nil, err
	}
	s.logger.Info("Workflow instantiated",
		logging.String("project_id", projectID),
		logging.String("template", tmpl.Name),
		logging.Int("steps", len(steps)))
	return buildView(*project, steps, now), nil
}

func (s *workflowServiceImpl) resolveTemplate(in InstantiateInput) (workflow.Template, error) {
	if in.Template != nil {
		return *in.Template, nil
	}
	name := strings.TrimSpace(in.TemplateName)
	if name == "" {
		return workflow.Template{}, errors.New(errors.CodeTemplateInvalid, "template or template_name is required")
	}
	t, ok := s.templates[name]
	if !ok {
		return workflow.Template{}, errors.New(errors.CodeTemplateInvalid, "unknown template").WithDetail("template=" + name)
	}
	return t, nil
}

// SetStepDone marks or un-marks a step in one atomic store update, so the
// done flag and the frozen counter always change together.
func (s *workflowServiceImpl) SetStepDone(ctx context.Context, stepID string, done bool, completion *time.Time) (*workflow.StepView, error) {
	now := s.clock.Now()
	step, err := s.updateStep(ctx, stepID, func(st *workflow.Step) error {
		if done && completion != nil {
			next := *st
			next.CompletionDate = calendarPtr(completion)
			if err := next.Validate(); err != nil {
				return err
			}
			*st = next
		}
		workflow.SetDone(st, done, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ports.metrics.ObserveStepToggle(done)
	s.logger.Info("Step toggled", logging.StepID(step.ID), logging.Bool("done", done))
	return s.afterStepChange(ctx, step, now), nil
}

// UpdateStepDates replaces a step's dates. A done step is refrozen from the
// new pair inside the same update.
func (s *workflowServiceImpl) UpdateStepDates(ctx context.Context, stepID string, start, completion *time.Time) (*workflow.StepView, error) {
	now := s.clock.Now()
	step, err := s.updateStep(ctx, stepID, func(st *workflow.Step) error {
		return workflow.SetDates(st, start, completion, now)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Step dates updated", logging.StepID(step.ID))
	return s.afterStepChange(ctx, step, now), nil
}

func (s *workflowServiceImpl) updateStep(ctx context.Context, stepID string, mutate workflow.StepMutation) (*workflow.Step, error) {
	stepID = strings.TrimSpace(stepID)
	if stepID == "" {
		return nil, errors.InvalidParam("step id is required")
	}
	return s.repo.UpdateStep(ctx, stepID, func(st *workflow.Step) error {
		if err := mutate(st); err != nil {
			return err
		}
		st.UpdatedAt = s.clock.Now()
		return nil
	})
}

// afterStepChange refreshes the project rollup. Failures there are logged:
// the step update itself has already been committed.
func (s *workflowServiceImpl) afterStepChange(ctx context.Context, step *workflow.Step, now time.Time) *workflow.StepView {
	view := workflow.Evaluate(*step, now)
	project, err := s.repo.GetProject(ctx, step.ProjectID)
	if err != nil {
		s.logger.Warn("Failed to load project for rollup", logging.String("project_id", step.ProjectID), logging.Err(err))
		return &view
	}
	steps, err := s.repo.ListSteps(ctx, step.ProjectID)
	if err != nil {
		s.logger.Warn("Failed to list steps for rollup", logging.String("project_id", step.ProjectID), logging.Err(err))
		return &view
	}
	s.refreshStatus(ctx, project, steps, now)
	return &view
}

// refreshStatus recomputes the rollup and, when it moved, persists it and
// publishes the change. It returns the current status.
func (s *workflowServiceImpl) refreshStatus(ctx context.Context, project *workflow.Project, steps []workflow.Step, now time.Time) workflow.ProjectStatus {
	status, change := workflow.DetectChange(project.ID, steps, project.Status, now)
	if change == nil {
		return status
	}
	if err := s.repo.SaveProjectStatus(ctx, project.ID, status); err != nil {
		s.logger.Warn("Failed to save project status", logging.String("project_id", project.ID), logging.Err(err))
		return status
	}
	s.ports.metrics.ObserveProjectStatus(string(status))
	s.logger.Info("Project status changed",
		logging.String("project_id", project.ID),
		logging.String("from", string(change.Previous)),
		logging.String("to", string(change.Current)))
	if s.ports.publisher != nil {
		if err := s.ports.publisher.PublishWorkflowChange(ctx, *change); err != nil {
			s.logger.Warn("Failed to publish workflow change", logging.String("project_id", project.ID), logging.Err(err))
		}
	}
	return status
}

func buildView(project workflow.Project, steps []workflow.Step, now time.Time) *WorkflowView {
	sorted := append([]workflow.Step(nil), steps...)
	workflow.SortSteps(sorted)
	done, total := workflow.Progress(sorted)
	views := make([]workflow.StepView, len(sorted))
	for i, st := range sorted {
		views[i] = workflow.Evaluate(st, now)
	}
	return &WorkflowView{Project: project, Steps: views, Done: done, Total: total}
}

//Personal.AI order the ending
