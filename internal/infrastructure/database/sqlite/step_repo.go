package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/pkg/errors"
)

const stepColumns = `step_id, project_id, step_order, title, description, sla_target_days,
	is_done, start_date, completion_date, frozen_days_elapsed, updated_at`

// WorkflowRepository implements workflow.Repository with SQLite.
type WorkflowRepository struct {
	store *Store
}

// NewWorkflowRepository creates a workflow repository on store.
func NewWorkflowRepository(store *Store) *WorkflowRepository {
	return &WorkflowRepository{store: store}
}

var _ workflow.Repository = (*WorkflowRepository)(nil)

// CreateProject inserts the project and its steps in one transaction.
func (r *WorkflowRepository) CreateProject(ctx context.Context, p *workflow.Project, steps []workflow.Step) error {
	ts := r.store.timestamp()
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO workflow_projects (project_id, name, template_name, status, updated_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Name, p.TemplateName, string(p.Status), ts,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.CodeWorkflowExists, "workflow already exists").WithDetail("project_id=" + p.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create workflow project")
	}

	for i := range steps {
		s := &steps[i]
		s.ProjectID = p.ID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.ProjectID, s.StepOrder, s.Title, s.Description, s.SLATargetDays,
			s.IsDone, dateValue(s.StartDate), dateValue(s.CompletionDate), intValue(s.FrozenDaysElapsed), ts,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert workflow step").WithDetail("step_id=" + s.ID)
		}
		s.UpdatedAt = parseTimestamp(ts)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	p.UpdatedAt = parseTimestamp(ts)
	return nil
}

// GetProject retrieves a project header.
func (r *WorkflowRepository) GetProject(ctx context.Context, projectID string) (*workflow.Project, error) {
	var (
		p              workflow.Project
		status, update string
	)
	err := r.store.db.QueryRowContext(ctx,
		"SELECT project_id, name, template_name, status, updated_at FROM workflow_projects WHERE project_id = ?",
		projectID,
	).Scan(&p.ID, &p.Name, &p.TemplateName, &status, &update)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeProjectNotFound, "workflow project not found").WithDetail("project_id=" + projectID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get workflow project")
	}
	p.Status = workflow.ProjectStatus(status)
	p.UpdatedAt = parseTimestamp(update)
	return &p, nil
}

// SaveProjectStatus persists the rolled-up status.
func (r *WorkflowRepository) SaveProjectStatus(ctx context.Context, projectID string, status workflow.ProjectStatus) error {
	res, err := r.store.db.ExecContext(ctx,
		"UPDATE workflow_projects SET status = ?, updated_at = ? WHERE project_id = ?",
		string(status), r.store.timestamp(), projectID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save project status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.CodeProjectNotFound, "workflow project not found").WithDetail("project_id=" + projectID)
	}
	return nil
}

// ListSteps returns a project's steps in display order.
func (r *WorkflowRepository) ListSteps(ctx context.Context, projectID string) ([]workflow.Step, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE project_id = ? ORDER BY step_order, step_id`,
		projectID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list workflow steps")
	}
	defer rows.Close()

	var steps []workflow.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan workflow step")
		}
		steps = append(steps, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate workflow steps")
	}
	return steps, nil
}

// GetStep retrieves one step.
func (r *WorkflowRepository) GetStep(ctx context.Context, stepID string) (*workflow.Step, error) {
	return getStep(ctx, r.store.db, stepID)
}

// UpdateStep reads, mutates and writes a step inside one immediate
// transaction, so the done flag and frozen counter always change together.
func (r *WorkflowRepository) UpdateStep(ctx context.Context, stepID string, mutate workflow.StepMutation) (*workflow.Step, error) {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	s, err := getStep(ctx, tx, stepID)
	if err != nil {
		return nil, err
	}
	if err := mutate(s); err != nil {
		return nil, err
	}

	ts := r.store.timestamp()
	_, err = tx.ExecContext(ctx, `
		UPDATE workflow_steps SET
			title = ?, description = ?, sla_target_days = ?, is_done = ?,
			start_date = ?, completion_date = ?, frozen_days_elapsed = ?, updated_at = ?
		WHERE step_id = ?`,
		s.Title, s.Description, s.SLATargetDays, s.IsDone,
		dateValue(s.StartDate), dateValue(s.CompletionDate), intValue(s.FrozenDaysElapsed), ts, s.ID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update workflow step")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	s.UpdatedAt = parseTimestamp(ts)
	return s, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getStep(ctx context.Context, q rowQuerier, stepID string) (*workflow.Step, error) {
	s, err := scanStep(q.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE step_id = ?`, stepID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeStepNotFound, "workflow step not found").WithDetail("step_id=" + stepID)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get workflow step")
	}
	return s, nil
}

func scanStep(row interface{ Scan(...any) error }) (*workflow.Step, error) {
	var (
		s                 workflow.Step
		start, completion sql.NullString
		frozen            sql.NullInt64
		updated           string
	)
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.StepOrder, &s.Title, &s.Description, &s.SLATargetDays,
		&s.IsDone, &start, &completion, &frozen, &updated,
	)
	if err != nil {
		return nil, err
	}
	if s.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if s.CompletionDate, err = parseDate(completion); err != nil {
		return nil, err
	}
	if frozen.Valid {
		v := int(frozen.Int64)
		s.FrozenDaysElapsed = &v
	}
	s.UpdatedAt = parseTimestamp(updated)
	return &s, nil
}

func intValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

//Personal.AI order the ending
