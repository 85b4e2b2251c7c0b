package repositories

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

const stepColumns = `step_id, project_id, step_order, title, description, sla_target_days,
	is_done, start_date, completion_date, frozen_days_elapsed, updated_at`

// WorkflowRepository is the pgx implementation of workflow.Repository.
type WorkflowRepository struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewWorkflowRepository constructs a WorkflowRepository on an open pool.
func NewWorkflowRepository(pool *pgxpool.Pool, log logging.Logger) *WorkflowRepository {
	return &WorkflowRepository{pool: pool, log: log}
}

var _ workflow.Repository = (*WorkflowRepository)(nil)

// CreateProject inserts the project header and its steps in one transaction.
// Steps go through the COPY protocol.
func (r *WorkflowRepository) CreateProject(ctx context.Context, p *workflow.Project, steps []workflow.Step) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO workflow_projects (project_id, name, template_name, status, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING updated_at`,
		p.ID, p.Name, p.TemplateName, string(p.Status),
	).Scan(&p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return errors.Wrap(err, errors.CodeWorkflowExists, "workflow already exists").WithDetail("project_id=" + p.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create workflow project")
	}

	if len(steps) > 0 {
		rows := make([][]interface{}, 0, len(steps))
		for i := range steps {
			s := &steps[i]
			rows = append(rows, []interface{}{
				s.ID, p.ID, s.StepOrder, s.Title, s.Description, s.SLATargetDays,
				s.IsDone, nullDate(s.StartDate), nullDate(s.CompletionDate), nullInt(s.FrozenDaysElapsed), p.UpdatedAt,
			})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"workflow_steps"},
			[]string{"step_id", "project_id", "step_order", "title", "description", "sla_target_days",
				"is_done", "start_date", "completion_date", "frozen_days_elapsed", "updated_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert workflow steps")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	r.log.Info("workflow created", logging.String("project_id", p.ID), logging.Int("steps", len(steps)))
	return nil
}

func (r *WorkflowRepository) GetProject(ctx context.Context, projectID string) (*workflow.Project, error) {
	var p workflow.Project
	var status string
	err := r.pool.QueryRow(ctx,
		`SELECT project_id, name, template_name, status, updated_at FROM workflow_projects WHERE project_id = $1`,
		projectID,
	).Scan(&p.ID, &p.Name, &p.TemplateName, &status, &p.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, projectNotFound(projectID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get workflow project")
	}
	p.Status = workflow.ProjectStatus(status)
	return &p, nil
}

func (r *WorkflowRepository) SaveProjectStatus(ctx context.Context, projectID string, status workflow.ProjectStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE workflow_projects SET status = $2, updated_at = NOW() WHERE project_id = $1`,
		projectID, string(status),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save project status")
	}
	if tag.RowsAffected() == 0 {
		return projectNotFound(projectID)
	}
	return nil
}

func (r *WorkflowRepository) ListSteps(ctx context.Context, projectID string) ([]workflow.Step, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE project_id = $1 ORDER BY step_order, step_id`,
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

func (r *WorkflowRepository) GetStep(ctx context.Context, stepID string) (*workflow.Step, error) {
	s, err := scanStep(r.pool.QueryRow(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE step_id = $1`, stepID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, stepNotFound(stepID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get workflow step")
	}
	return s, nil
}

// UpdateStep locks the row, applies mutate and writes the whole step back
// before committing. A mutate error rolls the transaction back untouched.
func (r *WorkflowRepository) UpdateStep(ctx context.Context, stepID string, mutate workflow.StepMutation) (*workflow.Step, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := scanStep(tx.QueryRow(ctx, `SELECT `+stepColumns+` FROM workflow_steps WHERE step_id = $1 FOR UPDATE`, stepID))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, stepNotFound(stepID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to lock workflow step")
	}

	if err := mutate(s); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE workflow_steps SET
			title = $2, description = $3, sla_target_days = $4, is_done = $5,
			start_date = $6, completion_date = $7, frozen_days_elapsed = $8, updated_at = NOW()
		WHERE step_id = $1
		RETURNING updated_at`,
		s.ID, s.Title, s.Description, s.SLATargetDays, s.IsDone,
		nullDate(s.StartDate), nullDate(s.CompletionDate), nullInt(s.FrozenDaysElapsed),
	).Scan(&s.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update workflow step")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return s, nil
}

func scanStep(row pgx.Row) (*workflow.Step, error) {
	var (
		s                 workflow.Step
		start, completion *time.Time
		frozen            *int32
	)
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.StepOrder, &s.Title, &s.Description, &s.SLATargetDays,
		&s.IsDone, &start, &completion, &frozen, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.StartDate = calendar(start)
	s.CompletionDate = calendar(completion)
	if frozen != nil {
		v := int(*frozen)
		s.FrozenDaysElapsed = &v
	}
	return &s, nil
}

func calendar(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := sla.CalendarDate(*t)
	return &d
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stepNotFound(id string) error {
	return errors.New(errors.CodeStepNotFound, "workflow step not found").WithDetail("step_id=" + id)
}

func projectNotFound(id string) error {
	return errors.New(errors.CodeProjectNotFound, "workflow project not found").WithDetail("project_id=" + id)
}

//Personal.AI order the ending
