package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

const caseColumns = `case_id, case_type, title, department, assigned_to, priority, overall_status, remarks,
	submitted_date, received_date, first_query_issued_date, first_query_response_date,
	second_query_issued_date, second_query_response_date, submitted_to_higher_date, signed_date, deadline,
	created_at, updated_at`

const pgUniqueViolation = "23505"

type postgresCaseRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor queryExecutor
}

// NewPostgresCaseRepo returns a case store backed by database/sql and lib/pq.
func NewPostgresCaseRepo(conn *postgres.Connection, log logging.Logger) casefile.Repository {
	return &postgresCaseRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
	}
}

func (r *postgresCaseRepo) Create(ctx context.Context, c *casefile.Case) error {
	query := `
		INSERT INTO cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.executor.QueryRowContext(ctx, query, caseArgs(c)...).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return errors.Wrap(err, errors.CodeCaseAlreadyExists, "case already exists").WithDetail("case_id=" + c.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create case")
	}
	return nil
}

func (r *postgresCaseRepo) Update(ctx context.Context, c *casefile.Case) error {
	query := `
		UPDATE cases SET
			case_type = $2, title = $3, department = $4, assigned_to = $5, priority = $6,
			overall_status = $7, remarks = $8, submitted_date = $9, received_date = $10,
			first_query_issued_date = $11, first_query_response_date = $12,
			second_query_issued_date = $13, second_query_response_date = $14,
			submitted_to_higher_date = $15, signed_date = $16, deadline = $17, updated_at = NOW()
		WHERE case_id = $1
		RETURNING updated_at
	`
	err := r.executor.QueryRowContext(ctx, query, caseArgs(c)...).Scan(&c.UpdatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return caseNotFound(c.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update case")
	}
	return nil
}

func (r *postgresCaseRepo) GetByID(ctx context.Context, id string) (*casefile.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE case_id = $1`
	c, err := scanCase(r.executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, caseNotFound(id)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get case")
	}
	return c, nil
}

func (r *postgresCaseRepo) List(ctx context.Context, filter casefile.Filter) ([]*casefile.Case, error) {
	where, args := buildCaseFilter(filter)
	query := `SELECT ` + caseColumns + ` FROM cases` + where + ` ORDER BY case_id`

	rows, err := r.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list cases")
	}
	defer rows.Close()

	var cases []*casefile.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan case")
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate cases")
	}
	return cases, nil
}

func (r *postgresCaseRepo) LoadSnapshots(ctx context.Context) (map[string]casefile.Snapshot, error) {
	query := `SELECT case_id, sla_status, days_in_process, computed_on FROM case_sla_snapshots`
	rows, err := r.executor.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load sla snapshots")
	}
	defer rows.Close()

	out := make(map[string]casefile.Snapshot)
	for rows.Next() {
		var s casefile.Snapshot
		var status string
		if err := rows.Scan(&s.CaseID, &status, &s.DaysInProcess, &s.ComputedOn); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sla snapshot")
		}
		s.SLAStatus = sla.SLAStatus(status)
		s.ComputedOn = sla.CalendarDate(s.ComputedOn)
		out[s.CaseID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate sla snapshots")
	}
	return out, nil
}

// SaveSnapshots upserts all snapshots in one transaction.
func (r *postgresCaseRepo) SaveSnapshots(ctx context.Context, snapshots []casefile.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}

	query := `
		INSERT INTO case_sla_snapshots (case_id, sla_status, days_in_process, computed_on)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (case_id) DO UPDATE SET
			sla_status = EXCLUDED.sla_status,
			days_in_process = EXCLUDED.days_in_process,
			computed_on = EXCLUDED.computed_on
	`
	for _, s := range snapshots {
		if _, err := tx.ExecContext(ctx, query, s.CaseID, string(s.SLAStatus), s.DaysInProcess, sla.CalendarDate(s.ComputedOn)); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save sla snapshot").WithDetail("case_id=" + s.CaseID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	r.log.Debug("sla snapshots saved", logging.Int("count", len(snapshots)))
	return nil
}

func caseNotFound(id string) error {
	return errors.New(errors.CodeCaseNotFound, "case not found").WithDetail("case_id=" + id)
}

func caseArgs(c *casefile.Case) []interface{} {
	return []interface{}{
		c.ID, c.CaseType, c.Title, c.Department, c.AssignedTo, string(c.Priority), string(c.Status), c.Remarks,
		nullDate(c.SubmittedDate), nullDate(c.ReceivedDate),
		nullDate(c.FirstQueryIssuedDate), nullDate(c.FirstQueryResponseDate),
		nullDate(c.SecondQueryIssuedDate), nullDate(c.SecondQueryResponseDate),
		nullDate(c.SubmittedToHigherDate), nullDate(c.SignedDate), nullDate(c.Deadline),
	}
}

func buildCaseFilter(f casefile.Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("overall_status = ANY($%d)", pq.Array(statuses))
	}
	if len(f.Priorities) > 0 {
		priorities := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			priorities[i] = string(p)
		}
		add("priority = ANY($%d)", pq.Array(priorities))
	}
	if f.CaseType != "" {
		add("case_type = $%d", f.CaseType)
	}
	if f.Department != "" {
		add("department = $%d", f.Department)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanCase(row scanner) (*casefile.Case, error) {
	var (
		c                casefile.Case
		priority, status string
		dates            [9]sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.CaseType, &c.Title, &c.Department, &c.AssignedTo, &priority, &status, &c.Remarks,
		&dates[0], &dates[1], &dates[2], &dates[3], &dates[4], &dates[5], &dates[6], &dates[7], &dates[8],
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Priority = sla.Priority(priority)
	c.Status = sla.Status(status)
	c.SubmittedDate = datePtr(dates[0])
	c.ReceivedDate = datePtr(dates[1])
	c.FirstQueryIssuedDate = datePtr(dates[2])
	c.FirstQueryResponseDate = datePtr(dates[3])
	c.SecondQueryIssuedDate = datePtr(dates[4])
	c.SecondQueryResponseDate = datePtr(dates[5])
	c.SubmittedToHigherDate = datePtr(dates[6])
	c.SignedDate = datePtr(dates[7])
	c.Deadline = datePtr(dates[8])
	return &c, nil
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return sla.CalendarDate(*t)
}

func datePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	d := sla.CalendarDate(nt.Time)
	return &d
}

//Personal.AI order the ending
