package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/pkg/errors"
)

const caseColumns = `case_id, case_type, title, department, assigned_to, priority, overall_status, remarks,
	submitted_date, received_date, first_query_issued_date, first_query_response_date,
	second_query_issued_date, second_query_response_date, submitted_to_higher_date, signed_date, deadline,
	created_at, updated_at`

// CaseRepository implements casefile.Repository with SQLite.
type CaseRepository struct {
	store *Store
}

// NewCaseRepository creates a case repository on store.
func NewCaseRepository(store *Store) *CaseRepository {
	return &CaseRepository{store: store}
}

var _ casefile.Repository = (*CaseRepository)(nil)

// Create persists a new case.
func (r *CaseRepository) Create(ctx context.Context, c *casefile.Case) error {
	ts := r.store.timestamp()
	args := append(caseArgs(c), ts, ts)
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(err, errors.CodeCaseAlreadyExists, "case already exists").WithDetail("case_id=" + c.ID)
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create case")
	}
	c.CreatedAt = parseTimestamp(ts)
	c.UpdatedAt = c.CreatedAt
	return nil
}

// Update overwrites every mutable column of an existing case.
func (r *CaseRepository) Update(ctx context.Context, c *casefile.Case) error {
	ts := r.store.timestamp()
	args := caseArgs(c)
	args = append(args[1:], ts, c.ID)
	res, err := r.store.db.ExecContext(ctx, `
		UPDATE cases SET
			case_type = ?, title = ?, department = ?, assigned_to = ?, priority = ?,
			overall_status = ?, remarks = ?, submitted_date = ?, received_date = ?,
			first_query_issued_date = ?, first_query_response_date = ?,
			second_query_issued_date = ?, second_query_response_date = ?,
			submitted_to_higher_date = ?, signed_date = ?, deadline = ?, updated_at = ?
		WHERE case_id = ?`,
		args...,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update case")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.CodeCaseNotFound, "case not found").WithDetail("case_id=" + c.ID)
	}
	c.UpdatedAt = parseTimestamp(ts)
	return nil
}

// GetByID retrieves a case by its ID.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*casefile.Case, error) {
	c, err := scanCase(r.store.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CodeCaseNotFound, "case not found").WithDetail("case_id=" + id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get case")
	}
	return c, nil
}

// List retrieves cases matching filter, ordered by ID.
func (r *CaseRepository) List(ctx context.Context, filter casefile.Filter) ([]*casefile.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE 1=1`
	var args []any

	if len(filter.Statuses) > 0 {
		query += " AND overall_status IN (" + placeholders(len(filter.Statuses)) + ")"
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
	}
	if len(filter.Priorities) > 0 {
		query += " AND priority IN (" + placeholders(len(filter.Priorities)) + ")"
		for _, p := range filter.Priorities {
			args = append(args, string(p))
		}
	}
	if filter.CaseType != "" {
		query += " AND case_type = ?"
		args = append(args, filter.CaseType)
	}
	if filter.Department != "" {
		query += " AND department = ?"
		args = append(args, filter.Department)
	}
	query += " ORDER BY case_id"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
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

// LoadSnapshots returns the last saved derivation of every case.
func (r *CaseRepository) LoadSnapshots(ctx context.Context) (map[string]casefile.Snapshot, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT case_id, sla_status, days_in_process, computed_on FROM case_sla_snapshots`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load sla snapshots")
	}
	defer rows.Close()

	out := make(map[string]casefile.Snapshot)
	for rows.Next() {
		var (
			s              casefile.Snapshot
			status, onDate string
		)
		if err := rows.Scan(&s.CaseID, &status, &s.DaysInProcess, &onDate); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sla snapshot")
		}
		s.SLAStatus = sla.SLAStatus(status)
		if d, err := sla.ParseDate(onDate); err == nil {
			s.ComputedOn = d
		}
		out[s.CaseID] = s
	}
	return out, rows.Err()
}

// SaveSnapshots upserts snapshots in one transaction.
func (r *CaseRepository) SaveSnapshots(ctx context.Context, snapshots []casefile.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range snapshots {
		on := s.ComputedOn
		_, err := tx.ExecContext(ctx, `
			INSERT INTO case_sla_snapshots (case_id, sla_status, days_in_process, computed_on)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (case_id) DO UPDATE SET
				sla_status = excluded.sla_status,
				days_in_process = excluded.days_in_process,
				computed_on = excluded.computed_on`,
			s.CaseID, string(s.SLAStatus), s.DaysInProcess, sla.FormatDate(&on),
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save sla snapshot").WithDetail("case_id=" + s.CaseID)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

func caseArgs(c *casefile.Case) []any {
	return []any{
		c.ID, c.CaseType, c.Title, c.Department, c.AssignedTo, string(c.Priority), string(c.Status), c.Remarks,
		dateValue(c.SubmittedDate), dateValue(c.ReceivedDate),
		dateValue(c.FirstQueryIssuedDate), dateValue(c.FirstQueryResponseDate),
		dateValue(c.SecondQueryIssuedDate), dateValue(c.SecondQueryResponseDate),
		dateValue(c.SubmittedToHigherDate), dateValue(c.SignedDate), dateValue(c.Deadline),
	}
}

func scanCase(row interface{ Scan(...any) error }) (*casefile.Case, error) {
	var (
		c                casefile.Case
		priority, status string
		created, updated string
		dates            [9]sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.CaseType, &c.Title, &c.Department, &c.AssignedTo, &priority, &status, &c.Remarks,
		&dates[0], &dates[1], &dates[2], &dates[3], &dates[4], &dates[5], &dates[6], &dates[7], &dates[8],
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}
	c.Priority = sla.Priority(priority)
	c.Status = sla.Status(status)
	c.CreatedAt = parseTimestamp(created)
	c.UpdatedAt = parseTimestamp(updated)

	targets := []**time.Time{
		&c.SubmittedDate, &c.ReceivedDate, &c.FirstQueryIssuedDate, &c.FirstQueryResponseDate,
		&c.SecondQueryIssuedDate, &c.SecondQueryResponseDate, &c.SubmittedToHigherDate, &c.SignedDate, &c.Deadline,
	}
	for i, target := range targets {
		d, err := parseDate(dates[i])
		if err != nil {
			return nil, err
		}
		*target = d
	}
	return &c, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

//Personal.AI order the ending
