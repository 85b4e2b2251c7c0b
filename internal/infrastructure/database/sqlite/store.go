// Package sqlite is the single-user local store behind the CLI's --local mode.
// It mirrors the Postgres schema closely enough that the same domain
// repositories can run against a file on disk.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const timestampLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id                     TEXT PRIMARY KEY,
	case_type                   TEXT NOT NULL,
	title                       TEXT NOT NULL DEFAULT '',
	department                  TEXT NOT NULL DEFAULT '',
	assigned_to                 TEXT NOT NULL DEFAULT '',
	priority                    TEXT NOT NULL,
	overall_status              TEXT NOT NULL,
	remarks                     TEXT NOT NULL DEFAULT '',
	submitted_date              TEXT NOT NULL,
	received_date               TEXT NOT NULL,
	first_query_issued_date     TEXT,
	first_query_response_date   TEXT,
	second_query_issued_date    TEXT,
	second_query_response_date  TEXT,
	submitted_to_higher_date    TEXT,
	signed_date                 TEXT,
	deadline                    TEXT,
	created_at                  TEXT NOT NULL,
	updated_at                  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS case_sla_snapshots (
	case_id         TEXT PRIMARY KEY REFERENCES cases (case_id) ON DELETE CASCADE,
	sla_status      TEXT    NOT NULL,
	days_in_process INTEGER NOT NULL,
	computed_on     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_projects (
	project_id     TEXT PRIMARY KEY,
	name           TEXT NOT NULL DEFAULT '',
	template_name  TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'on-track',
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_steps (
	step_id              TEXT PRIMARY KEY,
	project_id           TEXT    NOT NULL REFERENCES workflow_projects (project_id) ON DELETE CASCADE,
	step_order           INTEGER NOT NULL,
	title                TEXT    NOT NULL,
	description          TEXT    NOT NULL DEFAULT '',
	sla_target_days      INTEGER NOT NULL CHECK (sla_target_days >= 0),
	is_done              INTEGER NOT NULL DEFAULT 0,
	start_date           TEXT,
	completion_date      TEXT,
	frozen_days_elapsed  INTEGER,
	updated_at           TEXT    NOT NULL,
	CHECK (frozen_days_elapsed IS NULL OR is_done = 1),
	CHECK (is_done = 0 OR frozen_days_elapsed IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_workflow_steps_project ON workflow_steps (project_id, step_order);
`

// Store owns the SQLite handle shared by the local repositories.
type Store struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
// Writes take the lock at BEGIN so read-modify-write transactions never
// interleave.
func Open(path string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	dsn := "file::memory:?_foreign_keys=on&_txlock=immediate"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create local store directory")
		}
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to open local store")
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer is all SQLite allows anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to initialize local schema")
	}

	log.Debug("local store opened", logging.String("path", path))
	return &Store{db: db, log: log, now: time.Now}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "local store unreachable")
	}
	return nil
}

// Close releases the handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func dateValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return sla.FormatDate(t)
}

func parseDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := sla.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

//Personal.AI order the ending
