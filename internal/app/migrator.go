package app

import (
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/database/postgres"
)

// Migrator runs golang-migrate against the configured postgres database.
type Migrator struct {
	url string
	dir string
}

func NewMigrator(cfg config.DatabaseConfig) *Migrator {
	return &Migrator{url: postgres.FromConfig(cfg).DSN(), dir: cfg.MigrationPath}
}

func (m *Migrator) Up() error { return postgres.MigrateUp(m.url, m.dir) }

func (m *Migrator) Down(steps int) error { return postgres.MigrateDown(m.url, m.dir, steps) }

func (m *Migrator) Force(version int) error {
	return postgres.ForceMigrationVersion(m.url, m.dir, version)
}

func (m *Migrator) Status() (postgres.MigrationState, error) {
	return postgres.MigrationStatus(m.url, m.dir)
}

//Personal.AI order the ending
