// CLI entry point for casetrack.
package main

import (
	"context"
	"os"

	"github.com/turtacn/casetrack/internal/app"
	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/infrastructure/database/sqlite"
	"github.com/turtacn/casetrack/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(openBackend); err != nil {
		os.Exit(1)
	}
}

// openBackend serves --local from SQLite and everything else from postgres
// plus whichever side channels the config enables.
func openBackend(ctx context.Context, env cli.Env) (*cli.Backend, error) {
	templates := casetracking.TemplatesFromConfig(env.Config.SLA.Templates)

	if env.LocalPath != "" {
		path := env.LocalPath
		if path == "default" {
			path = env.Config.Local.SQLitePath
		}
		store, err := sqlite.Open(path, env.Logger.Named("sqlite"))
		if err != nil {
			return nil, err
		}
		return &cli.Backend{
			Cases:     casetracking.NewCaseService(sqlite.NewCaseRepository(store), env.Clock, env.Logger),
			Workflows: casetracking.NewWorkflowService(sqlite.NewWorkflowRepository(store), env.Clock, templates, env.Logger),
			Close:     store.Close,
		}, nil
	}

	infra, err := app.Open(ctx, env.Config, "cli", env.Logger)
	if err != nil {
		return nil, err
	}
	services := infra.Services(env.Clock)
	return &cli.Backend{
		Cases:     services.Cases,
		Workflows: services.Workflows,
		Migrator:  app.NewMigrator(env.Config.Database),
		Close: func() error {
			infra.Close()
			return nil
		},
	}, nil
}

//Personal.AI order the ending
