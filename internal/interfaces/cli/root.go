package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/database/postgres"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats accepted by --output.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	NoColor      bool
	LocalPath    string
	Today        string
}

// Migrator runs schema migrations against the server store.
type Migrator interface {
	Up() error
	Down(steps int) error
	Force(version int) error
	Status() (postgres.MigrationState, error)
}

// Backend is the set of services commands run against. Migrator is nil for
// stores that manage their own schema.
type Backend struct {
	Cases     casetracking.CaseService
	Workflows casetracking.WorkflowService
	Migrator  Migrator
	Close     func() error
}

// Env is what a BackendFactory needs to open the stores.
type Env struct {
	Config    *config.Config
	Logger    logging.Logger
	Clock     sla.Clock
	LocalPath string
}

// BackendFactory opens the stores selected by env. An empty LocalPath selects
// the postgres store from Config.
type BackendFactory func(ctx context.Context, env Env) (*Backend, error)

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Env
	OutputFormat string
	NoColor      bool

	factory BackendFactory
	backend *Backend
}

// Backend opens the stores on first use so commands that never touch them
// (version, help) do not need a reachable database.
func (c *CLIContext) Backend(ctx context.Context) (*Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	if c.factory == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no backend configured")
	}
	b, err := c.factory(ctx, c.Env)
	if err != nil {
		return nil, err
	}
	c.backend = b
	return b, nil
}

func (c *CLIContext) close() error {
	if c.backend == nil || c.backend.Close == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

// NewRootCommand creates the root command with every subcommand registered.
func NewRootCommand(factory BackendFactory) *cobra.Command {
	opts := &RootOptions{}
	var cliCtx *CLIContext

	cmd := &cobra.Command{
		Use:   "casetrack",
		Short: "casetrack: case SLA and project workflow tracking",
		Long: "casetrack computes SLA status, query pendency and deadline buckets for\n" +
			"administrative cases and tracks per-project workflow steps against their\n" +
			"target days. Use --local to work against a single-user SQLite file.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCLIContext(cmd, opts, factory)
			if err != nil {
				return err
			}
			cliCtx = c
			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, c))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx == nil {
				return nil
			}
			return cliCtx.close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./casetrack.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputTable, "output format (text, json, table)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.StringVar(&opts.LocalPath, "local", "", "use the SQLite file at this path instead of postgres (\"default\" for local.sqlite_path)")
	pf.StringVar(&opts.Today, "today", "", "evaluate as of this date (YYYY-MM-DD) instead of the wall clock")

	cmd.AddCommand(
		newCasesCmd(),
		newWorkflowCmd(),
		newDashboardCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newCLIContext(cmd *cobra.Command, opts *RootOptions, factory BackendFactory) (*CLIContext, error) {
	switch opts.OutputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return nil, errors.InvalidParam("unsupported output format").
			WithDetail(fmt.Sprintf("--output %q, expected text|json|table", opts.OutputFormat))
	}
	if opts.NoColor {
		color.NoColor = true
	}

	cfg, err := initConfig(opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := initLogger(opts)
	if err != nil {
		return nil, fmt.Errorf("logger initialization failed: %w", err)
	}
	clock, err := initClock(cfg, opts)
	if err != nil {
		return nil, err
	}

	return &CLIContext{
		Env: Env{
			Config:    cfg,
			Logger:    logger,
			Clock:     clock,
			LocalPath: opts.LocalPath,
		},
		OutputFormat: opts.OutputFormat,
		NoColor:      opts.NoColor,
		factory:      factory,
	}, nil
}

// initConfig loads --config, else the first config file found on the search
// path, else defaults plus CASETRACK_* environment overrides.
func initConfig(opts *RootOptions, stderr io.Writer) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./casetrack.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".casetrack", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/casetrack/config.yaml")

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	if opts.LocalPath == "" {
		fmt.Fprintln(stderr, "Warning: no config file found, using defaults")
	}
	return config.LoadFromEnv()
}

// initLogger writes console-formatted logs to stderr so stdout stays parseable.
// log.level is meant for the servers; the CLI only follows --log-level.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	return logging.NewLogger(logging.LogConfig{
		Level:            strings.ToLower(opts.LogLevel),
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

func initClock(cfg *config.Config, opts *RootOptions) (sla.Clock, error) {
	if opts.Today != "" {
		d, err := sla.ParseDate(opts.Today)
		if err != nil {
			return nil, err
		}
		return sla.FixedClock{At: d}, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return sla.SystemClock{Location: loc}, nil
}

// GetCLIContext extracts the CLIContext set up by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	c, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || c == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLI context not initialized")
	}
	return c, nil
}

// backendFor resolves the CLI context and opens the backend in one step.
func backendFor(cmd *cobra.Command) (*CLIContext, *Backend, error) {
	c, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := c.Backend(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return c, b, nil
}

// Execute runs the command tree and prints a failing command's error.
func Execute(factory BackendFactory) error {
	rootCmd := NewRootCommand(factory)
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintError writes err to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a one-line confirmation to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "casetrack %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

//Personal.AI order the ending
