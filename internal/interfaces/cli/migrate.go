package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/casetrack/pkg/errors"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect postgres schema migrations",
		Long: `Manage the postgres schema with golang-migrate. The SQLite store used by
--local creates its schema on open and has nothing to migrate.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Up(); err != nil {
				return err
			}
			PrintSuccess(cmd, "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			st, err := m.Status()
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			dirty := ""
			if st.Dirty {
				dirty = " (dirty)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d%s\n", st.Version, dirty)
			return nil
		},
	}

	force := &cobra.Command{
		Use:   "force <version>",
		Short: "Mark the schema as <version> without running migrations",
		Long:  "Clears the dirty flag left by a failed migration. Run the fix by hand first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return errors.InvalidParam("version must be a non-negative integer").WithDetail(args[0])
			}
			m, err := migratorFor(cmd)
			if err != nil {
				return err
			}
			if err := m.Force(version); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("schema forced to version %d", version))
			return nil
		},
	}

	cmd.AddCommand(up, down, status, force)
	return cmd
}

func migratorFor(cmd *cobra.Command) (Migrator, error) {
	_, b, err := backendFor(cmd)
	if err != nil {
		return nil, err
	}
	if b.Migrator == nil {
		return nil, errors.InvalidParam("migrations apply to the postgres store only").
			WithDetail("the --local SQLite store creates its schema on open")
	}
	return b.Migrator, nil
}

//Personal.AI order the ending
