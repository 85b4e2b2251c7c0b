package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/sla"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Counts per SLA status, priority and deadline bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			d, err := b.Cases.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), d)
			}
			return printDashboard(cmd.OutOrStdout(), d)
		},
	}
}

func printDashboard(w io.Writer, d *casetracking.Dashboard) error {
	s := d.Summary
	fmt.Fprintf(w, "Dashboard for %s: %d case(s), %d active, %d terminal", d.Date, s.Total, s.Active, s.Terminal)
	if s.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", s.Failed)
	}
	fmt.Fprintln(w)
	if s.QueriesPending > 0 {
		fmt.Fprintf(w, "Open queries: %d\n", s.QueriesPending)
	}

	rows := make([][]string, 0, len(s.BySLAStatus))
	for _, st := range sla.SLAStatuses() {
		rows = append(rows, []string{slaBadge(st), strconv.Itoa(s.BySLAStatus[st])})
	}
	if err := renderTable(w, []string{"SLA Status", "Cases"}, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, p := range sla.Priorities() {
		rows = append(rows, []string{string(p), strconv.Itoa(s.ByPriority[p])})
	}
	if err := renderTable(w, []string{"Priority", "Active"}, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, b := range sla.DeadlineBuckets() {
		rows = append(rows, []string{string(b), strconv.Itoa(s.Deadlines.Get(b))})
	}
	return renderTable(w, []string{"Deadline", "Active"}, rows)
}

//Personal.AI order the ending
