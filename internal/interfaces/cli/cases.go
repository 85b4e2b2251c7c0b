package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/types/common"
)

func newCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List, inspect and maintain cases",
		Long: `Work with the case table. Derived fields (days in process, SLA status,
query pendency, deadline bucket) are computed as of --today or the wall clock.`,
	}
	cmd.AddCommand(
		newCasesListCmd(),
		newCasesShowCmd(),
		newCasesComputeCmd(),
		newCasesAddCmd(),
		newCasesSetStatusCmd(),
	)
	return cmd
}

func newCasesListCmd() *cobra.Command {
	var in casetracking.ListInput
	var desc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases with their derived SLA fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			if desc {
				in.SortOrder = "desc"
			}
			page, err := b.Cases.List(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.Logger.Debug("Listed cases", logging.Int("total", page.Total), logging.Int("page", page.Page))
			return printCasePage(cmd.OutOrStdout(), c.OutputFormat, page)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&in.Statuses, "status", nil, "filter by overall status (repeatable or comma-separated)")
	f.StringSliceVar(&in.Priorities, "priority", nil, "filter by priority: Low, Medium, High, Urgent")
	f.StringSliceVar(&in.SLAStatuses, "sla-status", nil, "filter by SLA status: Overdue, Critical, AtRisk, WithinSLA, Completed, CompletedOverdue")
	f.StringSliceVar(&in.DeadlineBuckets, "deadline", nil, "filter by deadline bucket: overdue, thisWeek, upcoming, noDeadline")
	f.BoolVar(&in.InProcessOnly, "in-process", false, "only cases in an active status")
	f.StringVar(&in.CaseType, "case-type", "", "filter by case type")
	f.StringVar(&in.Department, "department", "", "filter by department")
	f.StringVar(&in.SortBy, "sort-by", "sla", "sort key: sla, priority, days, deadline, case_id")
	f.BoolVar(&desc, "desc", false, "reverse the sort order")
	f.IntVar(&in.Page, "page", 1, "page number")
	f.IntVar(&in.PageSize, "page-size", common.MaxPageSize, "rows per page")
	return cmd
}

func printCasePage(w io.Writer, format string, page *common.PageResponse[casetracking.CaseView]) error {
	switch format {
	case OutputJSON:
		return printJSON(w, page)
	case OutputText:
		for _, v := range page.Items {
			fmt.Fprintln(w, caseLine(v))
		}
	default:
		rows := make([][]string, 0, len(page.Items))
		for _, v := range page.Items {
			rows = append(rows, caseRow(v))
		}
		if err := renderTable(w, []string{"Case ID", "Type", "Priority", "Status", "Days", "SLA", "Q1", "Q2", "Deadline"}, rows); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "Page %d/%d, %d case(s)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

func caseRow(v casetracking.CaseView) []string {
	c := v.Case
	row := []string{c.ID, c.CaseType, string(c.Priority), string(c.Status)}
	if v.Derived == nil {
		msg := "error"
		if v.Error != nil {
			msg = v.Error.Code
		}
		return append(row, "-", msg, "-", "-", fmtDate(c.Deadline))
	}
	d := v.Derived
	return append(row,
		strconv.Itoa(d.DaysInProcess),
		slaBadge(d.SLAStatus),
		fmtCount(d.FirstQueryPendingDays),
		fmtCount(d.SecondQueryPendingDays),
		fmtDate(c.Deadline),
	)
}

func caseLine(v casetracking.CaseView) string {
	if v.Derived == nil {
		code := ""
		if v.Error != nil {
			code = v.Error.Code
		}
		return fmt.Sprintf("%s\t%s\t%s\tERROR %s", v.Case.ID, v.Case.Priority, v.Case.Status, code)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%dd\t%s", v.Case.ID, v.Case.Priority, v.Case.Status, v.Derived.DaysInProcess, slaBadge(v.Derived.SLAStatus))
}

func newCasesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show one case with every derived field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			v, err := b.Cases.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printCaseDetail(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func printCaseDetail(w io.Writer, v *casetracking.CaseView) {
	c := v.Case
	fmt.Fprintf(w, "Case %s (%s)\n", c.ID, c.CaseType)
	if c.Title != "" {
		fmt.Fprintf(w, "  Title:        %s\n", c.Title)
	}
	fmt.Fprintf(w, "  Priority:     %s\n", c.Priority)
	fmt.Fprintf(w, "  Status:       %s\n", c.Status)
	if c.Department != "" {
		fmt.Fprintf(w, "  Department:   %s\n", c.Department)
	}
	if c.AssignedTo != "" {
		fmt.Fprintf(w, "  Assigned to:  %s\n", c.AssignedTo)
	}
	fmt.Fprintf(w, "  Submitted:    %s\n", fmtDate(c.SubmittedDate))
	fmt.Fprintf(w, "  Received:     %s\n", fmtDate(c.ReceivedDate))
	fmt.Fprintf(w, "  Query 1:      %s -> %s\n", fmtDate(c.FirstQueryIssuedDate), fmtDate(c.FirstQueryResponseDate))
	fmt.Fprintf(w, "  Query 2:      %s -> %s\n", fmtDate(c.SecondQueryIssuedDate), fmtDate(c.SecondQueryResponseDate))
	fmt.Fprintf(w, "  To higher:    %s\n", fmtDate(c.SubmittedToHigherDate))
	fmt.Fprintf(w, "  Signed:       %s\n", fmtDate(c.SignedDate))
	fmt.Fprintf(w, "  Deadline:     %s\n", fmtDate(c.Deadline))

	if v.Derived == nil {
		if v.Error != nil {
			fmt.Fprintf(w, "  Derivation failed: [%s] %s %s\n", v.Error.Code, v.Error.Message, v.Error.Detail)
		}
		return
	}
	d := v.Derived
	fmt.Fprintf(w, "  SLA:          %s (%d of %d days)\n", slaBadge(d.SLAStatus), d.DaysInProcess, d.OverallSLADays)
	fmt.Fprintf(w, "  Q1 pending:   %d\n", d.FirstQueryPendingDays)
	fmt.Fprintf(w, "  Q2 pending:   %d\n", d.SecondQueryPendingDays)
	fmt.Fprintf(w, "  Recv->higher: %s\n", fmtDays(d.DaysReceivedToSubmittedToHigher))
	fmt.Fprintf(w, "  Deadline in:  %s\n", d.DeadlineBucket)
	fmt.Fprintf(w, "  Computed on:  %s\n", d.ComputedOn.Format(sla.DateLayout))
}

func newCasesComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute",
		Short: "Recompute every case, publish escalations and refresh snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			report, err := b.Cases.Recompute(cmd.Context(), casetracking.TriggerManual)
			if report != nil {
				if c.OutputFormat == OutputJSON {
					if perr := printJSON(cmd.OutOrStdout(), report); perr != nil {
						return perr
					}
				} else if perr := printRecomputeReport(cmd.OutOrStdout(), report); perr != nil {
					return perr
				}
			}
			return err
		},
	}
}

func printRecomputeReport(w io.Writer, r *casetracking.RecomputeReport) error {
	fmt.Fprintf(w, "Computed %d case(s) as of %s: %d failed, %d escalated\n",
		r.Processed, r.ComputedOn.Format(sla.DateLayout), r.Failed, r.Escalated)
	if r.Indexed > 0 || r.IndexFailed > 0 {
		fmt.Fprintf(w, "Indexed %d, index failures %d\n", r.Indexed, r.IndexFailed)
	}
	if len(r.Errors) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		rows = append(rows, []string{e.CaseID, e.Code, e.Message})
	}
	return renderTable(w, []string{"Case ID", "Code", "Message"}, rows)
}

func newCasesAddCmd() *cobra.Command {
	var (
		in                            casetracking.CreateInput
		submitted, received, deadline string
	)

	cmd := &cobra.Command{
		Use:   "add <case-id>",
		Short: "Register a new case in PendingReview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			in.CaseID = args[0]
			if in.SubmittedDate, err = optionalDate(submitted); err != nil {
				return err
			}
			if in.ReceivedDate, err = optionalDate(received); err != nil {
				return err
			}
			if in.Deadline, err = optionalDate(deadline); err != nil {
				return err
			}
			v, err := b.Cases.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			PrintSuccess(cmd, fmt.Sprintf("case %s created", v.Case.ID))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.CaseType, "type", "", "case type (required)")
	f.StringVar(&in.Title, "title", "", "title")
	f.StringVar(&in.Department, "department", "", "owning department")
	f.StringVar(&in.AssignedTo, "assigned-to", "", "assignee")
	f.StringVar(&in.Priority, "priority", string(sla.PriorityMedium), "priority: Low, Medium, High, Urgent")
	f.StringVar(&submitted, "submitted", "", "submitted date YYYY-MM-DD (required)")
	f.StringVar(&received, "received", "", "received date YYYY-MM-DD (required)")
	f.StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newCasesSetStatusCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set-status <case-id> <status>",
		Short: "Move a case to a new overall status",
		Long: `Move a case to a new overall status. Entering a query status stamps its
issued date, leaving one stamps the response date, and entering a terminal
status stamps the signed date, each only when absent.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			at, err := optionalDate(date)
			if err != nil {
				return err
			}
			v, err := b.Cases.Transition(cmd.Context(), args[0], args[1], at)
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			printCaseDetail(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "effective date YYYY-MM-DD (default: today)")
	return cmd
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := sla.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

//Personal.AI order the ending
