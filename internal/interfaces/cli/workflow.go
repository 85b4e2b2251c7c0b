package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/workflow"
)

func newWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Project workflow steps and rollup status",
	}
	cmd.AddCommand(
		newWorkflowShowCmd(),
		newWorkflowToggleCmd(),
		newWorkflowInitCmd(),
		newWorkflowTemplatesCmd(),
	)
	return cmd
}

func newWorkflowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's steps and its rollup status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			v, err := b.Workflows.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printWorkflow(cmd.OutOrStdout(), c.OutputFormat, v)
		},
	}
}

func printWorkflow(w io.Writer, format string, v *casetracking.WorkflowView) error {
	if format == OutputJSON {
		return printJSON(w, v)
	}
	name := v.Project.Name
	if name == "" {
		name = v.Project.ID
	}
	fmt.Fprintf(w, "Project %s: %s (%d/%d done)\n", name, projectBadge(v.Project.Status), v.Done, v.Total)

	if format == OutputText {
		for _, s := range v.Steps {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s/%dd\t%s\n", s.StepOrder, s.ID, s.Title, fmtDays(s.DaysElapsed), s.SLATargetDays, stepBadge(s))
		}
		return nil
	}
	rows := make([][]string, 0, len(v.Steps))
	for _, s := range v.Steps {
		rows = append(rows, []string{
			strconv.Itoa(s.StepOrder),
			s.ID,
			s.Title,
			fmtDate(s.StartDate),
			fmtDate(s.CompletionDate),
			fmtDays(s.DaysElapsed),
			strconv.Itoa(s.SLATargetDays),
			stepBadge(s),
		})
	}
	return renderTable(w, []string{"#", "Step ID", "Title", "Start", "Completed", "Days", "Target", "State"}, rows)
}

func newWorkflowToggleCmd() *cobra.Command {
	var (
		undone bool
		date   string
	)

	cmd := &cobra.Command{
		Use:   "toggle <step-id>",
		Short: "Mark a step done (freezing its elapsed days) or reopen it with --undone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			completion, err := optionalDate(date)
			if err != nil {
				return err
			}
			v, err := b.Workflows.SetStepDone(cmd.Context(), args[0], !undone, completion)
			if err != nil {
				return err
			}
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Step %s (%s): %s, %s of %d day(s)\n",
				v.ID, v.Title, stepBadge(*v), fmtDays(v.DaysElapsed), v.SLATargetDays)
			return nil
		},
	}
	cmd.Flags().BoolVar(&undone, "undone", false, "reopen the step instead of completing it")
	cmd.Flags().StringVar(&date, "date", "", "completion date YYYY-MM-DD (default: today)")
	return cmd
}

func newWorkflowInitCmd() *cobra.Command {
	var in casetracking.InstantiateInput

	cmd := &cobra.Command{
		Use:   "init <project-id>",
		Short: "Create a project's steps from a configured template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			in.ProjectID = args[0]
			v, err := b.Workflows.Instantiate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printWorkflow(cmd.OutOrStdout(), c.OutputFormat, v)
		},
	}
	cmd.Flags().StringVar(&in.TemplateName, "template", "", "template name (see `workflow templates`)")
	cmd.Flags().StringVar(&in.Name, "name", "", "project display name")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newWorkflowTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the configured workflow templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, b, err := backendFor(cmd)
			if err != nil {
				return err
			}
			templates := b.Workflows.Templates()
			if c.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), templates)
			}
			rows := make([][]string, 0, len(templates))
			for _, t := range templates {
				rows = append(rows, []string{t.Name, strconv.Itoa(len(t.Steps)), strconv.Itoa(templateDays(t))})
			}
			return renderTable(cmd.OutOrStdout(), []string{"Template", "Steps", "Target Days"}, rows)
		},
	}
}

func templateDays(t workflow.Template) int {
	total := 0
	for _, s := range t.Steps {
		total += s.SLATargetDays
	}
	return total
}

//Personal.AI order the ending
