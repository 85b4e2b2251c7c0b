package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/domain/workflow"
)

var slaColors = map[sla.SLAStatus]*color.Color{
	sla.SLAOverdue:          color.New(color.FgRed, color.Bold),
	sla.SLACritical:         color.New(color.FgMagenta, color.Bold),
	sla.SLAAtRisk:           color.New(color.FgYellow),
	sla.SLAWithinSLA:        color.New(color.FgGreen),
	sla.SLACompleted:        color.New(color.FgCyan),
	sla.SLACompletedOverdue: color.New(color.FgHiRed),
}

var projectColors = map[workflow.ProjectStatus]*color.Color{
	workflow.ProjectDelayed:   color.New(color.FgRed, color.Bold),
	workflow.ProjectAtRisk:    color.New(color.FgYellow),
	workflow.ProjectOnTrack:   color.New(color.FgGreen),
	workflow.ProjectCompleted: color.New(color.FgCyan),
}

// slaBadge renders an SLA status in its tier colour. Colours are dropped by
// fatih/color when --no-color is set or stdout is not a terminal.
func slaBadge(s sla.SLAStatus) string {
	if c, ok := slaColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func projectBadge(s workflow.ProjectStatus) string {
	if c, ok := projectColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func stepBadge(v workflow.StepView) string {
	switch {
	case v.IsOverdue:
		return color.RedString("overdue")
	case v.State == workflow.StateDone:
		return color.CyanString(string(v.State))
	default:
		return string(v.State)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("table row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	return nil
}

func fmtDate(d *time.Time) string {
	if s := sla.FormatDate(d); s != "" {
		return s
	}
	return "-"
}

func fmtDays(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func fmtCount(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%dd", n)
}

//Personal.AI order the ending
