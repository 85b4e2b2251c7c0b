package casefile

import "github.com/turtacn/casetrack/internal/domain/sla"

// Summary is the dashboard aggregate over a set of case views.
type Summary struct {
	Total          int                   `json:"total"`
	Active         int                   `json:"active"`
	Terminal       int                   `json:"terminal"`
	Failed         int                   `json:"failed"`
	QueriesPending int                   `json:"queries_pending"`
	BySLAStatus    map[sla.SLAStatus]int `json:"by_sla_status"`
	ByPriority     map[sla.Priority]int  `json:"by_priority"`
	Deadlines      sla.DeadlineCounts    `json:"deadlines"`
}

// Summarize folds views into a Summary. Priority and deadline counters cover
// active cases only; views that failed to derive are counted in Failed.
func Summarize(views []View) Summary {
	s := Summary{
		BySLAStatus: make(map[sla.SLAStatus]int, len(sla.SLAStatuses())),
		ByPriority:  make(map[sla.Priority]int, len(sla.Priorities())),
	}
	for _, st := range sla.SLAStatuses() {
		s.BySLAStatus[st] = 0
	}
	for _, p := range sla.Priorities() {
		s.ByPriority[p] = 0
	}

	for _, v := range views {
		s.Total++
		if v.Derived == nil {
			s.Failed++
			continue
		}
		s.BySLAStatus[v.Derived.SLAStatus]++
		if v.Case.IsTerminal() {
			s.Terminal++
			continue
		}
		s.Active++
		s.ByPriority[v.Case.Priority]++
		s.Deadlines.Add(v.Derived.DeadlineBucket)
		if v.Case.QueryPending() {
			s.QueriesPending++
		}
	}
	return s
}

//Personal.AI order the ending
