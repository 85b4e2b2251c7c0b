package casefile

import (
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

// Escalation records a case whose SLA tier worsened between two derivations.
type Escalation struct {
	CaseID        string        `json:"case_id"`
	Priority      sla.Priority  `json:"priority"`
	Previous      sla.SLAStatus `json:"previous"`
	Current       sla.SLAStatus `json:"current"`
	DaysInProcess int           `json:"days_in_process"`
	AllowedDays   int           `json:"allowed_days"`
	ComputedOn    time.Time     `json:"computed_on"`
}

// DetectEscalations compares fresh views with the last snapshots. Cases
// without a snapshot, or whose derivation failed, never escalate.
func DetectEscalations(prev map[string]Snapshot, views []View) []Escalation {
	var out []Escalation
	for _, v := range views {
		if v.Derived == nil {
			continue
		}
		snap, ok := prev[v.Case.ID]
		if !ok || !sla.Escalated(snap.SLAStatus, v.Derived.SLAStatus) {
			continue
		}
		out = append(out, Escalation{
			CaseID:        v.Case.ID,
			Priority:      v.Case.Priority,
			Previous:      snap.SLAStatus,
			Current:       v.Derived.SLAStatus,
			DaysInProcess: v.Derived.DaysInProcess,
			AllowedDays:   v.Derived.OverallSLADays,
			ComputedOn:    v.Derived.ComputedOn,
		})
	}
	return out
}

// Snapshots extracts the persistable snapshot of every successfully derived view.
func Snapshots(views []View) []Snapshot {
	out := make([]Snapshot, 0, len(views))
	for _, v := range views {
		if v.Derived == nil {
			continue
		}
		out = append(out, Snapshot{
			CaseID:        v.Case.ID,
			SLAStatus:     v.Derived.SLAStatus,
			DaysInProcess: v.Derived.DaysInProcess,
			ComputedOn:    v.Derived.ComputedOn,
		})
	}
	return out
}

//Personal.AI order the ending
