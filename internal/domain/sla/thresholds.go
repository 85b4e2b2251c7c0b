package sla

// Fractions of the allowed-day budget at which a tier starts.
const (
	AtRiskRatio   = 0.8
	CriticalRatio = 0.9
)

var allowedDaysTable = map[Priority]int{
	PriorityUrgent: 3,
	PriorityHigh:   7,
	PriorityMedium: 14,
	PriorityLow:    21,
}

// AllowedDays returns the day budget for p.
func AllowedDays(p Priority) (int, error) {
	days, ok := allowedDaysTable[p]
	if !ok {
		return 0, UnknownEnumValue("priority", string(p))
	}
	return days, nil
}

// Boundaries are the day counts at which each tier begins. They are plain
// products and are compared directly, never rounded.
type Boundaries struct {
	AtRisk    float64 `json:"at_risk"`
	Critical  float64 `json:"critical"`
	OverdueAt float64 `json:"overdue_at"`
}

// BucketBoundaries derives the tier boundaries for a day budget.
func BucketBoundaries(allowedDays int) Boundaries {
	allowed := float64(allowedDays)
	return Boundaries{
		AtRisk:    AtRiskRatio * allowed,
		Critical:  CriticalRatio * allowed,
		OverdueAt: allowed,
	}
}

// Classify maps an active case's elapsed days onto a tier.
func (b Boundaries) Classify(days int) SLAStatus {
	d := float64(days)
	switch {
	case d >= b.OverdueAt:
		return SLAOverdue
	case d >= b.Critical:
		return SLACritical
	case d >= b.AtRisk:
		return SLAAtRisk
	default:
		return SLAWithinSLA
	}
}

// ClassifyCompleted maps a terminal case's frozen days onto a completed tier.
func ClassifyCompleted(days, allowedDays int) SLAStatus {
	if days > allowedDays {
		return SLACompletedOverdue
	}
	return SLACompleted
}

//Personal.AI order the ending
