package sla

import "strings"

// SLAStatus is the urgency tier derived from elapsed days against the budget.
type SLAStatus string

const (
	SLAOverdue          SLAStatus = "Overdue"
	SLACritical         SLAStatus = "Critical"
	SLAAtRisk           SLAStatus = "AtRisk"
	SLAWithinSLA        SLAStatus = "WithinSLA"
	SLACompleted        SLAStatus = "Completed"
	SLACompletedOverdue SLAStatus = "CompletedOverdue"
)

// slaOrder is the fixed report/sort order; index is the rank.
var slaOrder = []SLAStatus{
	SLAOverdue,
	SLACritical,
	SLAAtRisk,
	SLAWithinSLA,
	SLACompleted,
	SLACompletedOverdue,
}

// SLAStatuses returns every tier in rank order.
func SLAStatuses() []SLAStatus {
	out := make([]SLAStatus, len(slaOrder))
	copy(out, slaOrder)
	return out
}

// Rank is the position of s in the fixed order (Overdue = 0).
func (s SLAStatus) Rank() int {
	for i, v := range slaOrder {
		if v == s {
			return i
		}
	}
	return len(slaOrder)
}

// IsValid reports whether s is a known tier.
func (s SLAStatus) IsValid() bool {
	return s.Rank() < len(slaOrder)
}

// IsCompleted reports whether s is one of the terminal tiers.
func (s SLAStatus) IsCompleted() bool {
	return s == SLACompleted || s == SLACompletedOverdue
}

// String implements fmt.Stringer.
func (s SLAStatus) String() string {
	return string(s)
}

// ParseSLAStatus matches s case-insensitively.
func ParseSLAStatus(s string) (SLAStatus, error) {
	trimmed := strings.TrimSpace(s)
	for _, v := range slaOrder {
		if strings.EqualFold(string(v), trimmed) {
			return v, nil
		}
	}
	return "", UnknownEnumValue("sla status", s)
}

// Escalated reports whether moving from prev to next makes an active case more
// urgent. Transitions into or out of the completed tiers never escalate.
func Escalated(prev, next SLAStatus) bool {
	if prev == "" || prev.IsCompleted() || next.IsCompleted() {
		return false
	}
	return next.Rank() < prev.Rank()
}

//Personal.AI order the ending
