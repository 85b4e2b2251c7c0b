package sla

import "strings"

// Priority is the urgency class of a case.
type Priority string

const (
	PriorityUrgent Priority = "Urgent"
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// priorityOrder is the fixed urgency order; index is the sort rank.
var priorityOrder = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Priorities returns every priority, most urgent first.
func Priorities() []Priority {
	out := make([]Priority, len(priorityOrder))
	copy(out, priorityOrder)
	return out
}

// IsValid reports whether p belongs to the vocabulary.
func (p Priority) IsValid() bool {
	return p.Rank() < len(priorityOrder)
}

// Rank is the position of p in the urgency order (Urgent = 0). Unknown values
// rank after every known one.
func (p Priority) Rank() int {
	for i, v := range priorityOrder {
		if v == p {
			return i
		}
	}
	return len(priorityOrder)
}

// String implements fmt.Stringer.
func (p Priority) String() string {
	return string(p)
}

// ParsePriority matches s case-insensitively against the vocabulary.
func ParsePriority(s string) (Priority, error) {
	trimmed := strings.TrimSpace(s)
	for _, p := range priorityOrder {
		if strings.EqualFold(string(p), trimmed) {
			return p, nil
		}
	}
	return "", UnknownEnumValue("priority", s)
}

//Personal.AI order the ending
