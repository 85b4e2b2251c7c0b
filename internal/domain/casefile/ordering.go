package casefile

import (
	"cmp"
	"strings"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

// SortKey names a column of the case table.
type SortKey string

const (
	SortByCaseID   SortKey = "case_id"
	SortByPriority SortKey = "priority"
	SortBySLA      SortKey = "sla"
	SortByDays     SortKey = "days"
	SortByDeadline SortKey = "deadline"
)

// ParseSortKey validates a sort column; "" means case_id.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByCaseID, nil
	case SortByCaseID, SortByPriority, SortBySLA, SortByDays, SortByDeadline:
		return k, nil
	}
	return "", sla.UnknownEnumValue("sort key", s)
}

var byCaseID = sla.By(func(v View) string { return v.Case.ID }, strings.Compare)

// Comparator orders views by key, breaking ties on case id ascending so every
// snapshot has exactly one order. desc only flips the primary key. Views whose
// derivation failed, and cases without a deadline, sort last either way.
func Comparator(key SortKey, desc bool) sla.Comparator[View] {
	var primary sla.Comparator[View]
	var present func(View) bool
	switch key {
	case SortByPriority:
		primary = sla.By(func(v View) sla.Priority { return v.Case.Priority }, sla.ComparePriority)
	case SortBySLA:
		primary = sla.By(func(v View) sla.SLAStatus { return v.Derived.SLAStatus }, sla.CompareSLAStatus)
		present = hasDerived
	case SortByDays:
		primary = sla.By(func(v View) int { return v.Derived.DaysInProcess }, cmp.Compare[int])
		present = hasDerived
	case SortByDeadline:
		primary = func(a, b View) int { return sla.DaysBetween(*b.Case.Deadline, *a.Case.Deadline) }
		present = hasDeadline
	default:
		if desc {
			return sla.Reverse(byCaseID)
		}
		return byCaseID
	}
	if desc {
		primary = sla.Reverse(primary)
	}
	if present != nil {
		primary = missingLast(present, primary)
	}
	return sla.Chain(primary, byCaseID)
}

func hasDerived(v View) bool  { return v.Derived != nil }
func hasDeadline(v View) bool { return v.Case.Deadline != nil }

func missingLast(present func(View) bool, c sla.Comparator[View]) sla.Comparator[View] {
	return func(a, b View) int {
		pa, pb := present(a), present(b)
		switch {
		case !pa && !pb:
			return 0
		case !pa:
			return 1
		case !pb:
			return -1
		}
		return c(a, b)
	}
}

//Personal.AI order the ending
