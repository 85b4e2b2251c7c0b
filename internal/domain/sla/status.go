package sla

import (
	"strings"
	"unicode"
)

// QueryKind distinguishes the two department query cycles a case can enter.
type QueryKind string

const (
	QueryFirstStage      QueryKind = "FirstStage"
	QueryHigherAuthority QueryKind = "HigherAuthority"
)

// Status is the overall status of a case. The set is closed: values outside
// the constants below are rejected by ParseStatus and by Validate.
type Status string

const (
	StatusPendingReview              Status = "PendingReview"
	StatusInProcess                  Status = "InProcess"
	StatusDeptQueryFirstStage        Status = "DeptQuery(FirstStage)"
	StatusDeptQueryHigherAuthority   Status = "DeptQuery(HigherAuthority)"
	StatusSubmittedToHigherAuthority Status = "SubmittedToHigherAuthority"
	StatusPendingHigherApproval      Status = "PendingHigherApproval"
	StatusReturnedForQuery           Status = "ReturnedForQuery"
	StatusApprovedSigned             Status = "ApprovedSigned"
	StatusNotApproved                Status = "NotApproved"
)

type statusInfo struct {
	label    string
	terminal bool
}

var statusTable = map[Status]statusInfo{
	StatusPendingReview:              {"Pending Review", false},
	StatusInProcess:                  {"In Process", false},
	StatusDeptQueryFirstStage:        {"Dept Query (First Stage)", false},
	StatusDeptQueryHigherAuthority:   {"Dept Query (Higher Authority)", false},
	StatusSubmittedToHigherAuthority: {"Submitted to Higher Authority", false},
	StatusPendingHigherApproval:      {"Pending Higher Approval", false},
	StatusReturnedForQuery:           {"Returned for Query", false},
	StatusApprovedSigned:             {"Approved & Signed", true},
	StatusNotApproved:                {"Not Approved", true},
}

var statusOrder = []Status{
	StatusPendingReview,
	StatusInProcess,
	StatusDeptQueryFirstStage,
	StatusDeptQueryHigherAuthority,
	StatusSubmittedToHigherAuthority,
	StatusPendingHigherApproval,
	StatusReturnedForQuery,
	StatusApprovedSigned,
	StatusNotApproved,
}

// statusAliases indexes canonical names and display labels by their folded form.
var statusAliases = func() map[string]Status {
	m := make(map[string]Status, len(statusTable)*2)
	for s, info := range statusTable {
		m[foldStatus(string(s))] = s
		m[foldStatus(info.label)] = s
	}
	return m
}()

// DeptQuery returns the department query status for kind.
func DeptQuery(kind QueryKind) (Status, error) {
	switch kind {
	case QueryFirstStage:
		return StatusDeptQueryFirstStage, nil
	case QueryHigherAuthority:
		return StatusDeptQueryHigherAuthority, nil
	default:
		return "", UnknownEnumValue("query kind", string(kind))
	}
}

// Statuses returns the vocabulary in workflow order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// IsValid reports whether s belongs to the vocabulary.
func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// IsTerminal reports whether the SLA clock stops in this status.
func (s Status) IsTerminal() bool {
	return statusTable[s].terminal
}

// IsActive reports whether s is a known non-terminal status.
func (s Status) IsActive() bool {
	info, ok := statusTable[s]
	return ok && !info.terminal
}

// QueryKind returns the query cycle of a DeptQuery status.
func (s Status) QueryKind() (QueryKind, bool) {
	switch s {
	case StatusDeptQueryFirstStage:
		return QueryFirstStage, true
	case StatusDeptQueryHigherAuthority:
		return QueryHigherAuthority, true
	}
	return "", false
}

// Label is the display form of s.
func (s Status) Label() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return string(s)
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts the canonical name or the display label, ignoring case,
// spacing and punctuation ("Dept Query (First Stage)", "deptquery(firststage)").
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[foldStatus(s)]; ok {
		return st, nil
	}
	return "", UnknownEnumValue("status", s)
}

func foldStatus(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

//Personal.AI order the ending
