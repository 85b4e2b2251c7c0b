// Package casefile models a tracked case and derives its SLA countdown,
// tier and query counters from raw dates and the current status.
package casefile

import (
	"strings"
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/pkg/errors"
)

// Case is one tracked matter. Dates are calendar dates; any time-of-day
// component is ignored by the derivations.
type Case struct {
	ID         string       `json:"case_id"`
	CaseType   string       `json:"case_type"`
	Title      string       `json:"title,omitempty"`
	Department string       `json:"department,omitempty"`
	AssignedTo string       `json:"assigned_to,omitempty"`
	Priority   sla.Priority `json:"priority"`
	Status     sla.Status   `json:"overall_status"`
	Remarks    string       `json:"remarks,omitempty"`

	SubmittedDate           *time.Time `json:"submitted_date,omitempty"`
	ReceivedDate            *time.Time `json:"received_date,omitempty"`
	FirstQueryIssuedDate    *time.Time `json:"first_query_issued_date,omitempty"`
	FirstQueryResponseDate  *time.Time `json:"first_query_response_date,omitempty"`
	SecondQueryIssuedDate   *time.Time `json:"second_query_issued_date,omitempty"`
	SecondQueryResponseDate *time.Time `json:"second_query_response_date,omitempty"`
	SubmittedToHigherDate   *time.Time `json:"submitted_to_higher_date,omitempty"`
	SignedDate              *time.Time `json:"signed_date,omitempty"`
	Deadline                *time.Time `json:"deadline,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCase builds a case in PendingReview. Submitted and received dates are required.
func NewCase(id, caseType string, priority sla.Priority, submitted, received time.Time) (*Case, error) {
	s := sla.CalendarDate(submitted)
	r := sla.CalendarDate(received)
	c := &Case{
		ID:            strings.TrimSpace(id),
		CaseType:      strings.TrimSpace(caseType),
		Priority:      priority,
		Status:        sla.StatusPendingReview,
		SubmittedDate: &s,
		ReceivedDate:  &r,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// IsTerminal reports whether the case's SLA clock has stopped.
func (c *Case) IsTerminal() bool {
	return c.Status.IsTerminal()
}

// QueryPending reports whether either query cycle was issued and not yet
// answered, including one issued today.
func (c *Case) QueryPending() bool {
	return (c.FirstQueryIssuedDate != nil && c.FirstQueryResponseDate == nil) ||
		(c.SecondQueryIssuedDate != nil && c.SecondQueryResponseDate == nil)
}

// Validate checks identity, vocabularies, mandatory dates and date order.
// It is stricter than ComputeCaseDerived, which only needs what it reads.
func (c *Case) Validate() error {
	if c.ID == "" {
		return errors.InvalidParam("case id is required")
	}
	if c.CaseType == "" {
		return errors.InvalidParam("case type is required").WithDetail("case_id=" + c.ID)
	}
	if err := c.validateEnums(); err != nil {
		return err
	}
	if c.SubmittedDate == nil {
		return sla.MissingRequiredDate("case_id", c.ID, "submittedDate")
	}
	if c.ReceivedDate == nil {
		return sla.MissingRequiredDate("case_id", c.ID, "receivedDate")
	}
	if err := c.checkQueryOrder(); err != nil {
		return err
	}
	if before(c.SignedDate, c.SubmittedDate) {
		return sla.InvalidDateOrder("case_id", c.ID, "signedDate", "submittedDate")
	}
	if before(c.SubmittedToHigherDate, c.ReceivedDate) {
		return sla.InvalidDateOrder("case_id", c.ID, "submittedToHigherDate", "receivedDate")
	}
	return nil
}

func (c *Case) validateEnums() error {
	if !c.Priority.IsValid() {
		return sla.UnknownEnumValue("priority", string(c.Priority)).
			WithDetail("case_id=" + c.ID)
	}
	if !c.Status.IsValid() {
		return sla.UnknownEnumValue("status", string(c.Status)).
			WithDetail("case_id=" + c.ID)
	}
	return nil
}

func (c *Case) checkQueryOrder() error {
	if before(c.FirstQueryResponseDate, c.FirstQueryIssuedDate) {
		return sla.InvalidDateOrder("case_id", c.ID, "firstQueryResponseDate", "firstQueryIssuedDate")
	}
	if before(c.SecondQueryResponseDate, c.SecondQueryIssuedDate) {
		return sla.InvalidDateOrder("case_id", c.ID, "secondQueryResponseDate", "secondQueryIssuedDate")
	}
	return nil
}

// ApplyStatus moves the case to next and stamps the milestone dates the move
// implies when they are still empty:
//   - entering DeptQuery(kind) sets that cycle's issued date;
//   - leaving DeptQuery(kind) sets that cycle's response date;
//   - entering SubmittedToHigherAuthority sets submittedToHigherDate;
//   - entering a terminal status sets signedDate, which freezes daysInProcess.
func (c *Case) ApplyStatus(next sla.Status, today time.Time) error {
	if !next.IsValid() {
		return sla.UnknownEnumValue("status", string(next)).WithDetail("case_id=" + c.ID)
	}
	day := sla.CalendarDate(today)
	if kind, ok := c.Status.QueryKind(); ok && next != c.Status {
		issued, response := c.queryDates(kind)
		if *issued != nil && *response == nil {
			*response = dateRef(day)
		}
	}
	if kind, ok := next.QueryKind(); ok {
		issued, _ := c.queryDates(kind)
		if *issued == nil {
			*issued = dateRef(day)
		}
	}
	if next == sla.StatusSubmittedToHigherAuthority && c.SubmittedToHigherDate == nil {
		c.SubmittedToHigherDate = dateRef(day)
	}
	if next.IsTerminal() && c.SignedDate == nil {
		c.SignedDate = dateRef(day)
	}
	c.Status = next
	return nil
}

func (c *Case) queryDates(kind sla.QueryKind) (issued, response **time.Time) {
	if kind == sla.QueryHigherAuthority {
		return &c.SecondQueryIssuedDate, &c.SecondQueryResponseDate
	}
	return &c.FirstQueryIssuedDate, &c.FirstQueryResponseDate
}

// before reports whether a is set, b is set and a's calendar day precedes b's.
func before(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	return sla.DaysBetween(*b, *a) < 0
}

func dateRef(d time.Time) *time.Time {
	return &d
}

//Personal.AI order the ending
