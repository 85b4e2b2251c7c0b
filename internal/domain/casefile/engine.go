package casefile

import (
	"time"

	"github.com/turtacn/casetrack/internal/domain/sla"
)

// Derived holds the fields computed from a case snapshot and "now". It is a
// projection keyed by CaseID and is never the source of truth.
type Derived struct {
	CaseID                          string             `json:"case_id"`
	DaysInProcess                   int                `json:"days_in_process"`
	SLAStatus                       sla.SLAStatus      `json:"sla_status"`
	OverallSLADays                  int                `json:"overall_sla_days"`
	FirstQueryPendingDays           int                `json:"first_query_pending_days"`
	SecondQueryPendingDays          int                `json:"second_query_pending_days"`
	DaysReceivedToSubmittedToHigher *int               `json:"days_received_to_submitted_to_higher"`
	DeadlineBucket                  sla.DeadlineBucket `json:"deadline_bucket,omitempty"`
	ComputedOn                      time.Time          `json:"computed_on"`
}

// ComputeCaseDerived derives the SLA fields of c as of now.
//
// Terminal cases count from submittedDate to signedDate (now when unsigned) and
// land in Completed or CompletedOverdue. Active cases count to now and are
// classified against the priority's tier boundaries. The two query counters run
// independently of daysInProcess.
func ComputeCaseDerived(c *Case, now time.Time) (Derived, error) {
	if err := c.validateEnums(); err != nil {
		return Derived{}, err
	}
	if c.SubmittedDate == nil {
		return Derived{}, sla.MissingRequiredDate("case_id", c.ID, "submittedDate")
	}
	if err := c.checkQueryOrder(); err != nil {
		return Derived{}, err
	}
	allowed, err := sla.AllowedDays(c.Priority)
	if err != nil {
		return Derived{}, err
	}

	d := Derived{
		CaseID:         c.ID,
		OverallSLADays: allowed,
		ComputedOn:     sla.CalendarDate(now),
	}

	if c.Status.IsTerminal() {
		end := now
		if c.SignedDate != nil {
			if before(c.SignedDate, c.SubmittedDate) {
				return Derived{}, sla.InvalidDateOrder("case_id", c.ID, "signedDate", "submittedDate")
			}
			end = *c.SignedDate
		}
		d.DaysInProcess = max(0, sla.DaysBetween(*c.SubmittedDate, end))
		d.SLAStatus = sla.ClassifyCompleted(d.DaysInProcess, allowed)
	} else {
		d.DaysInProcess = max(0, sla.DaysBetween(*c.SubmittedDate, now))
		d.SLAStatus = sla.BucketBoundaries(allowed).Classify(d.DaysInProcess)
	}

	d.FirstQueryPendingDays = pendingDays(c.FirstQueryIssuedDate, c.FirstQueryResponseDate, now)
	d.SecondQueryPendingDays = pendingDays(c.SecondQueryIssuedDate, c.SecondQueryResponseDate, now)

	if c.SubmittedToHigherDate != nil && c.ReceivedDate != nil {
		days := sla.DaysBetween(*c.ReceivedDate, *c.SubmittedToHigherDate)
		d.DaysReceivedToSubmittedToHigher = &days
	}

	// Deadlines only bucket cases still in process.
	if c.Status.IsActive() {
		d.DeadlineBucket = sla.ClassifyDeadline(c.Deadline, now)
	}
	return d, nil
}

func pendingDays(issued, response *time.Time, now time.Time) int {
	if issued == nil || response != nil {
		return 0
	}
	return sla.DaysBetween(*issued, now)
}

// Result is the outcome for one case of a batch computation.
type Result struct {
	CaseID  string
	Derived Derived
	Err     error
}

// ComputeBatch derives every case independently. A failing case yields a
// Result with Err set and does not affect the others.
func ComputeBatch(cases []*Case, now time.Time) []Result {
	out := make([]Result, 0, len(cases))
	for _, c := range cases {
		d, err := ComputeCaseDerived(c, now)
		out = append(out, Result{CaseID: c.ID, Derived: d, Err: err})
	}
	return out
}

// View pairs a case with its derived fields, or with the error that prevented
// deriving them.
type View struct {
	Case    *Case    `json:"case"`
	Derived *Derived `json:"derived,omitempty"`
	Err     error    `json:"-"`
}

// NewView computes c's derived fields as of now.
func NewView(c *Case, now time.Time) View {
	d, err := ComputeCaseDerived(c, now)
	if err != nil {
		return View{Case: c, Err: err}
	}
	return View{Case: c, Derived: &d}
}

//Personal.AI order the ending
