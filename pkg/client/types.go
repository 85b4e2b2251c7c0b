package client

import "time"

// DateLayout is the wire format of request dates.
const DateLayout = "2006-01-02"

// Case is a tracked case as stored.
type Case struct {
	ID         string `json:"case_id"`
	CaseType   string `json:"case_type"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Priority   string `json:"priority"`
	Status     string `json:"overall_status"`
	Remarks    string `json:"remarks,omitempty"`

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

// Derived holds the SLA fields the server computes for a case.
type Derived struct {
	DaysInProcess                   int       `json:"days_in_process"`
	SLAStatus                       string    `json:"sla_status"`
	OverallSLADays                  int       `json:"overall_sla_days"`
	FirstQueryPendingDays           int       `json:"first_query_pending_days"`
	SecondQueryPendingDays          int       `json:"second_query_pending_days"`
	DaysReceivedToSubmittedToHigher *int      `json:"days_received_to_submitted_to_higher"`
	DeadlineBucket                  string    `json:"deadline_bucket"`
	ComputedOn                      time.Time `json:"computed_on"`
}

// ViewError is set instead of Derived when a case could not be evaluated.
type ViewError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type CaseView struct {
	Case    *Case      `json:"case"`
	Derived *Derived   `json:"derived,omitempty"`
	Error   *ViewError `json:"error,omitempty"`
}

// Page is one page of a filtered listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

type DeadlineCounts struct {
	Overdue    int `json:"overdue"`
	ThisWeek   int `json:"this_week"`
	Upcoming   int `json:"upcoming"`
	NoDeadline int `json:"no_deadline"`
}

type Summary struct {
	Total          int            `json:"total"`
	Active         int            `json:"active"`
	Terminal       int            `json:"terminal"`
	Failed         int            `json:"failed"`
	QueriesPending int            `json:"queries_pending"`
	BySLAStatus    map[string]int `json:"by_sla_status"`
	ByPriority     map[string]int `json:"by_priority"`
	Deadlines      DeadlineCounts `json:"deadlines"`
}

type Dashboard struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
}

type CaseError struct {
	CaseID  string `json:"case_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecomputeReport summarizes one recompute pass.
type RecomputeReport struct {
	Trigger     string        `json:"trigger"`
	ComputedOn  time.Time     `json:"computed_on"`
	Processed   int           `json:"processed"`
	Failed      int           `json:"failed"`
	Escalated   int           `json:"escalated"`
	Indexed     int           `json:"indexed"`
	IndexFailed int           `json:"index_failed"`
	Duration    time.Duration `json:"duration"`
	Errors      []CaseError   `json:"errors,omitempty"`
}

// ExportResult points at an uploaded CSV export.
type ExportResult struct {
	ObjectKey   string    `json:"object_key"`
	URL         string    `json:"url"`
	Rows        int       `json:"rows"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

type TemplateStep struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	SLATargetDays int    `json:"sla_target_days"`
}

type Template struct {
	Name  string         `json:"name"`
	Steps []TemplateStep `json:"steps"`
}

type Project struct {
	ID           string    `json:"project_id"`
	Name         string    `json:"name"`
	TemplateName string    `json:"template_name"`
	Status       string    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StepView is a workflow step with its evaluated state.
type StepView struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	StepOrder         int        `json:"step_order"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	SLATargetDays     int        `json:"sla_target_days"`
	IsDone            bool       `json:"is_done"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	CompletionDate    *time.Time `json:"completion_date,omitempty"`
	FrozenDaysElapsed *int       `json:"frozen_days_elapsed,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`

	State       string `json:"state"`
	DaysElapsed *int   `json:"days_elapsed"`
	IsOverdue   bool   `json:"is_overdue"`
}

type WorkflowView struct {
	Project Project    `json:"project"`
	Steps   []StepView `json:"steps"`
	Done    int        `json:"done"`
	Total   int        `json:"total"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

//Personal.AI order the ending
