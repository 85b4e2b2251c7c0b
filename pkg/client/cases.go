package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CasesClient covers the case table, dashboard, recompute and export.
type CasesClient struct {
	client *Client
}

// ListOptions filters and pages GET /cases. Zero values are omitted.
type ListOptions struct {
	Statuses        []string
	Priorities      []string
	SLAStatuses     []string
	DeadlineBuckets []string
	InProcessOnly   bool
	CaseType        string
	Department      string
	SortBy          string
	Descending      bool
	Page            int
	PageSize        int
}

func (o ListOptions) values(paged bool) url.Values {
	v := url.Values{}
	setList := func(key string, vals []string) {
		if len(vals) > 0 {
			v.Set(key, strings.Join(vals, ","))
		}
	}
	setList("status", o.Statuses)
	setList("priority", o.Priorities)
	setList("sla_status", o.SLAStatuses)
	setList("deadline", o.DeadlineBuckets)
	if o.InProcessOnly {
		v.Set("in_process_only", "true")
	}
	if o.CaseType != "" {
		v.Set("case_type", o.CaseType)
	}
	if o.Department != "" {
		v.Set("department", o.Department)
	}
	if o.SortBy != "" {
		v.Set("sort_by", o.SortBy)
	}
	if o.Descending {
		v.Set("sort_order", "desc")
	}
	if paged && o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if paged && o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return v
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// CreateCaseRequest registers a new case. Dates are calendar days.
type CreateCaseRequest struct {
	CaseID        string
	CaseType      string
	Title         string
	Department    string
	AssignedTo    string
	Priority      string
	Remarks       string
	SubmittedDate time.Time
	ReceivedDate  time.Time
	Deadline      *time.Time
}

type createCaseBody struct {
	CaseID        string `json:"case_id"`
	CaseType      string `json:"case_type"`
	Title         string `json:"title,omitempty"`
	Department    string `json:"department,omitempty"`
	AssignedTo    string `json:"assigned_to,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Remarks       string `json:"remarks,omitempty"`
	SubmittedDate string `json:"submitted_date"`
	ReceivedDate  string `json:"received_date"`
	Deadline      string `json:"deadline,omitempty"`
}

// UpdateCaseRequest patches a case. Nil fields are left alone. A date mapped
// to nil is cleared.
type UpdateCaseRequest struct {
	Title      *string
	Department *string
	AssignedTo *string
	Priority   *string
	Remarks    *string
	Dates      map[string]*time.Time
}

type updateCaseBody struct {
	Title      *string           `json:"title,omitempty"`
	Department *string           `json:"department,omitempty"`
	AssignedTo *string           `json:"assigned_to,omitempty"`
	Priority   *string           `json:"priority,omitempty"`
	Remarks    *string           `json:"remarks,omitempty"`
	Dates      map[string]string `json:"dates,omitempty"`
}

// List returns one page of cases with their derived SLA fields.
func (c *CasesClient) List(ctx context.Context, opts ListOptions) (*Page[CaseView], error) {
	var page Page[CaseView]
	if err := c.client.get(ctx, withQuery("/cases", opts.values(true)), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *CasesClient) Get(ctx context.Context, caseID string) (*CaseView, error) {
	if caseID == "" {
		return nil, fmt.Errorf("case id is required")
	}
	var v CaseView
	if err := c.client.get(ctx, "/cases/"+url.PathEscape(caseID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *CasesClient) Create(ctx context.Context, req CreateCaseRequest) (*CaseView, error) {
	body := createCaseBody{
		CaseID:        req.CaseID,
		CaseType:      req.CaseType,
		Title:         req.Title,
		Department:    req.Department,
		AssignedTo:    req.AssignedTo,
		Priority:      req.Priority,
		Remarks:       req.Remarks,
		SubmittedDate: formatDate(&req.SubmittedDate),
		ReceivedDate:  formatDate(&req.ReceivedDate),
		Deadline:      formatDate(req.Deadline),
	}
	var v CaseView
	if err := c.client.post(ctx, "/cases", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *CasesClient) Update(ctx context.Context, caseID string, req UpdateCaseRequest) (*CaseView, error) {
	body := updateCaseBody{
		Title:      req.Title,
		Department: req.Department,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		Remarks:    req.Remarks,
	}
	if len(req.Dates) > 0 {
		body.Dates = make(map[string]string, len(req.Dates))
		for field, d := range req.Dates {
			body.Dates[field] = formatDate(d)
		}
	}
	var v CaseView
	if err := c.client.patch(ctx, "/cases/"+url.PathEscape(caseID), body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Transition moves a case to status. at defaults to the server's today.
func (c *CasesClient) Transition(ctx context.Context, caseID, status string, at *time.Time) (*CaseView, error) {
	body := struct {
		Status string `json:"status"`
		Date   string `json:"date,omitempty"`
	}{Status: status, Date: formatDate(at)}

	var v CaseView
	if err := c.client.post(ctx, "/cases/"+url.PathEscape(caseID)+"/status", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *CasesClient) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.client.get(ctx, "/dashboard", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Recompute asks the server to re-derive every case. On partial failure the
// report is returned together with an *APIError.
func (c *CasesClient) Recompute(ctx context.Context) (*RecomputeReport, error) {
	var report RecomputeReport
	err := c.client.post(ctx, "/recompute", nil, &report)
	if err != nil {
		if report.Trigger != "" {
			return &report, err
		}
		return nil, err
	}
	return &report, nil
}

// Export uploads a CSV of the filtered cases and returns where it went.
// Paging options are ignored.
func (c *CasesClient) Export(ctx context.Context, opts ListOptions) (*ExportResult, error) {
	var res ExportResult
	if err := c.client.post(ctx, withQuery("/exports/cases", opts.values(false)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

//Personal.AI order the ending
