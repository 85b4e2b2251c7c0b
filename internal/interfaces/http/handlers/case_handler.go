package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
)

// CaseHandler serves the case table, the dashboard and exports.
type CaseHandler struct {
	cases   casetracking.CaseService
	exports casetracking.ExportService
	logger  logging.Logger
}

// NewCaseHandler creates a CaseHandler. exports may be nil, in which case the
// export route is not mounted.
func NewCaseHandler(cases casetracking.CaseService, exports casetracking.ExportService, logger logging.Logger) *CaseHandler {
	return &CaseHandler{cases: cases, exports: exports, logger: logger}
}

// CanExport reports whether an export service is configured.
func (h *CaseHandler) CanExport() bool {
	return h.exports != nil
}

// CreateCaseRequest is the body of POST /cases. Dates are YYYY-MM-DD.
type CreateCaseRequest struct {
	CaseID        string `json:"case_id"`
	CaseType      string `json:"case_type"`
	Title         string `json:"title"`
	Department    string `json:"department"`
	AssignedTo    string `json:"assigned_to"`
	Priority      string `json:"priority"`
	Remarks       string `json:"remarks"`
	SubmittedDate string `json:"submitted_date"`
	ReceivedDate  string `json:"received_date"`
	Deadline      string `json:"deadline"`
}

// UpdateCaseRequest is the body of PATCH /cases/{caseID}. Absent fields are
// left alone; a date set to "" is cleared.
type UpdateCaseRequest struct {
	Title      *string           `json:"title"`
	Department *string           `json:"department"`
	AssignedTo *string           `json:"assigned_to"`
	Priority   *string           `json:"priority"`
	Remarks    *string           `json:"remarks"`
	Dates      map[string]string `json:"dates"`
}

// TransitionRequest is the body of POST /cases/{caseID}/status.
type TransitionRequest struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

func listInputFromQuery(r *http.Request) casetracking.ListInput {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	return casetracking.ListInput{
		Statuses:        queryList(r, "status"),
		Priorities:      queryList(r, "priority"),
		SLAStatuses:     queryList(r, "sla_status"),
		DeadlineBuckets: queryList(r, "deadline"),
		InProcessOnly:   queryBool(r, "in_process_only"),
		CaseType:        q.Get("case_type"),
		Department:      q.Get("department"),
		SortBy:          q.Get("sort_by"),
		SortOrder:       q.Get("sort_order"),
		Page:            page,
		PageSize:        pageSize,
	}
}

// List handles GET /api/v1/cases.
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.cases.List(r.Context(), listInputFromQuery(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/v1/cases/{caseID}.
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.cases.Get(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Create handles POST /api/v1/cases.
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	in := casetracking.CreateInput{
		CaseID:     req.CaseID,
		CaseType:   req.CaseType,
		Title:      req.Title,
		Department: req.Department,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		Remarks:    req.Remarks,
	}
	var err error
	if in.SubmittedDate, err = parseDate(casetracking.FieldSubmittedDate, req.SubmittedDate); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if in.ReceivedDate, err = parseDate(casetracking.FieldReceivedDate, req.ReceivedDate); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if in.Deadline, err = parseDate(casetracking.FieldDeadline, req.Deadline); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	v, err := h.cases.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// Update handles PATCH /api/v1/cases/{caseID}.
func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	in := casetracking.UpdateInput{
		CaseID:     chi.URLParam(r, "caseID"),
		Title:      req.Title,
		Department: req.Department,
		AssignedTo: req.AssignedTo,
		Priority:   req.Priority,
		Remarks:    req.Remarks,
	}
	for field, raw := range req.Dates {
		d, err := parseDate(field, raw)
		if err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		if d == nil {
			in.Clear = append(in.Clear, field)
			continue
		}
		if in.Dates == nil {
			in.Dates = make(map[string]*time.Time, len(req.Dates))
		}
		in.Dates[field] = d
	}

	v, err := h.cases.Update(r.Context(), in)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Transition handles POST /api/v1/cases/{caseID}/status.
func (h *CaseHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	at, err := parseDate("date", req.Date)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	v, err := h.cases.Transition(r.Context(), chi.URLParam(r, "caseID"), req.Status, at)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Dashboard handles GET /api/v1/dashboard.
func (h *CaseHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.cases.Dashboard(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Recompute handles POST /api/v1/recompute. The report is returned with a 502
// status when publishing failed or any case could not be derived.
func (h *CaseHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	report, err := h.cases.Recompute(r.Context(), casetracking.TriggerManual)
	if err != nil {
		if report == nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		h.logger.Warn("Manual recompute incomplete", logging.Err(err))
		writeJSON(w, http.StatusBadGateway, report)
		return
	}
	if report.Failed > 0 {
		h.logger.Warn("Manual recompute skipped cases", logging.Int("failed", report.Failed))
		writeJSON(w, http.StatusBadGateway, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Export handles POST /api/v1/exports/cases. Filters come from the query
// string, exactly as for List; pagination is ignored.
func (h *CaseHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.exports.ExportCases(r.Context(), listInputFromQuery(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

//Personal.AI order the ending
