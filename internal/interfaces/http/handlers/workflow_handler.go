package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
)

// WorkflowHandler serves project checklists.
type WorkflowHandler struct {
	workflows casetracking.WorkflowService
	logger    logging.Logger
}

func NewWorkflowHandler(workflows casetracking.WorkflowService, logger logging.Logger) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows, logger: logger}
}

// InstantiateRequest is the body of POST /projects/{projectID}/workflow.
// Template, when present, is used instead of the named one.
type InstantiateRequest struct {
	Name         string             `json:"name"`
	TemplateName string             `json:"template_name"`
	Template     *workflow.Template `json:"template"`
}

// StepDoneRequest is the body of PUT /steps/{stepID}/done.
type StepDoneRequest struct {
	Done           *bool  `json:"done"`
	CompletionDate string `json:"completion_date"`
}

// StepDatesRequest is the body of PATCH /steps/{stepID}/dates. Both dates
// are replaced; "" clears one.
type StepDatesRequest struct {
	StartDate      string `json:"start_date"`
	CompletionDate string `json:"completion_date"`
}

// Get handles GET /api/v1/projects/{projectID}/workflow.
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.workflows.Get(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Instantiate handles POST /api/v1/projects/{projectID}/workflow.
func (h *WorkflowHandler) Instantiate(w http.ResponseWriter, r *http.Request) {
	var req InstantiateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	v, err := h.workflows.Instantiate(r.Context(), casetracking.InstantiateInput{
		ProjectID:    chi.URLParam(r, "projectID"),
		Name:         req.Name,
		TemplateName: req.TemplateName,
		Template:     req.Template,
	})
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// SetDone handles PUT /api/v1/steps/{stepID}/done.
func (h *WorkflowHandler) SetDone(w http.ResponseWriter, r *http.Request) {
	var req StepDoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if req.Done == nil {
		writeAppError(w, r, h.logger, errors.InvalidParam("done is required"))
		return
	}
	completion, err := parseDate("completion_date", req.CompletionDate)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	v, err := h.workflows.SetStepDone(r.Context(), chi.URLParam(r, "stepID"), *req.Done, completion)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateDates handles PATCH /api/v1/steps/{stepID}/dates.
func (h *WorkflowHandler) UpdateDates(w http.ResponseWriter, r *http.Request) {
	var req StepDatesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	completion, err := parseDate("completion_date", req.CompletionDate)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	v, err := h.workflows.UpdateStepDates(r.Context(), chi.URLParam(r, "stepID"), start, completion)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Templates handles GET /api/v1/workflow-templates.
func (h *WorkflowHandler) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.workflows.Templates())
}

//Personal.AI order the ending
