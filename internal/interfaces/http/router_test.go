package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/database/sqlite"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
	"github.com/turtacn/casetrack/internal/interfaces/http/middleware"
	"github.com/turtacn/casetrack/internal/testutil"
)

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) ObserveHTTPRequest(method, route string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
}

func newTestRouter(t *testing.T) (http.Handler, *routeRecorder) {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := testutil.NewMockLogger()
	clock := testutil.Clock()
	cases := casetracking.NewCaseService(sqlite.NewCaseRepository(store), clock, log)
	tmpl := workflow.Template{Name: "fit-out", Steps: []workflow.TemplateStep{{Title: "Survey", SLATargetDays: 5}, {Title: "Build", SLATargetDays: 10}}}
	workflows := casetracking.NewWorkflowService(sqlite.NewWorkflowRepository(store), clock, []workflow.Template{tmpl}, log)

	rec := &routeRecorder{}
	router := NewRouter(RouterConfig{
		CaseHandler:     handlers.NewCaseHandler(cases, nil, log),
		WorkflowHandler: handlers.NewWorkflowHandler(workflows, log),
		HealthHandler:   handlers.NewHealthHandler("test", handlers.CheckFunc("sqlite", store.HealthCheck)),
		CORS:            &middleware.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET"}},
		HTTPMetrics:     rec,
		MetricsHandle:   http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		Logger:          log,
	})
	return router, rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/readyz", "").Code)
	rec := do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRouter_CaseLifecycle(t *testing.T) {
	router, routes := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/cases",
		`{"case_id":"C-1","case_type":"Appointment","title":"Lease","priority":"Medium","submitted_date":"2024-05-29","received_date":"2024-05-29"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/cases/C-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Derived struct {
			DaysInProcess int    `json:"days_in_process"`
			SLAStatus     string `json:"sla_status"`
		} `json:"derived"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 12, view.Derived.DaysInProcess)
	assert.Equal(t, "AtRisk", view.Derived.SLAStatus)

	rec = do(t, router, http.MethodGet, "/api/v1/cases?sla_status=AtRisk", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = do(t, router, http.MethodPost, "/api/v1/cases/C-1/status", `{"status":"ApprovedSigned","date":"2024-06-09"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sla_status":"Completed"`)

	rec = do(t, router, http.MethodPatch, "/api/v1/cases/C-1", `{"dates":{"signed_date":"2024-05-01"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/cases/C-404", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/dashboard", "").Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/recompute", "").Code)

	routes.mu.Lock()
	defer routes.mu.Unlock()
	var patterned bool
	for _, r := range routes.routes {
		if strings.HasPrefix(r, "GET ") && strings.Contains(r, "{caseID}") {
			patterned = true
		}
	}
	assert.True(t, patterned, "routes: %v", routes.routes)
}

func TestRouter_WorkflowLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/v1/projects/P-1/workflow", `{"template_name":"fit-out"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var wv casetracking.WorkflowView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wv))
	require.Len(t, wv.Steps, 2)
	stepID := wv.Steps[0].ID

	rec = do(t, router, http.MethodPatch, "/api/v1/steps/"+stepID+"/dates", `{"start_date":"2024-05-31"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"is_overdue":true`)

	rec = do(t, router, http.MethodPut, "/api/v1/steps/"+stepID+"/done", `{"done":true,"completion_date":"2024-06-03"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"frozen_days_elapsed":3`)

	rec = do(t, router, http.MethodGet, "/api/v1/projects/P-1/workflow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wv))
	assert.Equal(t, workflow.ProjectOnTrack, wv.Project.Status)
	assert.Equal(t, 1, wv.Done)

	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/v1/projects/P-1/workflow", `{"template_name":"fit-out"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/v1/steps/nope/done", `{"done":true}`).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/workflow-templates", "").Code)
}

func TestRouter_UnmountedRoutes(t *testing.T) {
	router := NewRouter(RouterConfig{})

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/cases", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/healthz", "").Code)

	router, _ = newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/exports/cases", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/v1/search/cases", "").Code)
}

//Personal.AI order the ending
