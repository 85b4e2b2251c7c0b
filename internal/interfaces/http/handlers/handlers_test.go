package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// --- Mock services ---

type mockCaseService struct {
	mock.Mock
}

func (m *mockCaseService) Get(ctx context.Context, caseID string) (*casetracking.CaseView, error) {
	args := m.Called(ctx, caseID)
	v, _ := args.Get(0).(*casetracking.CaseView)
	return v, args.Error(1)
}

func (m *mockCaseService) List(ctx context.Context, in casetracking.ListInput) (*common.PageResponse[casetracking.CaseView], error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*common.PageResponse[casetracking.CaseView])
	return v, args.Error(1)
}

func (m *mockCaseService) Create(ctx context.Context, in casetracking.CreateInput) (*casetracking.CaseView, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*casetracking.CaseView)
	return v, args.Error(1)
}

func (m *mockCaseService) Update(ctx context.Context, in casetracking.UpdateInput) (*casetracking.CaseView, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*casetracking.CaseView)
	return v, args.Error(1)
}

func (m *mockCaseService) Transition(ctx context.Context, caseID, status string, at *time.Time) (*casetracking.CaseView, error) {
	args := m.Called(ctx, caseID, status, at)
	v, _ := args.Get(0).(*casetracking.CaseView)
	return v, args.Error(1)
}

func (m *mockCaseService) Dashboard(ctx context.Context) (*casetracking.Dashboard, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*casetracking.Dashboard)
	return v, args.Error(1)
}

func (m *mockCaseService) Recompute(ctx context.Context, trigger string) (*casetracking.RecomputeReport, error) {
	args := m.Called(ctx, trigger)
	v, _ := args.Get(0).(*casetracking.RecomputeReport)
	return v, args.Error(1)
}

type mockExportService struct {
	mock.Mock
}

func (m *mockExportService) ExportCases(ctx context.Context, in casetracking.ListInput) (*casetracking.ExportResult, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*casetracking.ExportResult)
	return v, args.Error(1)
}

type mockWorkflowService struct {
	mock.Mock
}

func (m *mockWorkflowService) Get(ctx context.Context, projectID string) (*casetracking.WorkflowView, error) {
	args := m.Called(ctx, projectID)
	v, _ := args.Get(0).(*casetracking.WorkflowView)
	return v, args.Error(1)
}

func (m *mockWorkflowService) Instantiate(ctx context.Context, in casetracking.InstantiateInput) (*casetracking.WorkflowView, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*casetracking.WorkflowView)
	return v, args.Error(1)
}

func (m *mockWorkflowService) SetStepDone(ctx context.Context, stepID string, done bool, completion *time.Time) (*workflow.StepView, error) {
	args := m.Called(ctx, stepID, done, completion)
	v, _ := args.Get(0).(*workflow.StepView)
	return v, args.Error(1)
}

func (m *mockWorkflowService) UpdateStepDates(ctx context.Context, stepID string, start, completion *time.Time) (*workflow.StepView, error) {
	args := m.Called(ctx, stepID, start, completion)
	v, _ := args.Get(0).(*workflow.StepView)
	return v, args.Error(1)
}

func (m *mockWorkflowService) Templates() []workflow.Template {
	return m.Called().Get(0).([]workflow.Template)
}

// withURLParams attaches chi route parameters as the router would.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

//Personal.AI order the ending
