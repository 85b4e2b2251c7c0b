package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/application/casetracking"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/database/sqlite"
	httpserver "github.com/turtacn/casetrack/internal/interfaces/http"
	"github.com/turtacn/casetrack/internal/interfaces/http/handlers"
	"github.com/turtacn/casetrack/internal/testutil"
	"github.com/turtacn/casetrack/pkg/client"
)

// newServerClient runs the real router over an in-memory store as of
// 2024-06-10.
func newServerClient(t *testing.T) *client.Client {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath, testutil.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := testutil.NewMockLogger()
	clock := testutil.Clock()
	tmpl := workflow.Template{Name: "fit-out", Steps: []workflow.TemplateStep{{Title: "Survey", SLATargetDays: 5}, {Title: "Build", SLATargetDays: 10}}}
	router := httpserver.NewRouter(httpserver.RouterConfig{
		CaseHandler:     handlers.NewCaseHandler(casetracking.NewCaseService(sqlite.NewCaseRepository(store), clock, log), nil, log),
		WorkflowHandler: handlers.NewWorkflowHandler(casetracking.NewWorkflowService(sqlite.NewWorkflowRepository(store), clock, []workflow.Template{tmpl}, log), log),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	c, err := client.NewClient(srv.URL, client.WithRetryMax(0))
	require.NoError(t, err)
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEndToEnd_CaseLifecycle(t *testing.T) {
	ctx := context.Background()
	cases := newServerClient(t).Cases()

	created, err := cases.Create(ctx, client.CreateCaseRequest{
		CaseID:        "C-1",
		CaseType:      "Appointment",
		Priority:      "Medium",
		SubmittedDate: day(2024, 5, 29),
		ReceivedDate:  day(2024, 5, 29),
	})
	require.NoError(t, err)
	assert.Equal(t, "PendingReview", created.Case.Status)
	require.NotNil(t, created.Derived)
	assert.Equal(t, 12, created.Derived.DaysInProcess)
	assert.Equal(t, "AtRisk", created.Derived.SLAStatus)

	_, err = cases.Create(ctx, client.CreateCaseRequest{
		CaseID: "C-1", CaseType: "Appointment", Priority: "Medium",
		SubmittedDate: day(2024, 5, 29), ReceivedDate: day(2024, 5, 29),
	})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())

	page, err := cases.List(ctx, client.ListOptions{SLAStatuses: []string{"AtRisk"}})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	signed := day(2024, 6, 9)
	done, err := cases.Transition(ctx, "C-1", "ApprovedSigned", &signed)
	require.NoError(t, err)
	assert.Equal(t, "Completed", done.Derived.SLAStatus)
	assert.Equal(t, 11, done.Derived.DaysInProcess)

	dash, err := cases.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", dash.Date)
	assert.Equal(t, 1, dash.Summary.Terminal)

	report, err := cases.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	_, err = cases.Get(ctx, "C-404")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	_, err = cases.Export(ctx, client.ListOptions{})
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound(), "export is not mounted without object storage")
}

func TestEndToEnd_Workflow(t *testing.T) {
	ctx := context.Background()
	wf := newServerClient(t).Workflows()

	templates, err := wf.Templates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "fit-out", templates[0].Name)

	view, err := wf.Instantiate(ctx, "P-1", client.InstantiateRequest{Name: "Tower A", TemplateName: "fit-out"})
	require.NoError(t, err)
	require.Len(t, view.Steps, 2)
	assert.Equal(t, 2, view.Total)

	start := day(2024, 6, 3)
	step, err := wf.UpdateStepDates(ctx, view.Steps[0].ID, &start, nil)
	require.NoError(t, err)
	require.NotNil(t, step.DaysElapsed)
	assert.Equal(t, 7, *step.DaysElapsed)
	assert.True(t, step.IsOverdue)

	step, err = wf.SetStepDone(ctx, view.Steps[0].ID, true, nil)
	require.NoError(t, err)
	assert.True(t, step.IsDone)

	view, err = wf.Get(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Done)
	assert.Equal(t, "Tower A", view.Project.Name)
}

//Personal.AI order the ending
