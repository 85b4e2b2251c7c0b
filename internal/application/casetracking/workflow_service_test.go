package casetracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/testutil"
	"github.com/turtacn/casetrack/pkg/errors"
)

var fitOut = workflow.Template{
	Name: "fit-out",
	Steps: []workflow.TemplateStep{
		{Title: "Survey", SLATargetDays: 5},
		{Title: "Design", SLATargetDays: 5},
		{Title: "Build", SLATargetDays: 10},
	},
}

func newTestWorkflowService(repo workflow.Repository, opts ...Option) WorkflowService {
	return NewWorkflowService(repo, testutil.Clock(), []workflow.Template{fitOut}, testutil.NewMockLogger(), opts...)
}

func changeTo(from, to workflow.ProjectStatus) interface{} {
	return mock.MatchedBy(func(c workflow.StatusChange) bool {
		return c.Previous == from && c.Current == to
	})
}

func TestWorkflowService_InstantiateByName(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc := newTestWorkflowService(repo)

	v, err := svc.Instantiate(context.Background(), InstantiateInput{ProjectID: "P-1", Name: "Lobby", TemplateName: "fit-out"})
	require.NoError(t, err)

	assert.Equal(t, "P-1", v.Project.ID)
	assert.Equal(t, "fit-out", v.Project.TemplateName)
	assert.Equal(t, workflow.ProjectOnTrack, v.Project.Status)
	assert.Equal(t, 0, v.Done)
	assert.Equal(t, 3, v.Total)
	require.Len(t, v.Steps, 3)
	for i, st := range v.Steps {
		assert.Equal(t, i+1, st.StepOrder)
		assert.Equal(t, workflow.StateNotStarted, st.State)
		assert.Nil(t, st.DaysElapsed)
		assert.NotEmpty(t, st.ID)
	}
	assert.Equal(t, "Survey", v.Steps[0].Title)
}

func TestWorkflowService_InstantiateInlineWins(t *testing.T) {
	svc := newTestWorkflowService(newMemWorkflowRepo())
	inline := &workflow.Template{Name: "quick", Steps: []workflow.TemplateStep{{Title: "Only", SLATargetDays: 1}}}

	v, err := svc.Instantiate(context.Background(), InstantiateInput{ProjectID: "P-2", TemplateName: "fit-out", Template: inline})
	require.NoError(t, err)
	assert.Equal(t, "quick", v.Project.TemplateName)
	assert.Equal(t, 1, v.Total)
}

func TestWorkflowService_InstantiateErrors(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc := newTestWorkflowService(repo)
	ctx := context.Background()

	_, err := svc.Instantiate(ctx, InstantiateInput{TemplateName: "fit-out"})
	assert.True(t, errors.IsValidation(err))

	_, err = svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1"})
	assert.True(t, errors.IsCode(err, errors.CodeTemplateInvalid))

	_, err = svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "nope"})
	assert.True(t, errors.IsCode(err, errors.CodeTemplateInvalid))

	_, err = svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", Template: &workflow.Template{Name: "empty"}})
	assert.True(t, errors.IsCode(err, errors.CodeTemplateInvalid))

	_, err = svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	require.NoError(t, err)
	_, err = svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	assert.True(t, errors.IsCode(err, errors.CodeWorkflowExists))
}

func TestWorkflowService_StepLifecycleDrivesRollup(t *testing.T) {
	repo := newMemWorkflowRepo()
	pub := new(mockPublisher)
	pub.On("PublishWorkflowChange", mock.Anything, changeTo(workflow.ProjectOnTrack, workflow.ProjectDelayed)).Return(nil)
	pub.On("PublishWorkflowChange", mock.Anything, changeTo(workflow.ProjectDelayed, workflow.ProjectOnTrack)).Return(nil)
	metrics := &recordingMetrics{}
	svc := newTestWorkflowService(repo, WithPublisher(pub), WithMetrics(metrics))
	ctx := context.Background()

	v, err := svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	require.NoError(t, err)
	survey := v.Steps[0].ID

	// Started ten days ago against a five day target.
	sv, err := svc.UpdateStepDates(ctx, survey, testutil.Date(2024, 5, 31), nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateRunning, sv.State)
	require.NotNil(t, sv.DaysElapsed)
	assert.Equal(t, 10, *sv.DaysElapsed)
	assert.True(t, sv.IsOverdue)

	sv, err = svc.SetStepDone(ctx, survey, true, testutil.Date(2024, 6, 3))
	require.NoError(t, err)
	assert.Equal(t, workflow.StateDone, sv.State)
	require.NotNil(t, sv.FrozenDaysElapsed)
	assert.Equal(t, 3, *sv.FrozenDaysElapsed)
	assert.False(t, sv.IsOverdue)

	sv, err = svc.SetStepDone(ctx, survey, false, nil)
	require.NoError(t, err)
	assert.Nil(t, sv.FrozenDaysElapsed)
	assert.Equal(t, 10, *sv.DaysElapsed)
	require.NotNil(t, sv.CompletionDate)

	assert.Equal(t, []workflow.ProjectStatus{workflow.ProjectDelayed, workflow.ProjectOnTrack, workflow.ProjectDelayed}, repo.saved)
	assert.Equal(t, []bool{true, false}, metrics.toggles)
	assert.Equal(t, []string{"delayed", "on-track", "delayed"}, metrics.projectStatus)
	pub.AssertNumberOfCalls(t, "PublishWorkflowChange", 3)
}

func TestWorkflowService_AllDoneCompletes(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc := newTestWorkflowService(repo)
	ctx := context.Background()

	v, err := svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	require.NoError(t, err)
	for _, st := range v.Steps {
		_, err := svc.SetStepDone(ctx, st.ID, true, nil)
		require.NoError(t, err)
	}

	got, err := svc.Get(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.ProjectCompleted, got.Project.Status)
	assert.Equal(t, 3, got.Done)
	for _, st := range got.Steps {
		require.NotNil(t, st.FrozenDaysElapsed)
		assert.Equal(t, 0, *st.FrozenDaysElapsed)
		assert.Equal(t, testutil.Date(2024, 6, 10), st.CompletionDate)
	}
}

func TestWorkflowService_UpdateStepDatesRefreezesDoneStep(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc := newTestWorkflowService(repo)
	ctx := context.Background()

	v, err := svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	require.NoError(t, err)
	id := v.Steps[1].ID

	_, err = svc.UpdateStepDates(ctx, id, testutil.Date(2024, 6, 1), nil)
	require.NoError(t, err)
	sv, err := svc.SetStepDone(ctx, id, true, testutil.Date(2024, 6, 4))
	require.NoError(t, err)
	assert.Equal(t, 3, *sv.FrozenDaysElapsed)

	sv, err = svc.UpdateStepDates(ctx, id, testutil.Date(2024, 5, 28), testutil.Date(2024, 6, 4))
	require.NoError(t, err)
	assert.Equal(t, 7, *sv.FrozenDaysElapsed)
}

func TestWorkflowService_StepErrors(t *testing.T) {
	repo := newMemWorkflowRepo()
	svc := newTestWorkflowService(repo)
	ctx := context.Background()

	v, err := svc.Instantiate(ctx, InstantiateInput{ProjectID: "P-1", TemplateName: "fit-out"})
	require.NoError(t, err)
	id := v.Steps[0].ID

	_, err = svc.SetStepDone(ctx, "missing", true, nil)
	assert.True(t, errors.IsCode(err, errors.CodeStepNotFound))

	_, err = svc.SetStepDone(ctx, " ", true, nil)
	assert.True(t, errors.IsValidation(err))

	_, err = svc.UpdateStepDates(ctx, id, testutil.Date(2024, 6, 5), testutil.Date(2024, 6, 1))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidDateOrder))

	_, err = svc.UpdateStepDates(ctx, id, testutil.Date(2024, 6, 5), nil)
	require.NoError(t, err)
	_, err = svc.SetStepDone(ctx, id, true, testutil.Date(2024, 6, 1))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidDateOrder))

	st, err := repo.GetStep(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.IsDone)
	assert.Nil(t, st.FrozenDaysElapsed)
}

func TestWorkflowService_GetRefreshesStaleStatus(t *testing.T) {
	repo := newMemWorkflowRepo()
	steps := testutil.NewSteps("P-9", 2)
	steps[0].StartDate = testutil.Date(2024, 5, 20)
	require.NoError(t, repo.CreateProject(context.Background(), &workflow.Project{ID: "P-9", Status: workflow.ProjectOnTrack}, steps))

	pub := new(mockPublisher)
	pub.On("PublishWorkflowChange", mock.Anything, changeTo(workflow.ProjectOnTrack, workflow.ProjectDelayed)).Return(assert.AnError)
	svc := newTestWorkflowService(repo, WithPublisher(pub))

	v, err := svc.Get(context.Background(), "P-9")
	require.NoError(t, err)
	assert.Equal(t, workflow.ProjectDelayed, v.Project.Status)
	assert.Equal(t, []workflow.ProjectStatus{workflow.ProjectDelayed}, repo.saved)
	pub.AssertExpectations(t)

	_, err = svc.Get(context.Background(), "P-404")
	assert.True(t, errors.IsCode(err, errors.CodeProjectNotFound))
}

func TestWorkflowService_Templates(t *testing.T) {
	extra := workflow.Template{Name: "audit", Steps: []workflow.TemplateStep{{Title: "Review", SLATargetDays: 2}}}
	svc := NewWorkflowService(newMemWorkflowRepo(), testutil.Clock(), []workflow.Template{fitOut, extra}, testutil.NewMockLogger())

	got := svc.Templates()
	require.Len(t, got, 2)
	assert.Equal(t, "audit", got[0].Name)
	assert.Equal(t, "fit-out", got[1].Name)
}

//Personal.AI order the ending
