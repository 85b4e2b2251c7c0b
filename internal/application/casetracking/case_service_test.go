package casetracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/testutil"
	"github.com/turtacn/casetrack/pkg/errors"
)

func newTestCaseService(repo casefile.Repository, opts ...Option) CaseService {
	return NewCaseService(repo, testutil.Clock(), testutil.NewMockLogger(), opts...)
}

// seedCases returns cases spread over the Medium tiers as of FixedNow.
func seedCases() []*casefile.Case {
	within := testutil.NewCase("C-001", 3)
	atRisk := testutil.NewCase("C-002", 12)
	critical := testutil.NewCase("C-003", 13)
	overdue := testutil.NewCase("C-004", 20)
	overdue.Priority = sla.PriorityHigh
	signed := testutil.NewCase("C-005", 10)
	signed.Status = sla.StatusApprovedSigned
	signed.SignedDate = testutil.Date(2024, 6, 5)
	return []*casefile.Case{within, atRisk, critical, overdue, signed}
}

func TestCaseService_Get(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))

	v, err := svc.Get(context.Background(), "C-002")
	require.NoError(t, err)
	require.NotNil(t, v.Derived)
	assert.Equal(t, 12, v.Derived.DaysInProcess)
	assert.Equal(t, sla.SLAAtRisk, v.Derived.SLAStatus)
	assert.Nil(t, v.Error)
}

func TestCaseService_Get_NotFoundAndBlankID(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo())

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))

	_, err = svc.Get(context.Background(), "  ")
	assert.True(t, errors.IsValidation(err))
}

func TestCaseService_Get_DerivationFailureIsData(t *testing.T) {
	broken := testutil.NewCase("C-BAD", 5)
	broken.FirstQueryIssuedDate = testutil.Date(2024, 6, 8)
	broken.FirstQueryResponseDate = testutil.Date(2024, 6, 1)
	svc := newTestCaseService(newMemCaseRepo(broken))

	v, err := svc.Get(context.Background(), "C-BAD")
	require.NoError(t, err)
	assert.Nil(t, v.Derived)
	require.NotNil(t, v.Error)
	assert.Equal(t, string(errors.CodeInvalidDateOrder), v.Error.Code)
}

func TestCaseService_List_SortAndPage(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))

	page, err := svc.List(context.Background(), ListInput{SortBy: "days", SortOrder: "desc", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "C-004", page.Items[0].Case.ID)
	assert.Equal(t, "C-003", page.Items[1].Case.ID)

	page, err = svc.List(context.Background(), ListInput{SortBy: "days", SortOrder: "desc", PageSize: 2, Page: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}

func TestCaseService_List_DefaultOrderIsCaseID(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))

	page, err := svc.List(context.Background(), ListInput{})
	require.NoError(t, err)
	ids := make([]string, len(page.Items))
	for i, it := range page.Items {
		ids[i] = it.Case.ID
	}
	assert.Equal(t, []string{"C-001", "C-002", "C-003", "C-004", "C-005"}, ids)
}

func TestCaseService_List_Filters(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))
	ctx := context.Background()

	tests := []struct {
		name string
		in   ListInput
		want []string
	}{
		{"in process only", ListInput{InProcessOnly: true}, []string{"C-001", "C-002", "C-003", "C-004"}},
		{"sla status", ListInput{SLAStatuses: []string{"Overdue", "Critical"}}, []string{"C-003", "C-004"}},
		{"priority", ListInput{Priorities: []string{"High"}}, []string{"C-004"}},
		{"status", ListInput{Statuses: []string{"ApprovedSigned"}}, []string{"C-005"}},
		{"deadline bucket", ListInput{DeadlineBuckets: []string{"noDeadline"}, InProcessOnly: true}, []string{"C-001", "C-002", "C-003", "C-004"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.in)
			require.NoError(t, err)
			got := make([]string, len(page.Items))
			for i, it := range page.Items {
				got[i] = it.Case.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaseService_List_DeadlineFilterMatchesDashboard(t *testing.T) {
	active := testutil.NewCase("C-A", 5)
	active.Deadline = testutil.Date(2024, 6, 1)
	signed := testutil.NewCase("C-T", 5)
	signed.Deadline = testutil.Date(2024, 6, 1)
	signed.Status = sla.StatusApprovedSigned
	signed.SignedDate = testutil.Date(2024, 6, 9)
	svc := newTestCaseService(newMemCaseRepo(active, signed))
	ctx := context.Background()

	page, err := svc.List(ctx, ListInput{DeadlineBuckets: []string{"overdue"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "C-A", page.Items[0].Case.ID)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(page.Items), d.Summary.Deadlines.Overdue)
}

func TestCaseService_List_RejectsUnknownVocabulary(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))
	ctx := context.Background()

	for _, in := range []ListInput{
		{Priorities: []string{"Whenever"}},
		{SLAStatuses: []string{"Late"}},
		{SortBy: "colour"},
		{SortOrder: "sideways"},
		{DeadlineBuckets: []string{"someday"}},
	} {
		_, err := svc.List(ctx, in)
		assert.True(t, errors.IsValidation(err), "input %+v", in)
	}
}

func TestCaseService_Create(t *testing.T) {
	repo := newMemCaseRepo()
	cache := newMemCache()
	svc := newTestCaseService(repo, WithCache(cache, 0))

	v, err := svc.Create(context.Background(), CreateInput{
		CaseID:        "C-100",
		CaseType:      "Transfer",
		Priority:      "Urgent",
		SubmittedDate: testutil.Date(2024, 6, 8),
		ReceivedDate:  testutil.Date(2024, 6, 9),
	})
	require.NoError(t, err)
	assert.Equal(t, sla.StatusPendingReview, v.Case.Status)
	require.NotNil(t, v.Derived)
	assert.Equal(t, 2, v.Derived.DaysInProcess)
	assert.Equal(t, 3, v.Derived.OverallSLADays)
	assert.Equal(t, 1, cache.deletes)

	_, err = repo.GetByID(context.Background(), "C-100")
	assert.NoError(t, err)
}

func TestCaseService_Create_Validation(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{CaseID: "C-1", CaseType: "T", Priority: "High", ReceivedDate: testutil.Date(2024, 6, 1)})
	assert.True(t, errors.IsCode(err, errors.CodeMissingRequiredDate))

	_, err = svc.Create(ctx, CreateInput{CaseID: "C-1", CaseType: "T", Priority: "High", SubmittedDate: testutil.Date(2024, 6, 1)})
	assert.True(t, errors.IsCode(err, errors.CodeMissingRequiredDate))

	_, err = svc.Create(ctx, CreateInput{CaseID: "C-1", CaseType: "T", Priority: "Someday"})
	assert.True(t, errors.IsCode(err, errors.CodeUnknownEnumValue))
}

func TestCaseService_Create_GeneratesID(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo())

	v, err := svc.Create(context.Background(), CreateInput{
		CaseType:      "T",
		Priority:      "Low",
		SubmittedDate: testutil.Date(2024, 6, 1),
		ReceivedDate:  testutil.Date(2024, 6, 1),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^CASE-`, v.Case.ID)
}

func TestCaseService_Update(t *testing.T) {
	repo := newMemCaseRepo(testutil.NewCase("C-001", 5))
	svc := newTestCaseService(repo)
	high := "High"
	title := "  Renamed "

	v, err := svc.Update(context.Background(), UpdateInput{
		CaseID:   "C-001",
		Priority: &high,
		Title:    &title,
		Dates: map[string]*time.Time{
			FieldFirstQueryIssuedDate: testutil.Date(2024, 6, 7),
			FieldDeadline:             testutil.Date(2024, 6, 12),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", v.Case.Title)
	assert.Equal(t, sla.PriorityHigh, v.Case.Priority)
	require.NotNil(t, v.Derived)
	assert.Equal(t, 3, v.Derived.FirstQueryPendingDays)
	assert.Equal(t, sla.DeadlineThisWeek, v.Derived.DeadlineBucket)

	v, err = svc.Update(context.Background(), UpdateInput{CaseID: "C-001", Clear: []string{FieldDeadline}})
	require.NoError(t, err)
	assert.Nil(t, v.Case.Deadline)
	assert.Equal(t, 2, repo.updates)
}

func TestCaseService_Update_RejectsBadInput(t *testing.T) {
	repo := newMemCaseRepo(testutil.NewCase("C-001", 5))
	svc := newTestCaseService(repo)
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateInput{CaseID: "C-001", Clear: []string{"favourite_date"}})
	assert.True(t, errors.IsCode(err, errors.CodeUnknownEnumValue))

	_, err = svc.Update(ctx, UpdateInput{CaseID: "C-001", Clear: []string{FieldSubmittedDate}})
	assert.True(t, errors.IsCode(err, errors.CodeMissingRequiredDate))

	_, err = svc.Update(ctx, UpdateInput{CaseID: "C-001", Dates: map[string]*time.Time{
		FieldSignedDate: testutil.Date(2024, 1, 1),
	}})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidDateOrder))
	assert.Equal(t, 0, repo.updates)
}

func TestCaseService_Transition_TerminalStampsSignedDate(t *testing.T) {
	repo := newMemCaseRepo(testutil.NewCase("C-001", 20))
	svc := newTestCaseService(repo)

	v, err := svc.Transition(context.Background(), "C-001", "ApprovedSigned", nil)
	require.NoError(t, err)
	require.NotNil(t, v.Case.SignedDate)
	assert.Equal(t, sla.Today(testutil.Clock()), *v.Case.SignedDate)
	assert.Equal(t, sla.SLACompletedOverdue, v.Derived.SLAStatus)
	assert.Equal(t, 20, v.Derived.DaysInProcess)
}

func TestCaseService_Transition_ExplicitDateAndQueryCycle(t *testing.T) {
	repo := newMemCaseRepo(testutil.NewCase("C-001", 5))
	svc := newTestCaseService(repo)
	ctx := context.Background()

	v, err := svc.Transition(ctx, "C-001", "DeptQuery(FirstStage)", testutil.Date(2024, 6, 8))
	require.NoError(t, err)
	assert.Equal(t, *testutil.Date(2024, 6, 8), *v.Case.FirstQueryIssuedDate)
	assert.Equal(t, 2, v.Derived.FirstQueryPendingDays)

	v, err = svc.Transition(ctx, "C-001", "InProcess", nil)
	require.NoError(t, err)
	require.NotNil(t, v.Case.FirstQueryResponseDate)
	assert.Equal(t, 0, v.Derived.FirstQueryPendingDays)
}

func TestCaseService_Transition_UnknownStatus(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(testutil.NewCase("C-001", 5)))
	_, err := svc.Transition(context.Background(), "C-001", "Archived", nil)
	assert.True(t, errors.IsCode(err, errors.CodeUnknownEnumValue))
}

func TestCaseService_Dashboard(t *testing.T) {
	svc := newTestCaseService(newMemCaseRepo(seedCases()...))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", d.Date)
	assert.Equal(t, 5, d.Summary.Total)
	assert.Equal(t, 4, d.Summary.Active)
	assert.Equal(t, 1, d.Summary.Terminal)
	assert.Equal(t, 1, d.Summary.BySLAStatus[sla.SLAOverdue])
	assert.Equal(t, 1, d.Summary.BySLAStatus[sla.SLACompleted])
	assert.Equal(t, 3, d.Summary.ByPriority[sla.PriorityMedium])
	assert.Equal(t, 4, d.Summary.Deadlines.NoDeadline)
}

func TestCaseService_Dashboard_CachedPerDay(t *testing.T) {
	repo := newMemCaseRepo(seedCases()...)
	cache := newMemCache()
	metrics := &recordingMetrics{}
	svc := newTestCaseService(repo, WithCache(cache, 0), WithMetrics(metrics))
	ctx := context.Background()

	first, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	second, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, 1, cache.loads)
	assert.Equal(t, 1, metrics.cacheMisses)
	assert.Equal(t, 1, metrics.cacheHits)

	_, err = svc.Transition(ctx, "C-001", "NotApproved", nil)
	require.NoError(t, err)
	third, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.loads)
	assert.Equal(t, 2, third.Summary.Terminal)
}

func TestCaseService_Dashboard_StoreError(t *testing.T) {
	repo := newMemCaseRepo()
	repo.listErr = errors.New(errors.ErrCodeDatabaseError, "down")
	svc := newTestCaseService(repo)

	_, err := svc.Dashboard(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

//Personal.AI order the ending
