package casetracking

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// ---------------------------------------------------------------------------
// In-memory case repository
// ---------------------------------------------------------------------------

type memCaseRepo struct {
	mu        sync.Mutex
	cases     map[string]*casefile.Case
	snapshots map[string]casefile.Snapshot
	listErr   error
	saveErr   error
	updates   int
}

func newMemCaseRepo(cases ...*casefile.Case) *memCaseRepo {
	r := &memCaseRepo{cases: map[string]*casefile.Case{}, snapshots: map[string]casefile.Snapshot{}}
	for _, c := range cases {
		r.cases[c.ID] = c
	}
	return r
}

func (r *memCaseRepo) Create(_ context.Context, c *casefile.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; ok {
		return errors.New(errors.CodeCaseAlreadyExists, "case already exists").WithDetail("case_id=" + c.ID)
	}
	cp := *c
	r.cases[c.ID] = &cp
	return nil
}

func (r *memCaseRepo) Update(_ context.Context, c *casefile.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; !ok {
		return errors.New(errors.CodeCaseNotFound, "case not found").WithDetail("case_id=" + c.ID)
	}
	cp := *c
	r.cases[c.ID] = &cp
	r.updates++
	return nil
}

func (r *memCaseRepo) GetByID(_ context.Context, id string) (*casefile.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, errors.New(errors.CodeCaseNotFound, "case not found").WithDetail("case_id=" + id)
	}
	cp := *c
	return &cp, nil
}

func (r *memCaseRepo) List(_ context.Context, f casefile.Filter) ([]*casefile.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*casefile.Case
	for _, c := range r.cases {
		if len(f.Statuses) > 0 && !containsStatus(f, c) {
			continue
		}
		if len(f.Priorities) > 0 && !containsPriority(f, c) {
			continue
		}
		if f.CaseType != "" && !strings.EqualFold(f.CaseType, c.CaseType) {
			continue
		}
		if f.Department != "" && !strings.EqualFold(f.Department, c.Department) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func containsStatus(f casefile.Filter, c *casefile.Case) bool {
	for _, s := range f.Statuses {
		if s == c.Status {
			return true
		}
	}
	return false
}

func containsPriority(f casefile.Filter, c *casefile.Case) bool {
	for _, p := range f.Priorities {
		if p == c.Priority {
			return true
		}
	}
	return false
}

func (r *memCaseRepo) LoadSnapshots(_ context.Context) (map[string]casefile.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]casefile.Snapshot, len(r.snapshots))
	for k, v := range r.snapshots {
		out[k] = v
	}
	return out, nil
}

func (r *memCaseRepo) SaveSnapshots(_ context.Context, snapshots []casefile.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, s := range snapshots {
		r.snapshots[s.CaseID] = s
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory workflow repository
// ---------------------------------------------------------------------------

type memWorkflowRepo struct {
	mu       sync.Mutex
	projects map[string]*workflow.Project
	steps    map[string]*workflow.Step
	saved    []workflow.ProjectStatus
}

func newMemWorkflowRepo() *memWorkflowRepo {
	return &memWorkflowRepo{projects: map[string]*workflow.Project{}, steps: map[string]*workflow.Step{}}
}

func (r *memWorkflowRepo) CreateProject(_ context.Context, p *workflow.Project, steps []workflow.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; ok {
		return errors.New(errors.CodeWorkflowExists, "workflow exists")
	}
	cp := *p
	r.projects[p.ID] = &cp
	for i := range steps {
		st := steps[i]
		r.steps[st.ID] = &st
	}
	return nil
}

func (r *memWorkflowRepo) GetProject(_ context.Context, projectID string) (*workflow.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return nil, errors.New(errors.CodeProjectNotFound, "project not found")
	}
	cp := *p
	return &cp, nil
}

func (r *memWorkflowRepo) SaveProjectStatus(_ context.Context, projectID string, status workflow.ProjectStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return errors.New(errors.CodeProjectNotFound, "project not found")
	}
	p.Status = status
	r.saved = append(r.saved, status)
	return nil
}

func (r *memWorkflowRepo) ListSteps(_ context.Context, projectID string) ([]workflow.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []workflow.Step
	for _, st := range r.steps {
		if st.ProjectID == projectID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *memWorkflowRepo) GetStep(_ context.Context, stepID string) (*workflow.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.steps[stepID]
	if !ok {
		return nil, errors.New(errors.CodeStepNotFound, "step not found")
	}
	cp := *st
	return &cp, nil
}

func (r *memWorkflowRepo) UpdateStep(_ context.Context, stepID string, mutate workflow.StepMutation) (*workflow.Step, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.steps[stepID]
	if !ok {
		return nil, errors.New(errors.CodeStepNotFound, "step not found")
	}
	next := *st
	if err := mutate(&next); err != nil {
		return nil, err
	}
	*st = next
	out := next
	return &out, nil
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEscalations(ctx context.Context, escalations []casefile.Escalation) error {
	return m.Called(ctx, escalations).Error(0)
}

func (m *mockPublisher) PublishWorkflowChange(ctx context.Context, change workflow.StatusChange) error {
	return m.Called(ctx, change).Error(0)
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) IndexViews(ctx context.Context, views []casefile.View) (*common.BulkResult, error) {
	args := m.Called(ctx, views)
	res, _ := args.Get(0).(*common.BulkResult)
	return res, args.Error(1)
}

// memCache is a JSON round-tripping CachePort.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	loads   int
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) GetOrLoad(ctx context.Context, key string, dest interface{}, _ time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		v, err := loader(ctx)
		if err != nil {
			return err
		}
		if data, err = json.Marshal(v); err != nil {
			return err
		}
		c.mu.Lock()
		c.entries[key] = data
		c.loads++
		c.mu.Unlock()
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	c.deletes++
	return n, nil
}

// recordingMetrics keeps the observations a test asserts on.
type recordingMetrics struct {
	mu            sync.Mutex
	summaries     []casefile.Summary
	escalations   int
	recomputes    []string
	recomputeErrs int
	caseFailures  []string
	toggles       []bool
	projectStatus []string
	cacheHits     int
	cacheMisses   int
}

func (m *recordingMetrics) ObserveSummary(s casefile.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
}

func (m *recordingMetrics) ObserveEscalations(e []casefile.Escalation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations += len(e)
}

func (m *recordingMetrics) ObserveRecompute(trigger string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputes = append(m.recomputes, trigger)
	if err != nil {
		m.recomputeErrs++
	}
}

func (m *recordingMetrics) ObserveCaseFailure(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caseFailures = append(m.caseFailures, code)
}

func (m *recordingMetrics) ObserveStepToggle(done bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles = append(m.toggles, done)
}

func (m *recordingMetrics) ObserveProjectStatus(to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projectStatus = append(m.projectStatus, to)
}

func (m *recordingMetrics) ObserveCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

//Personal.AI order the ending
