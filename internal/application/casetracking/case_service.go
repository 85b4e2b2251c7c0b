package casetracking

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// ListInput selects, orders and pages the case table. Vocabulary values are
// raw strings and are validated by the service.
type ListInput struct {
	Statuses        []string `json:"statuses,omitempty"`
	Priorities      []string `json:"priorities,omitempty"`
	SLAStatuses     []string `json:"sla_statuses,omitempty"`
	DeadlineBuckets []string `json:"deadline_buckets,omitempty"`
	InProcessOnly   bool     `json:"in_process_only,omitempty"`
	CaseType        string   `json:"case_type,omitempty"`
	Department      string   `json:"department,omitempty"`
	SortBy          string   `json:"sort_by,omitempty"`
	SortOrder       string   `json:"sort_order,omitempty"`
	Page            int      `json:"page,omitempty"`
	PageSize        int      `json:"page_size,omitempty"`
}

// CreateInput registers a new case. Submitted and received dates are required.
type CreateInput struct {
	CaseID        string     `json:"case_id"`
	CaseType      string     `json:"case_type"`
	Title         string     `json:"title,omitempty"`
	Department    string     `json:"department,omitempty"`
	AssignedTo    string     `json:"assigned_to,omitempty"`
	Priority      string     `json:"priority"`
	Remarks       string     `json:"remarks,omitempty"`
	SubmittedDate *time.Time `json:"submitted_date"`
	ReceivedDate  *time.Time `json:"received_date"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

// Date fields an UpdateInput can set or clear.
const (
	FieldSubmittedDate           = "submitted_date"
	FieldReceivedDate            = "received_date"
	FieldFirstQueryIssuedDate    = "first_query_issued_date"
	FieldFirstQueryResponseDate  = "first_query_response_date"
	FieldSecondQueryIssuedDate   = "second_query_issued_date"
	FieldSecondQueryResponseDate = "second_query_response_date"
	FieldSubmittedToHigherDate   = "submitted_to_higher_date"
	FieldSignedDate              = "signed_date"
	FieldDeadline                = "deadline"
)

// UpdateInput edits a case. Nil fields are left unchanged; Dates sets date
// fields and Clear empties them, both keyed by the Field* names.
type UpdateInput struct {
	CaseID     string                `json:"case_id"`
	Title      *string               `json:"title,omitempty"`
	Department *string               `json:"department,omitempty"`
	AssignedTo *string               `json:"assigned_to,omitempty"`
	Priority   *string               `json:"priority,omitempty"`
	Remarks    *string               `json:"remarks,omitempty"`
	Dates      map[string]*time.Time `json:"dates,omitempty"`
	Clear      []string              `json:"clear,omitempty"`
}

// Dashboard is the aggregate view of the case table for one calendar day.
type Dashboard struct {
	Date        string           `json:"date"`
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     casefile.Summary `json:"summary"`
}

// CaseService is the application contract for case tracking.
type CaseService interface {
	Get(ctx context.Context, caseID string) (*CaseView, error)
	List(ctx context.Context, in ListInput) (*common.PageResponse[CaseView], error)
	Create(ctx context.Context, in CreateInput) (*CaseView, error)
	Update(ctx context.Context, in UpdateInput) (*CaseView, error)
	Transition(ctx context.Context, caseID, status string, at *time.Time) (*CaseView, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	Recompute(ctx context.Context, trigger string) (*RecomputeReport, error)
}

type caseServiceImpl struct {
	repo   casefile.Repository
	clock  sla.Clock
	ports  ports
	logger logging.Logger
}

// NewCaseService builds a CaseService over repo. clock decides "today".
func NewCaseService(repo casefile.Repository, clock sla.Clock, logger logging.Logger, opts ...Option) CaseService {
	return &caseServiceImpl{
		repo:   repo,
		clock:  clock,
		ports:  newPorts(opts),
		logger: logger.Named("case_service"),
	}
}

func (s *caseServiceImpl) Get(ctx context.Context, caseID string) (*CaseView, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, errors.InvalidParam("case id is required")
	}
	c, err := s.repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	v := toCaseView(casefile.NewView(c, s.clock.Now()))
	return &v, nil
}

func (s *caseServiceImpl) List(ctx context.Context, in ListInput) (*common.PageResponse[CaseView], error) {
	views, err := s.listViews(ctx, in)
	if err != nil {
		return nil, err
	}
	out := make([]CaseView, len(views))
	for i, v := range views {
		out[i] = toCaseView(v)
	}
	page := common.Paginate(out, common.Pagination{Page: in.Page, PageSize: in.PageSize})
	return &page, nil
}

// caseQuery is ListInput with its vocabulary resolved.
type caseQuery struct {
	filter      casefile.Filter
	slaStatuses map[sla.SLAStatus]bool
	buckets     map[sla.DeadlineBucket]bool
	activeOnly  bool
	sortKey     casefile.SortKey
	desc        bool
}

func parseListInput(in ListInput) (caseQuery, error) {
	q := caseQuery{
		filter: casefile.Filter{
			CaseType:   strings.TrimSpace(in.CaseType),
			Department: strings.TrimSpace(in.Department),
		},
		activeOnly: in.InProcessOnly,
	}
	for _, raw := range in.Statuses {
		st, err := sla.ParseStatus(raw)
		if err != nil {
			return q, err
		}
		q.filter.Statuses = append(q.filter.Statuses, st)
	}
	for _, raw := range in.Priorities {
		p, err := sla.ParsePriority(raw)
		if err != nil {
			return q, err
		}
		q.filter.Priorities = append(q.filter.Priorities, p)
	}
	if len(in.SLAStatuses) > 0 {
		q.slaStatuses = make(map[sla.SLAStatus]bool, len(in.SLAStatuses))
		for _, raw := range in.SLAStatuses {
			st, err := sla.ParseSLAStatus(raw)
			if err != nil {
				return q, err
			}
			q.slaStatuses[st] = true
		}
	}
	if len(in.DeadlineBuckets) > 0 {
		q.buckets = make(map[sla.DeadlineBucket]bool, len(in.DeadlineBuckets))
		for _, raw := range in.DeadlineBuckets {
			b, err := sla.ParseDeadlineBucket(raw)
			if err != nil {
				return q, err
			}
			q.buckets[b] = true
		}
	}
	key, err := casefile.ParseSortKey(in.SortBy)
	if err != nil {
		return q, err
	}
	order, err := common.ParseSortOrder(strings.ToLower(strings.TrimSpace(in.SortOrder)))
	if err != nil {
		return q, sla.UnknownEnumValue("sort order", in.SortOrder)
	}
	q.sortKey = key
	q.desc = order == common.SortDesc
	return q, nil
}

func (q caseQuery) match(v casefile.View) bool {
	if q.activeOnly && !v.Case.Status.IsActive() {
		return false
	}
	if q.slaStatuses != nil && (v.Derived == nil || !q.slaStatuses[v.Derived.SLAStatus]) {
		return false
	}
	if q.buckets != nil && (v.Derived == nil || !v.Case.Status.IsActive() || !q.buckets[v.Derived.DeadlineBucket]) {
		return false
	}
	return true
}

// listViews returns every matching case, derived as of now and sorted.
func (s *caseServiceImpl) listViews(ctx context.Context, in ListInput) ([]casefile.View, error) {
	q, err := parseListInput(in)
	if err != nil {
		return nil, err
	}
	cases, err := s.repo.List(ctx, q.filter)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	views := make([]casefile.View, 0, len(cases))
	for _, c := range cases {
		v := casefile.NewView(c, now)
		if q.match(v) {
			views = append(views, v)
		}
	}
	sla.Sort(views, casefile.Comparator(q.sortKey, q.desc))
	return views, nil
}

func (s *caseServiceImpl) Create(ctx context.Context, in CreateInput) (*CaseView, error) {
	priority, err := sla.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(in.CaseID)
	if id == "" {
		id = common.GenerateID("CASE")
	}
	if in.SubmittedDate == nil {
		return nil, sla.MissingRequiredDate("case_id", id, "submittedDate")
	}
	if in.ReceivedDate == nil {
		return nil, sla.MissingRequiredDate("case_id", id, "receivedDate")
	}
	c, err := casefile.NewCase(id, in.CaseType, priority, *in.SubmittedDate, *in.ReceivedDate)
	if err != nil {
		return nil, err
	}
	c.Title = strings.TrimSpace(in.Title)
	c.Department = strings.TrimSpace(in.Department)
	c.AssignedTo = strings.TrimSpace(in.AssignedTo)
	c.Remarks = in.Remarks
	c.Deadline = calendarPtr(in.Deadline)
	now := s.clock.Now()
	c.CreatedAt, c.UpdatedAt = now, now

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info("Case created", logging.CaseID(c.ID), logging.String("priority", string(c.Priority)))
	invalidateDashboard(ctx, s.ports, s.logger)

	v := toCaseView(casefile.NewView(c, now))
	return &v, nil
}

func (s *caseServiceImpl) Update(ctx context.Context, in UpdateInput) (*CaseView, error) {
	c, err := s.load(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		c.Title = strings.TrimSpace(*in.Title)
	}
	if in.Department != nil {
		c.Department = strings.TrimSpace(*in.Department)
	}
	if in.AssignedTo != nil {
		c.AssignedTo = strings.TrimSpace(*in.AssignedTo)
	}
	if in.Remarks != nil {
		c.Remarks = *in.Remarks
	}
	if in.Priority != nil {
		p, err := sla.ParsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		c.Priority = p
	}
	for field, d := range in.Dates {
		slot, err := dateSlot(c, field)
		if err != nil {
			return nil, err
		}
		*slot = calendarPtr(d)
	}
	for _, field := range in.Clear {
		slot, err := dateSlot(c, field)
		if err != nil {
			return nil, err
		}
		*slot = nil
	}
	return s.save(ctx, c, "Case updated")
}

func (s *caseServiceImpl) Transition(ctx context.Context, caseID, status string, at *time.Time) (*CaseView, error) {
	next, err := sla.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	day := sla.Today(s.clock)
	if at != nil {
		day = sla.CalendarDate(*at)
	}
	prev := c.Status
	if err := c.ApplyStatus(next, day); err != nil {
		return nil, err
	}
	s.logger.Debug("Case status transition",
		logging.CaseID(c.ID),
		logging.String("from", string(prev)),
		logging.String("to", string(next)))
	return s.save(ctx, c, "Case status changed")
}

func (s *caseServiceImpl) load(ctx context.Context, caseID string) (*casefile.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, errors.InvalidParam("case id is required")
	}
	return s.repo.GetByID(ctx, caseID)
}

// save validates c, persists it and drops the cached dashboards.
func (s *caseServiceImpl) save(ctx context.Context, c *casefile.Case, msg string) (*CaseView, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	c.UpdatedAt = now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info(msg, logging.CaseID(c.ID), logging.String("status", string(c.Status)))
	invalidateDashboard(ctx, s.ports, s.logger)

	v := toCaseView(casefile.NewView(c, now))
	return &v, nil
}

func (s *caseServiceImpl) Dashboard(ctx context.Context) (*Dashboard, error) {
	today := sla.Today(s.clock)
	load := func(ctx context.Context) (interface{}, error) {
		cases, err := s.repo.List(ctx, casefile.Filter{})
		if err != nil {
			return nil, err
		}
		now := s.clock.Now()
		views := make([]casefile.View, len(cases))
		for i, c := range cases {
			views[i] = casefile.NewView(c, now)
		}
		return &Dashboard{
			Date:        today.Format(sla.DateLayout),
			GeneratedAt: now,
			Summary:     casefile.Summarize(views),
		}, nil
	}

	if s.ports.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return v.(*Dashboard), nil
	}

	hit := true
	var d Dashboard
	err := s.ports.cache.GetOrLoad(ctx, dashboardKey(today), &d, s.ports.dashboardTTL, func(ctx context.Context) (interface{}, error) {
		hit = false
		return load(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.ports.metrics.ObserveCache(hit)
	return &d, nil
}

func dateSlot(c *casefile.Case, field string) (**time.Time, error) {
	switch field {
	case FieldSubmittedDate:
		return &c.SubmittedDate, nil
	case FieldReceivedDate:
		return &c.ReceivedDate, nil
	case FieldFirstQueryIssuedDate:
		return &c.FirstQueryIssuedDate, nil
	case FieldFirstQueryResponseDate:
		return &c.FirstQueryResponseDate, nil
	case FieldSecondQueryIssuedDate:
		return &c.SecondQueryIssuedDate, nil
	case FieldSecondQueryResponseDate:
		return &c.SecondQueryResponseDate, nil
	case FieldSubmittedToHigherDate:
		return &c.SubmittedToHigherDate, nil
	case FieldSignedDate:
		return &c.SignedDate, nil
	case FieldDeadline:
		return &c.Deadline, nil
	}
	return nil, sla.UnknownEnumValue("date field", field).WithDetail("case_id=" + c.ID)
}

func calendarPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := sla.CalendarDate(*t)
	return &d
}

//Personal.AI order the ending
