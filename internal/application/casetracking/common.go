// Package casetracking orchestrates the SLA engine with its stores and
// side channels: dashboard cache, escalation events, search index, exports
// and metrics. Every side channel is optional; a nil port is skipped.
package casetracking

import (
	"context"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
	"github.com/turtacn/casetrack/internal/domain/workflow"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/pkg/errors"
	"github.com/turtacn/casetrack/pkg/types/common"
)

// CachePort is the read-model cache. redis.Cache satisfies it.
type CachePort interface {
	GetOrLoad(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// EventPublisher emits domain events. kafka.EventPublisher satisfies it.
type EventPublisher interface {
	PublishEscalations(ctx context.Context, escalations []casefile.Escalation) error
	PublishWorkflowChange(ctx context.Context, change workflow.StatusChange) error
}

// CaseIndexer pushes derived case snapshots to the search index.
type CaseIndexer interface {
	IndexViews(ctx context.Context, views []casefile.View) (*common.BulkResult, error)
}

// MetricsRecorder receives service-level observations. prometheus.SLAMetrics
// satisfies it.
type MetricsRecorder interface {
	ObserveSummary(s casefile.Summary)
	ObserveEscalations(escalations []casefile.Escalation)
	ObserveRecompute(trigger string, d time.Duration, err error)
	ObserveCaseFailure(code string)
	ObserveStepToggle(done bool)
	ObserveProjectStatus(to string)
	ObserveCache(hit bool)
}

type ports struct {
	cache        CachePort
	dashboardTTL time.Duration
	publisher    EventPublisher
	indexer      CaseIndexer
	metrics      MetricsRecorder
}

// Option wires an optional port into a service.
type Option func(*ports)

func WithCache(c CachePort, ttl time.Duration) Option {
	return func(p *ports) {
		p.cache = c
		p.dashboardTTL = ttl
	}
}

func WithPublisher(pub EventPublisher) Option {
	return func(p *ports) { p.publisher = pub }
}

func WithIndexer(idx CaseIndexer) Option {
	return func(p *ports) { p.indexer = idx }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(p *ports) { p.metrics = m }
}

func newPorts(opts []Option) ports {
	p := ports{dashboardTTL: 5 * time.Minute}
	for _, opt := range opts {
		opt(&p)
	}
	if p.metrics == nil {
		p.metrics = nopMetrics{}
	}
	return p
}

type nopMetrics struct{}

func (nopMetrics) ObserveSummary(casefile.Summary)               {}
func (nopMetrics) ObserveEscalations([]casefile.Escalation)      {}
func (nopMetrics) ObserveRecompute(string, time.Duration, error) {}
func (nopMetrics) ObserveCaseFailure(string)                     {}
func (nopMetrics) ObserveStepToggle(bool)                        {}
func (nopMetrics) ObserveProjectStatus(string)                   {}
func (nopMetrics) ObserveCache(bool)                             {}

// ViewError is the serializable form of a derivation failure.
type ViewError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// CaseView is a case with its derived fields, or the reason they could not
// be derived. A failed derivation is data, not a request failure.
type CaseView struct {
	Case    *casefile.Case    `json:"case"`
	Derived *casefile.Derived `json:"derived,omitempty"`
	Error   *ViewError        `json:"error,omitempty"`
}

func toCaseView(v casefile.View) CaseView {
	out := CaseView{Case: v.Case, Derived: v.Derived}
	if v.Err != nil {
		out.Error = toViewError(v.Err)
	}
	return out
}

func toViewError(err error) *ViewError {
	ve := &ViewError{Code: string(errors.GetCode(err)), Message: err.Error()}
	var ae *errors.AppError
	if errors.As(err, &ae) {
		ve.Message = ae.Message
		ve.Detail = ae.Detail
	}
	return ve
}

// CaseError is a per-case failure of a batch operation.
type CaseError struct {
	CaseID  string `json:"case_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func caseError(caseID string, err error) CaseError {
	ve := toViewError(err)
	msg := ve.Message
	if ve.Detail != "" {
		msg += ": " + ve.Detail
	}
	return CaseError{CaseID: caseID, Code: ve.Code, Message: msg}
}

// dashboardKey scopes the cached dashboard to one calendar day so it expires
// on its own at the day boundary.
func dashboardKey(today time.Time) string {
	return dashboardPrefix + today.Format(sla.DateLayout)
}

const dashboardPrefix = "dashboard:"

func invalidateDashboard(ctx context.Context, p ports, log logging.Logger) {
	if p.cache == nil {
		return
	}
	if _, err := p.cache.DeleteByPrefix(ctx, dashboardPrefix); err != nil {
		log.Warn("Failed to invalidate dashboard cache", logging.Err(err))
	}
}

//Personal.AI order the ending
