package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/casetrack/internal/domain/casefile"
	"github.com/turtacn/casetrack/internal/domain/sla"
)

var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRecomputeDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120}
)

// SLAMetrics holds every metric casetrack publishes.
type SLAMetrics struct {
	CasesBySLAStatus    GaugeVec
	CasesByPriority     GaugeVec
	ActiveDeadlines     GaugeVec
	QueriesPending      GaugeVec
	EscalationsTotal    CounterVec
	RecomputeDuration   HistogramVec
	RecomputeRunsTotal  CounterVec
	RecomputeFailures   CounterVec
	StepTogglesTotal    CounterVec
	ProjectStatusChange CounterVec
	CacheAccessTotal    CounterVec
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec
}

// NewSLAMetrics registers all metrics on collector.
func NewSLAMetrics(collector MetricsCollector) *SLAMetrics {
	return &SLAMetrics{
		CasesBySLAStatus:    collector.RegisterGauge("cases_by_sla_status", "Cases per SLA tier at the last recompute", "sla_status"),
		CasesByPriority:     collector.RegisterGauge("active_cases_by_priority", "Active cases per priority at the last recompute", "priority"),
		ActiveDeadlines:     collector.RegisterGauge("active_cases_by_deadline_bucket", "Active cases per deadline bucket at the last recompute", "bucket"),
		QueriesPending:      collector.RegisterGauge("active_cases_with_pending_query", "Active cases with an open department query"),
		EscalationsTotal:    collector.RegisterCounter("sla_escalations_total", "Cases whose SLA tier worsened", "priority", "to"),
		RecomputeDuration:   collector.RegisterHistogram("recompute_duration_seconds", "Duration of a full SLA recompute", DefaultRecomputeDurationBuckets, "trigger"),
		RecomputeRunsTotal:  collector.RegisterCounter("recompute_runs_total", "SLA recompute runs", "trigger", "result"),
		RecomputeFailures:   collector.RegisterCounter("recompute_case_failures_total", "Cases whose derivation failed during recompute", "code"),
		StepTogglesTotal:    collector.RegisterCounter("workflow_step_toggles_total", "Workflow step done/undone toggles", "done"),
		ProjectStatusChange: collector.RegisterCounter("workflow_project_status_changes_total", "Project rollup status changes", "to"),
		CacheAccessTotal:    collector.RegisterCounter("cache_access_total", "Dashboard cache lookups", "result"),
		HTTPRequestsTotal:   collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route"),
		HTTPActiveRequests:  collector.RegisterGauge("http_active_requests", "In-flight HTTP requests"),
	}
}

// ObserveSummary replaces the case gauges with s. Every label value is set,
// including zeros.
func (m *SLAMetrics) ObserveSummary(s casefile.Summary) {
	for _, st := range sla.SLAStatuses() {
		m.CasesBySLAStatus.WithLabelValues(string(st)).Set(float64(s.BySLAStatus[st]))
	}
	for _, p := range sla.Priorities() {
		m.CasesByPriority.WithLabelValues(string(p)).Set(float64(s.ByPriority[p]))
	}
	for _, b := range sla.DeadlineBuckets() {
		m.ActiveDeadlines.WithLabelValues(string(b)).Set(float64(s.Deadlines.Get(b)))
	}
	m.QueriesPending.WithLabelValues().Set(float64(s.QueriesPending))
}

// ObserveEscalations counts each escalation by priority and target tier.
func (m *SLAMetrics) ObserveEscalations(escalations []casefile.Escalation) {
	for _, e := range escalations {
		m.EscalationsTotal.WithLabelValues(string(e.Priority), string(e.Current)).Inc()
	}
}

// ObserveRecompute records one recompute run.
func (m *SLAMetrics) ObserveRecompute(trigger string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RecomputeDuration.WithLabelValues(trigger).Observe(d.Seconds())
	m.RecomputeRunsTotal.WithLabelValues(trigger, result).Inc()
}

// ObserveCaseFailure counts a case that could not be derived, by error code.
func (m *SLAMetrics) ObserveCaseFailure(code string) {
	m.RecomputeFailures.WithLabelValues(code).Inc()
}

func (m *SLAMetrics) ObserveStepToggle(done bool) {
	m.StepTogglesTotal.WithLabelValues(strconv.FormatBool(done)).Inc()
}

func (m *SLAMetrics) ObserveProjectStatus(to string) {
	m.ProjectStatusChange.WithLabelValues(to).Inc()
}

func (m *SLAMetrics) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheAccessTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records a finished request. route is the matched
// pattern, never the raw path.
func (m *SLAMetrics) ObserveHTTPRequest(method, route string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

//Personal.AI order the ending
