package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/casetrack/internal/config"
	"github.com/turtacn/casetrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/casetrack/internal/testutil"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

// metricValue returns the value of the series of name whose labels include
// every pair in labels.
func metricValue(t *testing.T, collector MetricsCollector, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := collector.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !hasLabels(m, labels) {
				continue
			}
			switch {
			case m.Counter != nil:
				return m.GetCounter().GetValue()
			case m.Gauge != nil:
				return m.GetGauge().GetValue()
			case m.Histogram != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return 0
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestNewMetricsCollector(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)

	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true, EnableGoMetrics: true}, logging.NewNopLogger())
	require.NoError(t, err)
	out := scrapeMetrics(t, c)
	assert.Contains(t, out, "go_goroutines")
}

func TestCollectorConfigFrom(t *testing.T) {
	cfg := CollectorConfigFrom(config.MetricsConfig{Namespace: "casetrack"}, "worker")
	assert.Equal(t, "casetrack", cfg.Namespace)
	assert.Equal(t, "worker", cfg.ConstLabels["service"])
}

func TestRegister_IdempotentAndTyped(t *testing.T) {
	c := newTestCollector(t)

	a := c.RegisterCounter("things_total", "things", "kind")
	b := c.RegisterCounter("things_total", "things", "kind")
	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Add(2)
	assert.Equal(t, 3.0, metricValue(t, c, "test_unit_things_total", map[string]string{"kind": "x"}))

	// Same name, different type: a no-op vector comes back and the log records it.
	log := testutil.NewMockLogger()
	c2, err := NewMetricsCollector(CollectorConfig{Namespace: "test"}, log)
	require.NoError(t, err)
	c2.RegisterCounter("mixed", "m")
	g := c2.RegisterGauge("mixed", "m")
	g.WithLabelValues().Set(5)
	assert.True(t, log.HasMessage("warn", "metric type mismatch"))
}

func TestRegister_ConflictLogsError(t *testing.T) {
	log := testutil.NewMockLogger()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", EnableProcessMetrics: true}, log)
	require.NoError(t, err)

	vec := c.RegisterCounter("process_cpu_seconds_total", "clash", "kind")
	assert.True(t, log.HasMessage("error", "failed to register counter"))
	assert.NotPanics(t, func() { vec.WithLabelValues("x").Inc() })
}

func TestGaugeReset(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("level", "l", "k")
	g.WithLabelValues("a").Set(1)
	g.Reset()
	assert.NotContains(t, scrapeMetrics(t, c), `test_unit_level{k="a"}`)
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "op", []float64{1}, "op")
	timer := NewTimer(h.WithLabelValues("x"))
	time.Sleep(time.Millisecond)
	assert.Positive(t, timer.ObserveDuration())
	assert.Equal(t, 1.0, metricValue(t, c, "test_unit_op_seconds", map[string]string{"op": "x"}))

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
