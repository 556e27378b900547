package agent

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for agent activity.
// A nil *Metrics records nothing.
type Metrics struct {
	generations      *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	tokens           *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	pendingApprovals prometheus.Gauge
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns metrics registered once with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs Metrics registered with reg, reusing collectors
// that are already registered. Other registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellmate",
			Subsystem: "agent",
			Name:      "generations_total",
			Help:      "Generations by terminal outcome.",
		}, []string{"provider", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellmate",
			Subsystem: "agent",
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellmate",
			Subsystem: "agent",
			Name:      "tokens_total",
			Help:      "Tokens reported by providers.",
		}, []string{"provider", "direction"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cellmate",
			Subsystem: "agent",
			Name:      "model_request_duration_seconds",
			Help:      "Time from request to end of the model stream.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		pendingApprovals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cellmate",
			Subsystem: "agent",
			Name:      "pending_approvals",
			Help:      "Tool calls waiting for a user decision.",
		}),
	}

	register := func(c prometheus.Collector) prometheus.Collector {
		if err := reg.Register(c); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return already.ExistingCollector
			}
			panic(err)
		}
		return c
	}
	m.generations = register(m.generations).(*prometheus.CounterVec)
	m.toolCalls = register(m.toolCalls).(*prometheus.CounterVec)
	m.tokens = register(m.tokens).(*prometheus.CounterVec)
	m.requestDuration = register(m.requestDuration).(*prometheus.HistogramVec)
	m.pendingApprovals = register(m.pendingApprovals).(prometheus.Gauge)
	return m
}

func (m *Metrics) generationDone(provider, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) toolCallDone(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) addTokens(provider string, in, out int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(provider, "input").Add(float64(in))
	m.tokens.WithLabelValues(provider, "output").Add(float64(out))
}

func (m *Metrics) observeRequest(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) setPending(n int) {
	if m == nil {
		return
	}
	m.pendingApprovals.Set(float64(n))
}
