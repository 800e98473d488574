package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hostwatch"

// Alert outcomes recorded by ObserveAlert.
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeSuppressed = "suppressed"
)

// Metrics owns a private registry so tests and the textfile writer see only
// hostwatch series.
type Metrics struct {
	reg *prometheus.Registry

	alerts    *prometheus.CounterVec
	attempts  *prometheus.CounterVec
	value     *prometheus.GaugeVec
	resHealth *prometheus.GaugeVec
	healthy   prometheus.Gauge
	cycles    prometheus.Counter
	lastCycle prometheus.Gauge
}

// New registers all hostwatch collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert decisions per resource, by outcome (sent, failed, suppressed).",
		}, []string{"resource", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Email transport attempts, by result (ok, retryable, terminal).",
		}, []string{"result"}),
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_value",
			Help:      "Last sampled value per resource (percent, or degrees Celsius for GPU temperature).",
		}, []string{"resource"}),
		resHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_healthy",
			Help:      "1 when the resource passed its last threshold check, 0 otherwise.",
		}, []string{"resource"}),
		healthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "healthy",
			Help:      "1 when every resource passed the last check cycle.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_cycles_total",
			Help:      "Completed check cycles.",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_check_timestamp_seconds",
			Help:      "Unix time of the last completed check cycle.",
		}),
	}
	m.reg.MustRegister(m.alerts, m.attempts, m.value, m.resHealth, m.healthy, m.cycles, m.lastCycle)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveAlert counts one alert decision for resource.
func (m *Metrics) ObserveAlert(resource, outcome string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(resource, outcome).Inc()
}

// ObserveAttempt counts one transport attempt.
func (m *Metrics) ObserveAttempt(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}

// ObserveResource records the sampled value and verdict for resource.
func (m *Metrics) ObserveResource(resource string, value float64, healthy bool) {
	if m == nil {
		return
	}
	m.value.WithLabelValues(resource).Set(value)
	m.resHealth.WithLabelValues(resource).Set(boolToFloat(healthy))
}

// ObserveResourceError marks resource unhealthy when no value could be
// sampled. The stale value series is dropped.
func (m *Metrics) ObserveResourceError(resource string) {
	if m == nil {
		return
	}
	m.value.DeleteLabelValues(resource)
	m.resHealth.WithLabelValues(resource).Set(0)
}

// ObserveCycle records the aggregate result of one check cycle.
func (m *Metrics) ObserveCycle(healthy bool, at time.Time) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.healthy.Set(boolToFloat(healthy))
	m.lastCycle.Set(float64(at.Unix()))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
