package repocache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "nanogit"
	metricsSubsystem = "repocache"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics are shared by every cache opened through the same registerer. A
// nil *Metrics is valid and records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	mutations       *prometheus.CounterVec
	statusEntries   prometheus.Gauge
	logItems        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "status_refreshes_total",
			Help:      "Background status refreshes by result.",
		}, []string{"result"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "status_refresh_duration_seconds",
			Help:      "Time spent computing the status projection.",
			Buckets:   prometheus.DefBuckets,
		}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "mutations_total",
			Help:      "Repository mutations by verb and result.",
		}, []string{"verb", "result"}),
		statusEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "status_entries",
			Help:      "Entries in the last published status projection.",
		}),
		logItems: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "log_items",
			Help:      "Entries in the last published log projection.",
		}),
	}
}

func (m *Metrics) refreshed(err error, took time.Duration, entries int) {
	if m == nil {
		return
	}

	m.refreshes.WithLabelValues(result(err)).Inc()
	m.refreshDuration.Observe(took.Seconds())
	if err == nil {
		m.statusEntries.Set(float64(entries))
	}
}

func (m *Metrics) mutated(verb string, err error) {
	if m == nil {
		return
	}

	m.mutations.WithLabelValues(verb, result(err)).Inc()
}

func (m *Metrics) logPublished(items int) {
	if m == nil {
		return
	}

	m.logItems.Set(float64(items))
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}
