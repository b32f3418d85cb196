package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CalendarMetrics exposes counters for slot and layout computations, the
// snapshot cache and the invalidation consumers.
type CalendarMetrics struct {
	computations  *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	events        *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

func NewCalendarMetrics(reg prometheus.Registerer) *CalendarMetrics {
	m := &CalendarMetrics{
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentalcare",
			Subsystem: "calendar",
			Name:      "computations_total",
			Help:      "Slot and layout computations by kind and outcome",
		}, []string{"kind", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentalcare",
			Subsystem: "calendar",
			Name:      "rejected_records_total",
			Help:      "Input records skipped during computation",
		}, []string{"reason"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentalcare",
			Subsystem: "calendar",
			Name:      "cache_lookups_total",
			Help:      "Snapshot cache lookups",
		}, []string{"kind", "hit"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dentalcare",
			Subsystem: "calendar",
			Name:      "events_consumed_total",
			Help:      "Change events consumed from Kafka",
		}, []string{"topic", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dentalcare",
			Subsystem: "calendar",
			Name:      "source_fetch_seconds",
			Help:      "Latency of snapshot fetches from the configured source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.computations, m.rejected, m.cacheLookups, m.events, m.fetchDuration)
	return m
}

func (m *CalendarMetrics) ObserveComputation(kind, outcome string) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(kind, outcome).Inc()
}

func (m *CalendarMetrics) ObserveRejected(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejected.WithLabelValues(reason).Add(float64(n))
}

func (m *CalendarMetrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(kind, strconv.FormatBool(hit)).Inc()
}

func (m *CalendarMetrics) ObserveEvent(topic, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(topic, outcome).Inc()
}

func (m *CalendarMetrics) ObserveFetch(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(kind).Observe(seconds)
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
