package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campusfeed"

// Collector holds the campusfeed metric families. It satisfies mutation.Recorder and
// views.Recorder, and the api middleware records requests through it.
type Collector struct {
	mutations        *prometheus.CounterVec
	mutationDuration *prometheus.HistogramVec
	fetches          *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewCollector builds a Collector and registers it with reg. A nil reg uses the default
// registerer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		// Labels: kind (toggle-like, delete-post, ...), outcome (applied, rolled_back, failed, rejected, dropped)
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutation",
			Name:      "total",
			Help:      "Finished content mutations by kind and outcome",
		}, []string{"kind", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mutation",
			Name:      "duration_seconds",
			Help:      "Time from lock acquisition to settled cache state",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		// Labels: view (dashboard, posts, thread, profile), outcome (ok, error)
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "fetches_total",
			Help:      "View loads and refreshes by outcome",
		}, []string{"view", "outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served by route and status code",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(c.mutations, c.mutationDuration, c.fetches, c.requests, c.requestDuration)
	return c
}

func (c *Collector) RecordMutation(kind, outcome string, elapsed time.Duration) {
	c.mutations.WithLabelValues(kind, outcome).Inc()
	c.mutationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (c *Collector) RecordFetch(view string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.fetches.WithLabelValues(view, outcome).Inc()
}

func (c *Collector) RecordRequest(route, method string, code int, elapsed time.Duration) {
	c.requests.WithLabelValues(route, method, statusLabel(code)).Inc()
	c.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
