package correlation

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	orphanDeletes prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "correlation_requests_total",
				Help: "Correlated requests by domain and outcome.",
			},
			[]string{"domain", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "correlation_request_duration_seconds",
				Help:    "Time from publishing a work item to its matched response.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"domain"},
		),
		orphanDeletes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "correlation_ack_failures_total",
				Help: "Matched responses that could not be deleted from the response topic.",
			},
		),
	}
	reg.MustRegister(m.requestsTotal, m.duration, m.orphanDeletes)
	return m
}
