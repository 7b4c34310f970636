package worker

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	processedTotal *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	pollErrors     *prometheus.CounterVec
	replayedTotal  *prometheus.CounterVec
	handleDuration *prometheus.HistogramVec
	lagSeconds     *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		processedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "worker_processed_total", Help: "Work items answered, by response status."},
			[]string{"domain", "status"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "worker_publish_retries_total", Help: "Failed response publish attempts that were retried."},
			[]string{"domain"},
		),
		pollErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "worker_poll_errors_total", Help: "Failed reads of the inbound topic."},
			[]string{"domain"},
		),
		replayedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "worker_replayed_total", Help: "Redelivered work items answered from the inbox."},
			[]string{"domain"},
		),
		handleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "worker_handle_duration_seconds",
				Help:    "Handler run time per work item.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"domain"},
		),
		lagSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "worker_lag_seconds", Help: "Age of the last handled work item when it was picked up."},
			[]string{"domain"},
		),
	}
	reg.MustRegister(m.processedTotal, m.retriesTotal, m.pollErrors, m.replayedTotal, m.handleDuration, m.lagSeconds)
	return m
}
