package janitor

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	SweepsTotal  prometheus.Counter
	TrimmedTotal *prometheus.CounterVec
	ErrorsTotal  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "stream_janitor_sweeps_total", Help: "Completed trim passes."},
		),
		TrimmedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "stream_janitor_trimmed_total", Help: "Stale entries removed from response topics."},
			[]string{"topic"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "stream_janitor_errors_total", Help: "Failed trim attempts."},
			[]string{"topic"},
		),
	}
	reg.MustRegister(m.SweepsTotal, m.TrimmedTotal, m.ErrorsTotal)
	return m
}
