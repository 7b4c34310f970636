package correlation

import "github.com/prometheus/client_golang/prometheus"

func RequestsCounter(m *Metrics, domain, outcome string) prometheus.Collector {
	return m.requestsTotal.WithLabelValues(domain, outcome)
}
