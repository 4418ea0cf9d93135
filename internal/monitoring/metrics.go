package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PagesFetched    prometheus.Counter
	ItemsClassified *prometheus.CounterVec
	TargetsResolved *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ranktracker_pages_fetched_total",
			Help: "The total number of result pages fetched",
		}),
		ItemsClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ranktracker_items_classified_total",
			Help: "The total number of listings classified, by placement",
		}, []string{"placement"}),
		TargetsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ranktracker_targets_resolved_total",
			Help: "The total number of tracked identifiers resolved, by status",
		}, []string{"status"}), // 'found', 'not_found'
		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ranktracker_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'fetch_failed', 'bot_detected', 'db_save_failed'
	}
}

func (m *Metrics) IncPagesFetched() {
	m.PagesFetched.Inc()
}

func (m *Metrics) IncItemsClassified(placement string) {
	m.ItemsClassified.WithLabelValues(placement).Inc()
}

func (m *Metrics) IncTargetsResolved(status string) {
	m.TargetsResolved.WithLabelValues(status).Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
