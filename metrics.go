/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docrepo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Save paths
const (
	PathItemized = "itemized"
	PathBulk     = "bulk"
)

// Metrics collects Prometheus metrics for repository saves. A nil *Metrics is valid and records nothing.
type Metrics struct {
	saves        *prometheus.CounterVec
	saveDuration *prometheus.HistogramVec
	throttles    *prometheus.CounterVec
	throttleWait *prometheus.CounterVec
	retries      *prometheus.CounterVec
	bulkRounds   prometheus.Counter
	bulkImported prometheus.Counter
}

// NewMetrics registers the repository metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		saves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docrepo_saves_total",
			Help: "Save calls by path and outcome",
		}, []string{"path", "outcome"}),
		saveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docrepo_save_duration_seconds",
			Help:    "Wall time of Save calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"path"}),
		throttles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docrepo_throttled_writes_total",
			Help: "Writes rejected by store throttling",
		}, []string{"operation"}),
		throttleWait: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docrepo_throttle_wait_seconds_total",
			Help: "Time spent waiting on throttling retry-after hints",
		}, []string{"operation"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docrepo_write_retries_total",
			Help: "Retries of failed non-throttled writes",
		}, []string{"operation"}),
		bulkRounds: f.NewCounter(prometheus.CounterOpts{
			Name: "docrepo_bulk_rounds_total",
			Help: "Bulk import submissions",
		}),
		bulkImported: f.NewCounter(prometheus.CounterOpts{
			Name: "docrepo_bulk_documents_imported_total",
			Help: "Documents confirmed by bulk import submissions",
		}),
	}
}

func (m *Metrics) observeSave(path string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.saves.WithLabelValues(path, outcome).Inc()
	m.saveDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func (m *Metrics) observeThrottle(op string, wait time.Duration) {
	if m == nil {
		return
	}
	m.throttles.WithLabelValues(op).Inc()
	m.throttleWait.WithLabelValues(op).Add(wait.Seconds())
}

func (m *Metrics) observeRetry(op string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(op).Inc()
}

func (m *Metrics) observeBulkRound(imported int) {
	if m == nil {
		return
	}
	m.bulkRounds.Inc()
	m.bulkImported.Add(float64(imported))
}
