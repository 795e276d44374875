// Package metrics provides Prometheus instrumentation for the capture pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors used by the scanner. A nil *Metrics
// is valid everywhere it is accepted; recording methods become no-ops.
type Metrics struct {
	// Detection metrics
	StageDuration  *prometheus.HistogramVec
	FramesAnalyzed prometheus.Counter

	// Triage metrics
	TriageActions *prometheus.CounterVec
	Duplicates    *prometheus.CounterVec

	// Store metrics
	PendingDocuments prometheus.Gauge
	RecentWindowSize prometheus.Gauge
	ArchiveCommits   *prometheus.CounterVec
}

// New creates and registers all collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docscan_detector_stage_duration_seconds",
				Help:    "Time spent in each detection cascade stage.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"stage"},
		),
		FramesAnalyzed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "docscan_frames_analyzed_total",
				Help: "Number of frames run through the detection cascade.",
			},
		),
		TriageActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docscan_triage_actions_total",
				Help: "Triage decisions by action and document type.",
			},
			[]string{"action", "doc_type"},
		),
		Duplicates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docscan_duplicates_total",
				Help: "Duplicate-check outcomes (skipped, replaced).",
			},
			[]string{"outcome"},
		),
		PendingDocuments: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docscan_pending_documents",
				Help: "Documents currently queued for human confirmation.",
			},
		),
		RecentWindowSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docscan_recent_window_size",
				Help: "Entries in the recent-archive duplicate window.",
			},
		),
		ArchiveCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docscan_archive_commits_total",
				Help: "Archive commit attempts by status.",
			},
			[]string{"status"},
		),
	}
}

// ObserveStage records one cascade stage duration in seconds.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// IncAction records one triage decision.
func (m *Metrics) IncAction(action, docType string) {
	if m == nil {
		return
	}
	m.TriageActions.WithLabelValues(action, docType).Inc()
}

// IncDuplicate records one duplicate-check outcome.
func (m *Metrics) IncDuplicate(outcome string) {
	if m == nil {
		return
	}
	m.Duplicates.WithLabelValues(outcome).Inc()
}

// IncFrame records one analyzed frame.
func (m *Metrics) IncFrame() {
	if m == nil {
		return
	}
	m.FramesAnalyzed.Inc()
}

// SetPending updates the pending-queue gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingDocuments.Set(float64(n))
}

// SetRecentWindow updates the recent-window gauge.
func (m *Metrics) SetRecentWindow(n int) {
	if m == nil {
		return
	}
	m.RecentWindowSize.Set(float64(n))
}

// IncCommit records one archive commit attempt.
func (m *Metrics) IncCommit(status string) {
	if m == nil {
		return
	}
	m.ArchiveCommits.WithLabelValues(status).Inc()
}
