// Package metrics collects and exposes Prometheus metrics for the local UI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	labelFailureKind = "kind"
	labelListKind    = "list"
)

// Recorder is the metrics surface used by the server.
type Recorder interface {
	RecordAnalysisSuccess(identifierCount int, duration time.Duration)
	RecordAnalysisFailure(failureKind string)
	RecordHide(listKind string)
	RecordReset(listKind string)
	RecordExport(listKind string)
}

// Collector implements Recorder with Prometheus collectors.
type Collector struct {
	analysisSuccess  prometheus.Counter
	analysisFailure  *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	identifiersSeen  prometheus.Histogram
	hides            *prometheus.CounterVec
	resets           *prometheus.CounterVec
	exports          *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with registerer.
func NewCollector(registerer prometheus.Registerer) *Collector {
	collector := &Collector{
		analysisSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "unfollow_analysis_success_total",
			Help: "Archives analyzed successfully.",
		}),
		analysisFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unfollow_analysis_failure_total",
			Help: "Archive analyses that failed, by failure kind.",
		}, []string{labelFailureKind}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unfollow_analysis_duration_seconds",
			Help:    "Time spent analyzing one archive.",
			Buckets: prometheus.DefBuckets,
		}),
		identifiersSeen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "unfollow_analysis_identifiers",
			Help:    "Distinct followers plus following per analyzed archive.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		hides: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unfollow_hide_total",
			Help: "Identifiers hidden, by list.",
		}, []string{labelListKind}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unfollow_reset_total",
			Help: "Hidden sets reset, by list.",
		}, []string{labelListKind}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "unfollow_export_total",
			Help: "CSV exports served, by list.",
		}, []string{labelListKind}),
	}

	registerer.MustRegister(
		collector.analysisSuccess,
		collector.analysisFailure,
		collector.analysisDuration,
		collector.identifiersSeen,
		collector.hides,
		collector.resets,
		collector.exports,
	)
	return collector
}

// RecordAnalysisSuccess records a completed analysis.
func (collector *Collector) RecordAnalysisSuccess(identifierCount int, duration time.Duration) {
	collector.analysisSuccess.Inc()
	collector.analysisDuration.Observe(duration.Seconds())
	collector.identifiersSeen.Observe(float64(identifierCount))
}

// RecordAnalysisFailure records a failed analysis.
func (collector *Collector) RecordAnalysisFailure(failureKind string) {
	collector.analysisFailure.WithLabelValues(failureKind).Inc()
}

// RecordHide records a hidden identifier.
func (collector *Collector) RecordHide(listKind string) {
	collector.hides.WithLabelValues(listKind).Inc()
}

// RecordReset records a hidden-set reset.
func (collector *Collector) RecordReset(listKind string) {
	collector.resets.WithLabelValues(listKind).Inc()
}

// RecordExport records a CSV export.
func (collector *Collector) RecordExport(listKind string) {
	collector.exports.WithLabelValues(listKind).Inc()
}

// Handler exposes the metrics gathered by gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
