// Package metrics registers the refresh-pipeline Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "aib_"

	resultSuccess = "success"
	resultError   = "error"

	sourceLive     = "live"
	sourceSnapshot = "snapshot"
)

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	SourceLive     = sourceLive
	SourceSnapshot = sourceSnapshot
)

var (
	registerOnce sync.Once

	refreshRuns    *prometheus.CounterVec
	refreshLatency *prometheus.HistogramVec

	rowsFetched       *prometheus.CounterVec
	incidentsArchived prometheus.Counter
	snapshotFallbacks prometheus.Counter

	renderLatency prometheus.Histogram
)

// Init registers the pipeline metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		refreshRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "refresh_runs_total",
				Help: "Total refresh runs by result",
			},
			[]string{"result"},
		)
		refreshLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "refresh_latency_seconds",
				Help:    "End-to-end refresh latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"result"},
		)
		rowsFetched = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_fetched_total",
				Help: "Total raw rows loaded by source",
			},
			[]string{"source"},
		)
		incidentsArchived = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "incidents_archived_total",
				Help: "Total normalized incidents written to the archive",
			},
		)
		snapshotFallbacks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_fallbacks_total",
				Help: "Total refresh runs served from the snapshot fallback",
			},
		)
		renderLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_render_seconds",
				Help:    "Dashboard render latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			refreshRuns,
			refreshLatency,
			rowsFetched,
			incidentsArchived,
			snapshotFallbacks,
			renderLatency,
		)
	})
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRefresh records one refresh run.
func ObserveRefresh(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if refreshRuns != nil {
		refreshRuns.WithLabelValues(result).Inc()
	}
	if refreshLatency != nil {
		refreshLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// AddRowsFetched counts raw rows loaded from a source.
func AddRowsFetched(source string, count int) {
	if count <= 0 {
		return
	}
	if rowsFetched != nil {
		rowsFetched.WithLabelValues(source).Add(float64(count))
	}
}

// AddIncidentsArchived counts incidents written to the archive.
func AddIncidentsArchived(count int) {
	if count <= 0 {
		return
	}
	if incidentsArchived != nil {
		incidentsArchived.Add(float64(count))
	}
}

// IncSnapshotFallback counts a run that fell back to the snapshot.
func IncSnapshotFallback() {
	if snapshotFallbacks != nil {
		snapshotFallbacks.Inc()
	}
}

// ObserveRender records one dashboard render.
func ObserveRender(duration time.Duration) {
	if renderLatency != nil {
		renderLatency.Observe(duration.Seconds())
	}
}
