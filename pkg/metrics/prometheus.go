package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain/repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	coalescedWaits  *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchErrors     *prometheus.CounterVec
	cooldownWait    *prometheus.HistogramVec
	persistFailures prometheus.Counter
	archiveErrors   *prometheus.CounterVec
	snapshotCount   *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_cache_hits_total",
				Help: "Cache reads served from a fresh entry",
			},
			[]string{"resource"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_cache_misses_total",
				Help: "Cache reads that required a fetch",
			},
			[]string{"resource"},
		),
		coalescedWaits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_cache_coalesced_waiters_total",
				Help: "Callers that joined an in-flight fetch instead of issuing their own",
			},
			[]string{"resource"},
		),
		fetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsefeed_fetch_duration_seconds",
				Help:    "Upstream fetch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_fetch_errors_total",
				Help: "Upstream fetch failures",
			},
			[]string{"resource"},
		),
		cooldownWait: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pulsefeed_cooldown_wait_seconds",
				Help:    "Time spent waiting on the cooldown gate",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		persistFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "pulsefeed_snapshot_persist_failures_total",
				Help: "Durable snapshot store writes that failed",
			},
		),
		archiveErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pulsefeed_snapshot_archive_errors_total",
				Help: "Snapshot archive backend failures",
			},
			[]string{"backend"},
		),
		snapshotCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pulsefeed_snapshots",
				Help: "Retained snapshot count per asset",
			},
			[]string{"asset"},
		),
	}
}

func (r *Recorder) RecordCacheHit(resource string) {
	r.cacheHits.WithLabelValues(resource).Inc()
}

func (r *Recorder) RecordCacheMiss(resource string) {
	r.cacheMisses.WithLabelValues(resource).Inc()
}

func (r *Recorder) RecordCoalescedWaiter(resource string) {
	r.coalescedWaits.WithLabelValues(resource).Inc()
}

func (r *Recorder) RecordFetch(resource string, d time.Duration, err error) {
	r.fetchDuration.WithLabelValues(resource).Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(resource).Inc()
	}
}

func (r *Recorder) RecordCooldownWait(endpoint string, d time.Duration) {
	r.cooldownWait.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) RecordPersistFailure() {
	r.persistFailures.Inc()
}

func (r *Recorder) RecordArchiveError(backend string) {
	r.archiveErrors.WithLabelValues(backend).Inc()
}

func (r *Recorder) SetSnapshotCount(asset string, n int) {
	r.snapshotCount.WithLabelValues(asset).Set(float64(n))
}
