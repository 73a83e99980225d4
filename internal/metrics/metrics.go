package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Cache metrics
var (
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_cache_lookups_total",
			Help: "Total number of thumbnail cache lookups by tier and result",
		},
		[]string{"tier", "result"}, // tier: "memory", "disk"; result: "hit", "miss"
	)

	MemoryCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_memory_cache_entries",
			Help: "Number of thumbnails held in the memory tier",
		},
	)

	MemoryCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_memory_cache_evictions_total",
			Help: "Total number of least-recently-used evictions from the memory tier",
		},
	)

	DiskCacheWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_disk_cache_writes_total",
			Help: "Total number of disk cache writes by status",
		},
		[]string{"status"}, // "success", "error"
	)

	DiskCacheWriteBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_disk_cache_write_bytes",
			Help:    "Size of encoded thumbnails written to the disk tier",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
		},
	)
)

// Decode pipeline metrics
var (
	DecodePhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_decode_phase_duration_seconds",
			Help:    "Duration of each thumbnail pipeline phase in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase"}, // "probe", "decode", "rotate", "scale", "encode", "disk_read"
	)

	DecodeSampleSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_decode_sample_size",
			Help:    "Power-of-two downsample factor chosen before decode",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	DecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_decode_by_format_total",
			Help: "Total number of source decodes by detected format",
		},
		[]string{"format"},
	)

	DecodeBackendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_decode_backend_total",
			Help: "Total number of sampled decodes by backend",
		},
		[]string{"backend"}, // "go", "vips"
	)

	OrientationApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_orientation_applied_total",
			Help: "Total number of decoded images by applied rotation",
		},
		[]string{"degrees"},
	)
)

// Load coordinator metrics
var (
	LoadRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_load_requests_total",
			Help: "Total number of slot load requests by how they were served",
		},
		[]string{"source"}, // "memory", "dispatched"
	)

	LoadOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_load_outcomes_total",
			Help: "Total number of completed background loads by outcome",
		},
		[]string{"outcome"}, // "applied", "discarded"
	)

	LoadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_load_failures_total",
			Help: "Total number of failed background loads by failure kind",
		},
		[]string{"kind"},
	)

	LoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_load_duration_seconds",
			Help:    "Time from dispatch to completion handling in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_workers_active",
			Help: "Number of decode workers currently running a task",
		},
	)

	LoadTasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_load_tasks_in_flight",
			Help: "Number of background load tasks dispatched but not yet completed",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts after ESTALE",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Source index metrics
var (
	IndexRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thumbgrid_index_runs_total",
			Help: "Total number of source index scans by status",
		},
		[]string{"status"},
	)

	IndexLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_index_last_run_duration_seconds",
			Help: "Duration of the last source index scan in seconds",
		},
	)

	IndexLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_index_last_run_timestamp",
			Help: "Unix timestamp of the last completed source index scan",
		},
	)

	IndexSourcesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_index_sources",
			Help: "Number of source images currently in the index",
		},
	)

	IndexQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "thumbgrid_index_query_duration_seconds",
			Help:    "Source index query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_memory_usage_ratio",
			Help: "Sampled heap usage as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "thumbgrid_memory_paused",
			Help: "Whether thumbnail decodes are paused for memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "thumbgrid_memory_pauses_total",
			Help: "Total number of times decodes were paused for memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "thumbgrid_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
