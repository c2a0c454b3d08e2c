package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_db_rows_affected",
			Help:    "Number of rows affected by write operations",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_db_connections_open",
			Help: "Number of open database connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photobook_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Index job metrics
var (
	IndexRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_index_runs_total",
			Help: "Total number of reconciliation runs by outcome",
		},
		[]string{"outcome"}, // "complete", "error", "rejected"
	)

	IndexLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_index_last_run_timestamp",
			Help: "Unix timestamp of the last reconciliation run",
		},
	)

	IndexLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_index_last_run_duration_seconds",
			Help: "Duration of the last reconciliation run in seconds",
		},
	)

	IndexFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photobook_index_files_processed_total",
			Help: "Total number of files processed by reconciliation runs",
		},
	)

	IndexErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photobook_index_errors_total",
			Help: "Total number of per-file errors during reconciliation",
		},
	)

	IndexIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_index_running",
			Help: "Whether a reconciliation run is in progress (1 = running, 0 = idle)",
		},
	)

	IndexLastRunFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photobook_index_last_run_files",
			Help: "File counts of the last reconciliation run by classification",
		},
		[]string{"result"}, // "new", "updated", "removed", "errors"
	)

	IndexThumbnailWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_index_thumbnail_workers",
			Help: "Size of the worker pool generating thumbnails during reconciliation",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"}, // "success", "error", "reused", "source_missing"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photobook_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Catalog metrics
var (
	CatalogPhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_catalog_photos_total",
			Help: "Total number of photos in the catalog",
		},
	)

	CatalogPendingThumbnails = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_catalog_pending_thumbnails",
			Help: "Number of photos awaiting thumbnail generation",
		},
	)

	CatalogBooksTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_catalog_books_total",
			Help: "Total number of configured books",
		},
	)

	CatalogSelectedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_catalog_selected_total",
			Help: "Total number of photos currently selected across all books",
		},
	)
)

// Export metrics
var (
	ExportArchivesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_export_archives_total",
			Help: "Total number of export archive builds",
		},
		[]string{"status"}, // "success", "error", "empty"
	)

	ExportArchiveBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photobook_export_archive_bytes",
			Help:    "Size of produced export archives in bytes",
			Buckets: prometheus.ExponentialBuckets(1024*1024, 4, 8),
		},
	)

	ExportPhotosPerArchive = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photobook_export_photos_per_archive",
			Help:    "Number of photos bundled per export archive",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)
)

// Memory pressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_memory_usage_ratio",
			Help: "Heap usage as a ratio of the configured memory limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photobook_memory_paused",
			Help: "Whether thumbnail decoding is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photobook_memory_gc_pauses_total",
			Help: "Total number of times processing was paused for memory pressure",
		},
	)
)

// Filesystem metrics. Volumes are logical names (photos, data, thumbs)
// resolved from path prefixes; retries track NFS stale-handle recovery.
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photobook_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photobook_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photobook_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
