// Package metrics provides Prometheus instrumentation for the photobook
// application.
//
// This package defines and exposes various metrics that can be scraped by
// Prometheus to monitor the health, performance, and behavior of the
// application. All metrics are prefixed with "photobook_" to avoid naming
// collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
// Monitor database query performance and storage:
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBTransactionDuration: Histogram of transaction duration by outcome
//   - DBRowsAffected: Histogram of rows affected by write operations
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Index Job Metrics
//
// Track catalog reconciliation runs:
//   - IndexRunsTotal: Counter of runs by outcome (complete/error/rejected)
//   - IndexLastRunTimestamp: Gauge of last run time
//   - IndexLastRunDuration: Gauge of last run duration
//   - IndexFilesProcessed: Counter of files processed
//   - IndexErrors: Counter of per-file errors
//   - IndexIsRunning: Gauge indicating if a run is active
//   - IndexLastRunFiles: Gauge of last-run counts by classification
//
// ## Thumbnail Metrics
//
// Monitor thumbnail generation:
//   - ThumbnailGenerationsTotal: Counter by status (success/error/reused/source_missing)
//   - ThumbnailGenerationDuration: Histogram of generation time
//
// ## Catalog Metrics
//
// Track catalog contents:
//   - CatalogPhotosTotal: Gauge of photos in the catalog
//   - CatalogPendingThumbnails: Gauge of photos awaiting thumbnails
//   - CatalogBooksTotal: Gauge of configured books
//   - CatalogSelectedTotal: Gauge of selected photos across all books
//
// ## Export Metrics
//
// Monitor archive building:
//   - ExportArchivesTotal: Counter of archive builds by status
//   - ExportArchiveBytes: Histogram of archive sizes
//   - ExportPhotosPerArchive: Histogram of photos bundled per archive
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "photobook/internal/metrics"
//
//	// Increment a counter
//	metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/books", "200").Inc()
//
//	// Observe a histogram value
//	metrics.HTTPRequestDuration.WithLabelValues("GET", "/api/books").Observe(0.123)
//
//	// Set a gauge value
//	metrics.DBConnectionsOpen.Set(5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(statsProvider, dbPath, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// The collector automatically updates catalog statistics and database file
// sizes.
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Request rate by endpoint:
//
//	sum(rate(photobook_http_requests_total[5m])) by (path)
//
// P95 response time:
//
//	histogram_quantile(0.95, sum(rate(photobook_http_request_duration_seconds_bucket[5m])) by (le))
//
// Error rate:
//
//	sum(rate(photobook_http_requests_total{status=~"5.."}[5m])) / sum(rate(photobook_http_requests_total[5m]))
//
// Database query latency by operation:
//
//	histogram_quantile(0.95, sum(rate(photobook_db_query_duration_seconds_bucket[5m])) by (le, operation))
//
// Thumbnail failure rate:
//
//	rate(photobook_thumbnail_generations_total{status="error"}[1h]) /
//	rate(photobook_thumbnail_generations_total[1h])
//
// Reconciliation backlog:
//
//	photobook_catalog_pending_thumbnails
package metrics
