// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// A .env file in the working directory is honored when present. The
// following environment variables are supported:
//
//   - PHOTO_ROOT: Path to the photo library (no default; a missing or absent
//     root is a health warning and fails index runs, never startup)
//   - DATA_DIR: Path to the writable data directory holding the catalog
//     database and export temp files (default: ./data)
//   - THUMBS_DIR: Path to the thumbnail directory (default: <DATA_DIR>/thumbs)
//   - BOOKS_CONFIG: Path to the books JSON config (default: ./config/books.json)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_ON_STARTUP: Trigger an index run after boot when the photo root
//     exists (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log thumbnail file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// # Directory Setup
//
// The package validates and creates required directories:
//   - Data directory: Required, must be writable
//   - Thumbnail directory: Required, created under the data directory
//   - Photo root: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogDatabaseInit]: Database initialization timing
//   - [LogBooksLoaded]: Books config load outcome and warnings
//   - [LogThumbnailInit]: Thumbnail decode path selection
//   - [LogIndexInit]: Index coordinator configuration
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
package startup
