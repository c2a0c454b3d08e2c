// Package main provides the entry point for the photobook server.
//
// Photobook is a self-hosted service for curating monthly photo books
// from a large photo library. It indexes a photo directory into a
// SQLite catalog, generates browse thumbnails, tracks per-book photo
// selections, and exports the selected originals as ZIP archives ready
// for a print service.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Database Initialization: Opens the SQLite catalog and runs migrations
//  3. Books Configuration: Loads book definitions and syncs them into the catalog
//  4. Component Initialization:
//     - Thumbnail Generator: Initializes libvips with a pure-Go fallback
//     - Index Coordinator: Reconciles the photo directory against the catalog
//     - Metrics Collector: Gathers Prometheus metrics
//     - Export Builder: Assembles ZIP archives from selections
//  5. HTTP Server Setup: Configures routes, middleware, and starts servers
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Book listing, paging, selection, and completion endpoints
//     - Index trigger and status endpoints
//     - ZIP export endpoint
//     - Thumbnail serving
//     - Health and readiness probes
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - PHOTO_ROOT: Root directory containing photos (index runs fail without it)
//   - DATA_DIR: Directory for the catalog database and export scratch space
//   - THUMBS_DIR: Directory for generated thumbnails (default: DATA_DIR/thumbs)
//   - BOOKS_CONFIG: Path to the books config (default: ./config/books.json)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - INDEX_ON_STARTUP: Trigger an index run at startup (default: true)
//   - LOG_STATIC_FILES: Log thumbnail requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health probe requests (default: true)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Stop metrics collector
//  2. Shutdown metrics server (if running)
//  3. Shutdown main HTTP server (30s timeout)
//  4. Close the database and release libvips resources
//
// An index run already in flight finishes its current batch; runs are
// one-shot and never block shutdown of the HTTP servers.
//
// # Build Requirements
//
// The application requires CGO for SQLite and benefits from libvips:
//
//   - SQLite: catalog storage via mattn/go-sqlite3
//   - libvips: fast HEIC/JPEG decoding (optional; JPEG and PNG decode
//     falls back to pure Go when libvips is unavailable)
//
// # Related Packages
//
//   - [photobook/internal/database]: SQLite catalog access
//   - [photobook/internal/books]: books config loading and validation
//   - [photobook/internal/handlers]: HTTP request handlers
//   - [photobook/internal/indexer]: photo directory reconciliation
//   - [photobook/internal/thumbs]: thumbnail generation and libvips integration
//   - [photobook/internal/export]: ZIP archive assembly
//   - [photobook/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [photobook/internal/startup]: configuration and initialization
package main
