package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobook/internal/books"
	"photobook/internal/database"
	"photobook/internal/export"
	"photobook/internal/filesystem"
	"photobook/internal/handlers"
	"photobook/internal/indexer"
	"photobook/internal/logging"
	"photobook/internal/memory"
	"photobook/internal/metrics"
	"photobook/internal/middleware"
	"photobook/internal/startup"
	"photobook/internal/thumbs"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Derive GOMEMLIMIT from the container limit before anything allocates
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Route filesystem operation metrics to the right volume labels
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"photos": config.PhotoRoot,
		"data":   config.DataDir,
		"thumbs": config.ThumbsDir,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Load book definitions and sync them into the catalog
	bookDefs, bookWarnings := books.Load(config.BooksConfig)
	if err := db.UpsertBooks(context.Background(), bookDefs); err != nil {
		startup.LogFatal("Failed to store books: %v", err)
	}
	startup.LogBooksLoaded(len(bookDefs), bookWarnings)

	// Initialize thumbnail generation
	if err := thumbs.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer thumbs.ShutdownVips()
	gen, err := thumbs.NewGenerator(config.ThumbsDir)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail generator: %v", err)
	}
	startup.LogThumbnailInit(thumbs.IsVipsAvailable())

	// Memory backpressure for thumbnail decoding
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize index coordinator
	coordinator := indexer.New(db, gen, config.PhotoRoot, monitor)
	startup.LogIndexInit(config.IndexOnStartup)

	// Initialize metrics
	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.SetAppInfo(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion)
	collector := metrics.NewCollector(catalogStats{db: db}, config.DatabasePath, 30*time.Second)
	collector.Start()

	// Initialize export builder
	exporter := export.New(db, config.DataDir)

	// Initialize handlers
	h := handlers.New(db, coordinator, exporter, config, bookWarnings)

	// Setup router
	router := setupRouter(h, config.ThumbsDir)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply metrics middleware
	metricsConfig := middleware.DefaultMetricsConfig()
	measuredHandler := middleware.Metrics(metricsConfig)(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(measuredHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Serve Prometheus metrics on a separate port so scrapes never
	// compete with photo and archive traffic
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Kick off the startup index run
	if config.IndexOnStartup && config.PhotoRoot != "" {
		if coordinator.Start(false) {
			startup.LogIndexStarted()
		}
	}

	h.MarkReady()

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, collector, monitor)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// catalogStats feeds live catalog counts to the metrics collector. The
// collector drives the periodic stats refresh; on a failed refresh the
// last cached snapshot is reported instead.
type catalogStats struct {
	db *database.Database
}

func (s catalogStats) GetStats() metrics.Stats {
	stats, err := s.db.RefreshStats(context.Background())
	if err != nil {
		logging.Debug("Stats refresh failed: %v", err)
		stats = s.db.GetStats()
	}
	return metrics.Stats{
		TotalPhotos:       stats.TotalPhotos,
		PendingThumbnails: stats.PendingThumbnails,
		TotalBooks:        stats.TotalBooks,
		TotalSelected:     stats.TotalSelected,
	}
}

func setupRouter(h *handlers.Handlers, thumbsDir string) *mux.Router {
	r := mux.NewRouter()

	// Probe routes
	r.HandleFunc("/healthz", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET", "HEAD")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/books", h.ListBooks).Methods("GET")
	api.HandleFunc("/book/{id}", h.GetBook).Methods("GET")
	api.HandleFunc("/book/{id}/selection", h.UpdateSelection).Methods("PUT")
	api.HandleFunc("/book/{id}/selection", h.ClearSelection).Methods("DELETE")
	api.HandleFunc("/book/{id}/completion", h.SetCompletion).Methods("PATCH")
	api.HandleFunc("/index", h.TriggerIndex).Methods("POST")
	api.HandleFunc("/index/status", h.IndexStatus).Methods("GET")
	api.HandleFunc("/export/{id}", h.ExportBook).Methods("POST")
	api.HandleFunc("/health", h.HealthCheck).Methods("GET")
	api.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Generated thumbnails
	r.PathPrefix("/thumbs/").Handler(
		http.StripPrefix("/thumbs/", http.FileServer(http.Dir(thumbsDir))))

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
