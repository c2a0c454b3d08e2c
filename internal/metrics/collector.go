package metrics

import (
	"os"
	"time"

	"photobook/internal/logging"
)

// StatsProvider interface for collecting catalog stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current catalog statistics
type Stats struct {
	TotalPhotos       int
	PendingThumbnails int
	TotalBooks        int
	TotalSelected     int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// database file size collection.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	CatalogPhotosTotal.Set(float64(stats.TotalPhotos))
	CatalogPendingThumbnails.Set(float64(stats.PendingThumbnails))
	CatalogBooksTotal.Set(float64(stats.TotalBooks))
	CatalogSelectedTotal.Set(float64(stats.TotalSelected))

	c.collectDBSizes()

	logging.Debug("Metrics collected: photos=%d, pending_thumbs=%d, books=%d, selected=%d",
		stats.TotalPhotos, stats.PendingThumbnails, stats.TotalBooks, stats.TotalSelected)
}

// collectDBSizes records the on-disk size of the SQLite files.
func (c *Collector) collectDBSizes() {
	if c.dbPath == "" {
		return
	}

	for label, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		if info, err := os.Stat(path); err == nil {
			DBSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
		}
	}
}
