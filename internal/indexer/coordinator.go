package indexer

import (
	"fmt"
	"sync"
	"time"

	"photobook/internal/database"
	"photobook/internal/logging"
	"photobook/internal/metrics"
	"photobook/internal/thumbs"
)

// Number of catalog writes per committed batch. Progress snapshots are
// published at each commit so status polling sees movement on big runs.
const batchSize = 50

// State names one phase of the indexing lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
)

// Status is a point-in-time snapshot of the current or most recent
// index run.
type Status struct {
	State      State  `json:"state"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	Indexed    int    `json:"indexed"`
	New        int    `json:"new"`
	Updated    int    `json:"updated"`
	Removed    int    `json:"removed"`
	Errors     int    `json:"errors"`
	Message    string `json:"message"`
}

// MemoryGate throttles thumbnail decoding while process memory runs
// high. The indexer checks it before every decode; a nil gate never
// blocks.
type MemoryGate interface {
	// WaitIfPaused blocks until decoding may proceed and reports
	// whether it had to wait.
	WaitIfPaused() bool
}

// Coordinator serializes index runs and publishes their progress. At
// most one run is active at a time; triggers that arrive while a run is
// active are rejected rather than queued.
type Coordinator struct {
	db     *database.Database
	thumbs *thumbs.Generator
	root   string
	gate   MemoryGate

	mu     sync.Mutex
	status Status
}

func New(db *database.Database, gen *thumbs.Generator, root string, gate MemoryGate) *Coordinator {
	return &Coordinator{
		db:     db,
		thumbs: gen,
		root:   root,
		gate:   gate,
		status: Status{State: StateIdle},
	}
}

// Start launches an index run in the background. It returns false
// without side effects when a run is already active.
func (c *Coordinator) Start(force bool) bool {
	c.mu.Lock()
	if c.status.State == StateRunning {
		c.mu.Unlock()
		logging.Info("Index already in progress, trigger rejected")
		metrics.IndexRunsTotal.WithLabelValues("rejected").Inc()
		return false
	}
	c.status = Status{
		State:     StateRunning,
		StartedAt: nowStamp(),
		Message:   "Indexing...",
	}
	c.mu.Unlock()

	go c.runOnce(force)
	return true
}

// Status returns a copy of the current run state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsRunning reports whether an index run is in flight.
func (c *Coordinator) IsRunning() bool {
	return c.Status().State == StateRunning
}

// runCounters accumulates the per-run tallies surfaced in Status.
type runCounters struct {
	indexed int
	added   int
	updated int
	removed int
	errors  int
}

// runOnce executes one full reconcile pass and records its outcome.
// The caller must already have moved the status to StateRunning.
func (c *Coordinator) runOnce(force bool) {
	metrics.IndexIsRunning.Set(1)
	defer metrics.IndexIsRunning.Set(0)

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Index run panicked: %v", r)
			c.fail(fmt.Sprintf("Index failed: %v", r))
			metrics.IndexRunsTotal.WithLabelValues("error").Inc()
		}
	}()

	logging.Info("Index run started (force=%v)", force)

	counts, err := c.reconcile(force)
	if err != nil {
		logging.Error("Index run failed: %v", err)
		c.fail(err.Error())
		metrics.IndexRunsTotal.WithLabelValues("error").Inc()
		return
	}

	c.complete(counts)

	duration := time.Since(start)
	metrics.IndexRunsTotal.WithLabelValues("complete").Inc()
	metrics.IndexLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexLastRunDuration.Set(duration.Seconds())
	metrics.IndexFilesProcessed.Add(float64(counts.indexed))
	metrics.IndexErrors.Add(float64(counts.errors))
	metrics.IndexLastRunFiles.WithLabelValues("new").Set(float64(counts.added))
	metrics.IndexLastRunFiles.WithLabelValues("updated").Set(float64(counts.updated))
	metrics.IndexLastRunFiles.WithLabelValues("removed").Set(float64(counts.removed))
	metrics.IndexLastRunFiles.WithLabelValues("errors").Set(float64(counts.errors))

	logging.Info("Index complete: %d new, %d updated, %d removed, %d errors in %v",
		counts.added, counts.updated, counts.removed, counts.errors, duration)
}

// publishProgress updates the counters and message of a running status.
func (c *Coordinator) publishProgress(counts runCounters, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.Indexed = counts.indexed
	c.status.New = counts.added
	c.status.Updated = counts.updated
	c.status.Removed = counts.removed
	c.status.Errors = counts.errors
	c.status.Message = message
}

func (c *Coordinator) complete(counts runCounters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = StateComplete
	c.status.FinishedAt = nowStamp()
	c.status.Indexed = counts.indexed
	c.status.New = counts.added
	c.status.Updated = counts.updated
	c.status.Removed = counts.removed
	c.status.Errors = counts.errors
	c.status.Message = "Index complete"
}

// fail moves the run to the error state. Counters keep their last
// published values so partial progress stays visible.
func (c *Coordinator) fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = StateError
	c.status.FinishedAt = nowStamp()
	c.status.Message = message
}

func nowStamp() string {
	return time.Now().UTC().Format(database.DateTakenLayout)
}
