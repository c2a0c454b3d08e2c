package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"photobook/internal/database"
	"photobook/internal/filesystem"
	"photobook/internal/logging"
	"photobook/internal/mediatypes"
	"photobook/internal/metadata"
	"photobook/internal/metrics"
	"photobook/internal/thumbs"
	"photobook/internal/workers"
)

// Upper bound on concurrent thumbnail decodes. Generation is mixed
// CPU and I/O, so the pool scales at 1.5x the CPU budget up to this.
const thumbWorkerCap = 8

// scanOutcome is the classification of one walk over the photo root.
type scanOutcome struct {
	inserts []database.Photo
	updates []photoUpdate
	seen    map[string]bool
	errors  int
}

type photoUpdate struct {
	id        int64
	oldThumb  string
	dateTaken string
	mtime     float64
	size      int64
}

// reconcile brings the catalog in line with the filesystem: new files
// are inserted, changed files re-dated and queued for a fresh
// thumbnail, vanished files removed together with their selections, and
// finally every pending thumbnail is generated.
func (c *Coordinator) reconcile(force bool) (runCounters, error) {
	var counts runCounters

	if _, err := os.Stat(c.root); err != nil {
		return counts, fmt.Errorf("PHOTO_ROOT does not exist: %s", c.root)
	}

	ctx := context.Background()

	existing, err := c.db.LoadPhotoIndex(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to load photo index: %w", err)
	}

	scan, err := c.scanRoot(existing, force)
	if err != nil {
		return counts, fmt.Errorf("failed to scan %s: %w", c.root, err)
	}
	counts.errors = scan.errors

	if err := c.applyInserts(scan.inserts, &counts); err != nil {
		return counts, err
	}
	if err := c.applyUpdates(scan.updates, &counts); err != nil {
		return counts, err
	}
	if err := c.removeMissing(existing, scan.seen, &counts); err != nil {
		return counts, err
	}
	if err := c.backfillThumbnails(ctx, &counts); err != nil {
		return counts, err
	}

	if _, err := c.db.RefreshStats(ctx); err != nil {
		logging.Warn("Failed to refresh catalog stats: %v", err)
	}

	return counts, nil
}

// scanRoot walks the photo root and classifies every supported file
// against the loaded catalog. It performs no writes; the collected
// inserts and updates are applied in batches afterwards.
func (c *Coordinator) scanRoot(existing map[string]*database.Photo, force bool) (*scanOutcome, error) {
	scan := &scanOutcome{seen: make(map[string]bool)}

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Error accessing %s: %v", path, err)
			scan.errors++
			return nil
		}
		if d.IsDir() || !mediatypes.IsPhotoFile(path) {
			return nil
		}

		// Stat rather than d.Info so symlinked photos resolve to
		// their target's size and mtime. Photo roots are often NFS
		// mounts, so stale handles get retried.
		info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
		if err != nil {
			logging.Warn("Failed to stat %s: %v", path, err)
			scan.errors++
			return nil
		}

		scan.seen[path] = true
		mtime := database.FileMtimeOf(info.ModTime())

		prior, ok := existing[path]
		if !ok {
			taken := metadata.CaptureDate(path, info.ModTime())
			scan.inserts = append(scan.inserts, database.Photo{
				FilePath:  path,
				DateTaken: taken.Format(database.DateTakenLayout),
				FileMtime: mtime,
				FileSize:  info.Size(),
			})
			return nil
		}

		if force || prior.FileMtime != mtime || prior.FileSize != info.Size() {
			taken := metadata.CaptureDate(path, info.ModTime())
			scan.updates = append(scan.updates, photoUpdate{
				id:        prior.ID,
				oldThumb:  prior.ThumbnailPath,
				dateTaken: taken.Format(database.DateTakenLayout),
				mtime:     mtime,
				size:      info.Size(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Debug("Scan found %d files: %d new, %d changed",
		len(scan.seen), len(scan.inserts), len(scan.updates))
	return scan, nil
}

func (c *Coordinator) applyInserts(photos []database.Photo, counts *runCounters) error {
	for start := 0; start < len(photos); start += batchSize {
		end := start + batchSize
		if end > len(photos) {
			end = len(photos)
		}

		tx, err := c.db.BeginBatch()
		if err != nil {
			return fmt.Errorf("failed to begin insert batch: %w", err)
		}
		for i := start; i < end; i++ {
			if err := c.db.InsertPhoto(tx, &photos[i]); err != nil {
				return c.db.EndBatch(tx, fmt.Errorf("failed to insert %s: %w", photos[i].FilePath, err))
			}
			counts.added++
			counts.indexed++
		}
		if err := c.db.EndBatch(tx, nil); err != nil {
			return fmt.Errorf("failed to commit insert batch: %w", err)
		}
		c.publishProgress(*counts, fmt.Sprintf("Indexing... %d processed", counts.indexed))
	}
	return nil
}

func (c *Coordinator) applyUpdates(updates []photoUpdate, counts *runCounters) error {
	for start := 0; start < len(updates); start += batchSize {
		end := start + batchSize
		if end > len(updates) {
			end = len(updates)
		}

		tx, err := c.db.BeginBatch()
		if err != nil {
			return fmt.Errorf("failed to begin update batch: %w", err)
		}
		for _, u := range updates[start:end] {
			// Drop the stale thumbnail so backfill regenerates it
			// instead of reusing the old rendition.
			if u.oldThumb != "" {
				c.thumbs.Remove(u.id)
			}
			if err := c.db.UpdatePhotoContent(tx, u.id, u.dateTaken, u.mtime, u.size); err != nil {
				return c.db.EndBatch(tx, fmt.Errorf("failed to update photo %d: %w", u.id, err))
			}
			counts.updated++
			counts.indexed++
		}
		if err := c.db.EndBatch(tx, nil); err != nil {
			return fmt.Errorf("failed to commit update batch: %w", err)
		}
		c.publishProgress(*counts, fmt.Sprintf("Indexing... %d processed", counts.indexed))
	}
	return nil
}

// removeMissing deletes catalog rows whose files vanished from disk.
// Each chunk removes the selections and the photos in one transaction
// so a selection row never outlives its photo.
func (c *Coordinator) removeMissing(existing map[string]*database.Photo, seen map[string]bool, counts *runCounters) error {
	var missing []string
	for path := range existing {
		if !seen[path] {
			missing = append(missing, path)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	for start := 0; start < len(missing); start += database.DeleteChunkSize {
		end := start + database.DeleteChunkSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[start:end]

		for _, path := range chunk {
			if p := existing[path]; p.ThumbnailPath != "" {
				c.thumbs.Remove(p.ID)
			}
		}

		tx, err := c.db.BeginBatch()
		if err != nil {
			return fmt.Errorf("failed to begin removal batch: %w", err)
		}
		if _, err := c.db.DeletePhotosByPath(tx, chunk); err != nil {
			return c.db.EndBatch(tx, fmt.Errorf("failed to remove missing photos: %w", err))
		}
		if err := c.db.EndBatch(tx, nil); err != nil {
			return fmt.Errorf("failed to commit removal batch: %w", err)
		}
		counts.removed += len(chunk)
	}

	logging.Info("Removed %d missing photos from catalog", counts.removed)
	return nil
}

// thumbResult is the outcome of one concurrent thumbnail generation.
type thumbResult struct {
	ref string
	err error
}

// backfillThumbnails generates a thumbnail for every photo still
// waiting on one. A photo whose source vanished mid-run is skipped
// quietly; the next run removes its row. Generation failures leave the
// photo pending so a later run retries it. Each batch is rendered
// across a worker pool, then recorded in a single transaction.
func (c *Coordinator) backfillThumbnails(ctx context.Context, counts *runCounters) error {
	pending, err := c.db.PendingThumbnails(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending thumbnails: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	total := len(pending)
	done := 0
	workerCount := workers.ForMixed(thumbWorkerCap)
	metrics.IndexThumbnailWorkers.Set(float64(workerCount))
	logging.Info("Generating %d thumbnails with %d workers...", total, workerCount)

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		batch := pending[start:end]

		results := c.generateBatch(batch, workerCount)

		tx, err := c.db.BeginBatch()
		if err != nil {
			return fmt.Errorf("failed to begin thumbnail batch: %w", err)
		}
		for i, p := range batch {
			done++
			if results[i].err != nil {
				if errors.Is(results[i].err, thumbs.ErrSourceMissing) {
					continue
				}
				logging.Warn("Thumbnail generation failed for %s: %v", p.FilePath, results[i].err)
				counts.errors++
				continue
			}
			if err := c.db.SetThumbnail(tx, p.ID, results[i].ref); err != nil {
				return c.db.EndBatch(tx, fmt.Errorf("failed to record thumbnail for photo %d: %w", p.ID, err))
			}
		}
		if err := c.db.EndBatch(tx, nil); err != nil {
			return fmt.Errorf("failed to commit thumbnail batch: %w", err)
		}
		c.publishProgress(*counts, fmt.Sprintf("Generating thumbnails... %d/%d", done, total))
	}

	return nil
}

// generateBatch renders one batch of thumbnails across a bounded
// worker pool. Results line up with batch by index; database writes
// stay with the caller so the transaction is only touched from one
// goroutine.
func (c *Coordinator) generateBatch(batch []database.Photo, workerCount int) []thumbResult {
	results := make([]thumbResult, len(batch))
	if workerCount > len(batch) {
		workerCount = len(batch)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if c.gate != nil {
					c.gate.WaitIfPaused()
				}
				ref, err := c.thumbs.Ensure(batch[i].ID, batch[i].FilePath)
				results[i] = thumbResult{ref: ref, err: err}
			}
		}()
	}
	for i := range batch {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
