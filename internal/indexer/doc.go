// Package indexer reconciles the photo catalog with the filesystem.
//
// A run walks the photo root and compares every supported file against
// the catalog:
//   - Unknown paths are inserted with a capture date taken from EXIF,
//     falling back to the file's modification time.
//   - Known paths whose size or mtime changed (or every path, when
//     forced) are re-dated and their thumbnail reset for regeneration.
//   - Catalog rows whose files vanished are removed together with
//     their selections and thumbnail files.
//
// After reconciliation a backfill pass generates a thumbnail for every
// photo still waiting on one, so interrupted runs pick up where they
// left off.
//
// Runs execute in the background and are single-flight: triggering
// while a run is active is rejected, not queued. Writes are committed
// in small batches with progress published after each commit, keeping
// the status endpoint live during large scans.
package indexer
