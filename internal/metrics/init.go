package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- DB query operations ---
	for _, op := range []string{
		"load_photo_index", "pending_thumbnails", "get_photo_by_path",
		"photo_paths_by_ids", "upsert_books", "get_book", "list_books",
		"set_book_completion", "list_book_photos", "selected_count",
		"filter_photo_ids", "upsert_selections", "clear_selections",
		"selected_photo_ids", "refresh_stats", "vacuum",
	} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}

	for _, op := range []string{"delete_photos"} {
		DBRowsAffected.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	// --- Index run outcomes ---
	for _, outcome := range []string{"complete", "error", "rejected"} {
		IndexRunsTotal.WithLabelValues(outcome)
	}

	for _, result := range []string{"new", "updated", "removed", "errors"} {
		IndexLastRunFiles.WithLabelValues(result)
	}

	// --- Thumbnail generation outcomes ---
	for _, status := range []string{"success", "error", "reused", "source_missing"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	// --- Export outcomes ---
	for _, status := range []string{"success", "error", "empty"} {
		ExportArchivesTotal.WithLabelValues(status)
	}

	// --- Filesystem operations per volume ---
	for _, volume := range []string{"photos", "data", "thumbs", "unknown"} {
		for _, op := range []string{"stat", "open"} {
			FilesystemOperationDuration.WithLabelValues(volume, op)
			FilesystemOperationErrors.WithLabelValues(volume, op)
			FilesystemRetryAttempts.WithLabelValues(op, volume)
			FilesystemRetrySuccess.WithLabelValues(op, volume)
			FilesystemRetryFailures.WithLabelValues(op, volume)
			FilesystemRetryDuration.WithLabelValues(op, volume)
			FilesystemStaleErrors.WithLabelValues(op, volume)
		}
	}
}
