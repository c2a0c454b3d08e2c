/*
Package filesystem wraps os.Stat and os.Open with retry logic for NFS
stale file handle errors.

# Purpose

Photo libraries commonly live on NAS exports mounted over NFS. When
the server reboots or an exported file changes identity, clients see
ESTALE (stale file handle, errno 116) on paths that are perfectly
healthy a moment later. A single ESTALE during an index run or an
export build would otherwise fail the whole operation.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Custom retry configuration:

	config := filesystem.RetryConfig{
	    MaxRetries:     5,
	    InitialBackoff: 100 * time.Millisecond,
	    MaxBackoff:     1 * time.Second,
	}

# Retry Behavior

Only ESTALE triggers retries; every other error returns immediately.
Defaults are 3 retries with exponential backoff 50ms, 100ms, 200ms,
capped at 500ms.

# Metrics

Operations report to an [Observer] installed via [SetObserver]; the
metrics package provides the Prometheus implementation. Labels carry a
volume name resolved from the path by the [VolumeResolver] configured
at startup (photos, data, thumbs), so dashboards can tell NAS trouble
from local-disk trouble. With no observer installed, recording is a
no-op.

# Integration

The indexer stats every photo through this package during a scan, the
export builder opens archive sources through it, and EXIF extraction
opens originals through it. All three touch the photo root, the one
volume likely to be NFS.
*/
package filesystem
