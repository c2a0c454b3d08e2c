package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count sizes a worker pool from the CPUs actually available to the
// process. GOMAXPROCS tracks container CPU limits (Go 1.19+), unlike
// runtime.NumCPU which reports the host.
//
// The multiplier adjusts for the workload: 1.0 for CPU-bound work, 2.0
// for I/O-bound work, 1.5 for mixed. limit caps the result; 0 means no
// cap. The THUMBNAIL_WORKERS environment variable overrides the
// computed count (the cap still applies).
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("THUMBNAIL_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)
	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// ForCPU sizes a pool for CPU-bound work (1 worker per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO sizes a pool for I/O-bound work (2 workers per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed sizes a pool for mixed work (1.5 workers per CPU). Thumbnail
// generation is the typical case: decode is CPU-bound, the source read
// and thumbnail write are I/O.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
