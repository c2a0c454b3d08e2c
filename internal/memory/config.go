package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"photobook/internal/logging"
)

// DefaultMemoryRatio is the share of the container memory limit given
// to the Go heap. The remainder stays free for libvips decode buffers,
// SQLite, and goroutine stacks.
const DefaultMemoryRatio = 0.85

// Source values reported in ConfigResult.
const (
	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMEMORYLIMIT = "MEMORY_LIMIT"
	sourceNone        = "none"
)

// ConfigResult reports what ConfigureFromEnv decided.
type ConfigResult struct {
	// Configured indicates whether a memory limit was applied.
	Configured bool

	// Source names the environment variable the limit came from.
	Source string

	// ContainerLimit is the container memory limit in bytes (0 if unset).
	ContainerLimit int64

	// GoMemLimit is the effective Go heap limit in bytes (0 if unset).
	GoMemLimit int64

	// Ratio is the fraction of ContainerLimit given to the heap
	// (0 when the limit came straight from GOMEMLIMIT).
	Ratio float64
}

// ConfigureFromEnv derives GOMEMLIMIT from the container memory limit.
// Call it first in main, before significant allocations.
//
// GOMEMLIMIT, if set, wins outright; the runtime already honored it at
// startup. Otherwise MEMORY_LIMIT (bytes, typically injected via the
// Kubernetes Downward API) scaled by MEMORY_RATIO becomes the heap
// limit. Without either, nothing is configured.
func ConfigureFromEnv() ConfigResult {
	result := ConfigResult{}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = sourceGOMEMLIMIT
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, leaving GOMEMLIMIT unconfigured")
		result.Source = sourceNone
		return result
	}

	memLimit, err := strconv.ParseInt(memLimitStr, 10, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", memLimitStr, err)
		result.Source = sourceNone
		return result
	}

	result.ContainerLimit = memLimit

	ratio := DefaultMemoryRatio
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		if parsed, err := strconv.ParseFloat(ratioStr, 64); err == nil {
			if parsed > 0 && parsed <= 1.0 {
				ratio = parsed
			} else {
				logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
			}
		} else {
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		}
	}
	result.Ratio = ratio

	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = sourceMEMORYLIMIT
	result.GoMemLimit = goMemLimit

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit))

	return result
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
