// Package memory configures Go's runtime memory limit for containers
// and provides backpressure when the heap runs close to it.
//
// # Overview
//
// In Kubernetes and similar orchestrators a process that exceeds its
// container memory limit is OOM-killed. Go detects cgroup CPU limits
// automatically (GOMAXPROCS) but never reads the memory limit, so
// GOMEMLIMIT must be configured explicitly. This package does that
// from environment variables, and offers a [Monitor] that pauses
// thumbnail decoding while heap usage is critical. Decoding a large
// photo inflates the full bitmap in memory; a burst of concurrent
// decodes is the one thing in this application that can spike the
// heap past the limit.
//
// # Configuration
//
// Call [ConfigureFromEnv] first in main, before significant
// allocations:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ... rest of startup
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go variable, e.g. "400MiB". If set it takes
//     precedence; the runtime honored it at startup and this package
//     only reports it.
//
//   - MEMORY_LIMIT: Container memory limit in bytes, typically
//     injected via the Kubernetes Downward API. GOMEMLIMIT is derived
//     from it.
//
//   - MEMORY_RATIO: Fraction of MEMORY_LIMIT given to the Go heap,
//     0.0-1.0. Default 0.85; the rest covers libvips decode buffers,
//     SQLite, and goroutine stacks, none of which count against the
//     Go heap.
//
// # Kubernetes Configuration
//
// Pass the container limit through the Downward API:
//
//	spec:
//	  containers:
//	  - name: photobook
//	    resources:
//	      limits:
//	        memory: "512Mi"
//	    env:
//	    - name: MEMORY_LIMIT
//	      valueFrom:
//	        resourceFieldRef:
//	          resource: limits.memory
//
// Lower MEMORY_RATIO (say 0.75) when libvips handles very large
// originals; its buffers live outside the Go heap and need the
// headroom.
//
// # Memory Monitoring
//
// The [Monitor] samples heap usage on an interval and compares it to
// the limit. Above the critical mark it pauses and triggers a GC;
// below the high water mark it resumes. Workers consult it before
// memory-intensive operations:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	// In a worker:
//	if !monitor.WaitIfPaused() {
//	    return // monitor stopped
//	}
//	// ... decode
//
// The indexer consults the monitor before every thumbnail decode, so
// an index run over a large library degrades to pausing instead of
// getting the process killed.
//
// # GOMEMLIMIT Caveats
//
// GOMEMLIMIT is a soft limit: the GC works harder near it but the
// heap may still exceed it briefly. It also covers only Go heap
// allocations, not CGO or mmap. Both are reasons to keep the ratio
// below 1.0.
package memory
