/*
Package workers sizes worker pools from the CPUs actually available to
the process.

In containers the CPU budget is usually smaller than the host's core
count. Go 1.19+ sets GOMAXPROCS from the cgroup CPU limit, while
runtime.NumCPU still reports the host, so pools sized from NumCPU
oversubscribe a limited container badly (context switching, throttling,
goroutine stack pressure).

The helpers here derive counts from GOMAXPROCS with a workload
multiplier:

	// Decode-heavy work, 1 worker per CPU, capped at 8
	n := workers.ForCPU(8)

	// Mixed decode and disk work, 1.5 workers per CPU
	n := workers.ForMixed(8)

Thumbnail generation during index runs is the one parallel workload in
this application; the THUMBNAIL_WORKERS environment variable overrides
the computed count when a deployment needs manual control.
*/
package workers
