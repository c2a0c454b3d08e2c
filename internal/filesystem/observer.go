package filesystem

// Observer receives filesystem operation measurements. The concrete
// implementation lives in the metrics package; taking an interface
// here keeps this package free of Prometheus imports and lets tests
// substitute a recorder.
type Observer interface {
	// ObserveOperation records one attempt of a filesystem operation.
	// volume is the resolved mount label ("photos", "data", "thumbs");
	// operation is "stat" or "open".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// The retry family tracks stale NFS handle recovery.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// nopObserver drops all measurements. It stands in whenever no
// observer is registered so call sites never nil-check.
type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)              {}
func (nopObserver) ObserveRetrySuccess(string, string)              {}
func (nopObserver) ObserveRetryFailure(string, string)              {}
func (nopObserver) ObserveRetryDuration(string, string, float64)    {}
func (nopObserver) ObserveStaleError(string, string)                {}

var defaultObserver Observer = nopObserver{}

// SetObserver installs the package-level observer. Call once at
// startup; passing nil restores the no-op observer.
func SetObserver(o Observer) {
	if o == nil {
		defaultObserver = nopObserver{}
		return
	}
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
