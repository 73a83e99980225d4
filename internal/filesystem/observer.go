package filesystem

// Observer records filesystem retry metrics. The metrics package provides an
// implementation; this package never imports it.
type Observer interface {
	// retryOp is "stat" or "open"; volume is the resolved label
	// ("source", "cache", "unknown").
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

var defaultObserver Observer

// SetObserver installs the package-level metrics observer. nil disables
// recording, which is what tests get by default.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}

type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}
