package metrics

// FilesystemObserver records filesystem retry outcomes into the Prometheus
// metrics declared in this package. It satisfies filesystem.Observer.
type FilesystemObserver struct{}

// NewFilesystemObserver creates a filesystem retry observer.
func NewFilesystemObserver() *FilesystemObserver {
	return &FilesystemObserver{}
}

func (o *FilesystemObserver) ObserveRetryAttempt(retryOp, volume string) {
	FilesystemRetryAttempts.WithLabelValues(retryOp, volume).Inc()
}

func (o *FilesystemObserver) ObserveRetrySuccess(retryOp, volume string) {
	FilesystemRetrySuccess.WithLabelValues(retryOp, volume).Inc()
}

func (o *FilesystemObserver) ObserveRetryFailure(retryOp, volume string) {
	FilesystemRetryFailures.WithLabelValues(retryOp, volume).Inc()
}

func (o *FilesystemObserver) ObserveRetryDuration(retryOp, volume string, durationSeconds float64) {
	FilesystemRetryDuration.WithLabelValues(retryOp, volume).Observe(durationSeconds)
}

func (o *FilesystemObserver) ObserveStaleError(retryOp, volume string) {
	FilesystemStaleErrors.WithLabelValues(retryOp, volume).Inc()
}

// LoadObserver records load coordinator events. It satisfies
// loader.Observer.
type LoadObserver struct{}

// NewLoadObserver creates a load coordinator observer.
func NewLoadObserver() *LoadObserver {
	return &LoadObserver{}
}

func (o *LoadObserver) ObserveRequest(source string) {
	LoadRequestsTotal.WithLabelValues(source).Inc()
	if source == "dispatched" {
		LoadTasksInFlight.Inc()
	}
}

func (o *LoadObserver) ObserveOutcome(outcome string, durationSeconds float64) {
	LoadTasksInFlight.Dec()
	LoadOutcomesTotal.WithLabelValues(outcome).Inc()
	LoadDuration.WithLabelValues(outcome).Observe(durationSeconds)
}

func (o *LoadObserver) ObserveFailure(kind string, _ error) {
	LoadFailuresTotal.WithLabelValues(kind).Inc()
}
