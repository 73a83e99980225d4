package loader

// Observer receives coordinator events. The metrics package provides the
// production implementation; this package never imports it.
type Observer interface {
	// ObserveRequest is called for every Request. source is "memory" when
	// the memory tier served it and "dispatched" when a task was submitted.
	ObserveRequest(source string)
	// ObserveOutcome is called once per dispatched task when its completion
	// is handled. outcome is "applied" or "discarded".
	ObserveOutcome(outcome string, durationSeconds float64)
	// ObserveFailure is called when a task fails. kind is one of "probe",
	// "decode", "metadata", "disk_write", "disk_read" or "unknown".
	ObserveFailure(kind string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string)          {}
func (nopObserver) ObserveOutcome(string, float64) {}
func (nopObserver) ObserveFailure(string, error)   {}
