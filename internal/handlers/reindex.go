package handlers

import (
	"errors"
	"net/http"

	"thumbgrid/internal/index"
	"thumbgrid/internal/logging"
)

// TriggerReindex starts a scan of the source directory in the background.
// The grid picks up the result through the indexer's completion hook.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsScanning() {
		writeJSONStatusCode(w, map[string]string{
			"status":  "already_running",
			"message": "Indexing is already in progress",
		}, http.StatusConflict)
		return
	}

	go func() {
		result, err := h.indexer.ScanNow(h.ctx)
		switch {
		case errors.Is(err, index.ErrScanInProgress):
			logging.Debug("Manual reindex skipped, scan already running")
		case err != nil:
			logging.Error("Manual reindex failed: %v", err)
		default:
			logging.Info("Manual reindex complete: %d files, %d removed in %v",
				result.Files, result.Removed, result.Duration)
		}
	}()

	writeJSONStatusCode(w, map[string]string{
		"status":  "started",
		"message": "Re-indexing started",
	}, http.StatusAccepted)
}
