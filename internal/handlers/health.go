package handlers

import (
	"net/http"
	"runtime"
	"time"

	"thumbgrid/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Indexing bool   `json:"indexing"`
	Sources  int    `json:"sources"`
	Error    string `json:"error,omitempty"`

	// Cache occupancy
	MemoryCacheEntries  int `json:"memoryCacheEntries"`
	MemoryCacheCapacity int `json:"memoryCacheCapacity"`
	GridSlots           int `json:"gridSlots"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health. The service is degraded, and answers
// 503, when the source index cannot be queried.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:              statusHealthy,
		Version:             startup.Version,
		Uptime:              time.Since(h.startTime).Round(time.Second).String(),
		Indexing:            h.indexer.IsScanning(),
		MemoryCacheEntries:  h.cache.Memory().Len(),
		MemoryCacheCapacity: h.cache.Memory().Capacity(),
		GridSlots:           h.grid.Len(),
		GoVersion:           runtime.Version(),
		NumCPU:              runtime.NumCPU(),
		NumGoroutine:        runtime.NumGoroutine(),
	}

	statusCode := http.StatusOK
	count, err := h.catalog.Count(r.Context())
	if err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
		statusCode = http.StatusServiceUnavailable
	}
	response.Sources = count

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, response, statusCode)
}

// LivenessCheck answers 200 while the process is serving requests.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}
