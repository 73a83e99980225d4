package handlers

import (
	"context"
	"net/http"
	"time"

	"thumbgrid/internal/cache"
	"thumbgrid/internal/grid"
	"thumbgrid/internal/index"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the ordered list of indexed sources. index.Index satisfies it.
type Catalog interface {
	grid.PathSource
	Sources(ctx context.Context, offset, limit int) ([]index.Source, error)
	Count(ctx context.Context) (int, error)
}

// Reindexer starts scans of the source directory. index.Indexer satisfies it.
type Reindexer interface {
	ScanNow(ctx context.Context) (index.ScanResult, error)
	IsScanning() bool
}

// Config wires the handlers to the running components.
type Config struct {
	Catalog Catalog
	Indexer Reindexer
	Grid    *grid.Grid
	Cache   *cache.Service
	// JPEGQuality is used when serving cell images.
	JPEGQuality int
}

// Handlers serves the HTTP API.
type Handlers struct {
	// ctx bounds background work started by requests, such as reindexing.
	ctx       context.Context
	catalog   Catalog
	indexer   Reindexer
	grid      *grid.Grid
	cache     *cache.Service
	quality   int
	startTime time.Time
}

// New creates the handlers. ctx should be cancelled on shutdown.
func New(ctx context.Context, cfg Config) *Handlers {
	quality := cfg.JPEGQuality
	if quality <= 0 {
		quality = cache.DefaultQuality
	}
	return &Handlers{
		ctx:       ctx,
		catalog:   cfg.Catalog,
		indexer:   cfg.Indexer,
		grid:      cfg.Grid,
		cache:     cfg.Cache,
		quality:   quality,
		startTime: time.Now(),
	}
}

// RegisterRoutes adds every route to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sources", h.ListSources).Methods(http.MethodGet)
	api.HandleFunc("/grid", h.GetGrid).Methods(http.MethodGet)
	api.HandleFunc("/grid/scroll", h.ScrollGrid).Methods(http.MethodPost)
	api.HandleFunc("/grid/cells/{index:[0-9]+}", h.GetCellImage).Methods(http.MethodGet)
	api.HandleFunc("/reindex", h.TriggerReindex).Methods(http.MethodPost)
}
