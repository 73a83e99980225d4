package handlers

import (
	"net/http"

	"thumbgrid/internal/index"
	"thumbgrid/internal/logging"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// SourcesResponse is one page of indexed sources.
type SourcesResponse struct {
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	Total   int            `json:"total"`
	Sources []index.Source `json:"sources"`
}

// ListSources returns ?offset=&limit= sources in display order.
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeJSONError(w, "invalid offset", http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit", defaultPageSize)
	if !ok {
		writeJSONError(w, "invalid limit", http.StatusBadRequest)
		return
	}
	limit = min(limit, maxPageSize)

	sources, err := h.catalog.Sources(r.Context(), offset, limit)
	if err != nil {
		logging.Error("failed to list sources at offset %d: %v", offset, err)
		writeJSONError(w, "failed to list sources", http.StatusInternalServerError)
		return
	}
	total, err := h.catalog.Count(r.Context())
	if err != nil {
		logging.Error("failed to count sources: %v", err)
		writeJSONError(w, "failed to count sources", http.StatusInternalServerError)
		return
	}

	writeJSONStatusCode(w, SourcesResponse{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Sources: sources,
	}, http.StatusOK)
}
