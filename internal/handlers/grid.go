package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"thumbgrid/internal/grid"
	"thumbgrid/internal/logging"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"
)

// GridResponse describes the grid window.
type GridResponse struct {
	Offset int               `json:"offset"`
	Cells  []grid.CellStatus `json:"cells"`
}

// ScrollRequest moves the grid window.
type ScrollRequest struct {
	Offset *int `json:"offset"`
}

// GetGrid returns the window offset and each cell's binding.
func (h *Handlers) GetGrid(w http.ResponseWriter, r *http.Request) {
	h.writeGridStatus(w, r)
}

// ScrollGrid rebinds the grid cells to the page starting at the requested
// offset and returns the new status.
func (h *Handlers) ScrollGrid(w http.ResponseWriter, r *http.Request) {
	var req ScrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Offset == nil || *req.Offset < 0 {
		writeJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	if err := h.grid.Scroll(r.Context(), h.catalog, *req.Offset); err != nil {
		logging.Error("failed to scroll grid to %d: %v", *req.Offset, err)
		writeJSONError(w, "failed to scroll grid", http.StatusInternalServerError)
		return
	}
	h.writeGridStatus(w, r)
}

func (h *Handlers) writeGridStatus(w http.ResponseWriter, r *http.Request) {
	offset, cells, err := h.grid.Status(r.Context())
	if err != nil {
		logging.Error("failed to read grid status: %v", err)
		writeJSONError(w, "grid unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, GridResponse{Offset: offset, Cells: cells}, http.StatusOK)
}

// GetCellImage writes what a cell currently shows as JPEG: the thumbnail
// once applied, the placeholder while loading. An unbound cell answers 204.
func (h *Handlers) GetCellImage(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSONError(w, "invalid cell index", http.StatusBadRequest)
		return
	}
	cell := h.grid.Cell(i)
	if cell == nil {
		writeJSONError(w, "cell not found", http.StatusNotFound)
		return
	}

	img := cell.Image()
	if img == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(h.quality)); err != nil {
		if !errors.Is(err, r.Context().Err()) {
			logging.Warn("failed to encode cell %d: %v", i, err)
		}
	}
}
