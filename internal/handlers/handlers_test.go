package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"thumbgrid/internal/cache"
	"thumbgrid/internal/grid"
	"thumbgrid/internal/index"
	"thumbgrid/internal/loader"
	"thumbgrid/internal/workers"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

const testThumbSize = 32

// =============================================================================
// Fakes
// =============================================================================

type fakeCatalog struct {
	sources  []index.Source
	countErr error
}

func newFakeCatalog(paths ...string) *fakeCatalog {
	c := &fakeCatalog{}
	for _, p := range paths {
		c.sources = append(c.sources, index.Source{Path: p, Name: p})
	}
	return c
}

func (c *fakeCatalog) page(offset, limit int) []index.Source {
	if offset >= len(c.sources) {
		return []index.Source{}
	}
	return c.sources[offset:min(offset+limit, len(c.sources))]
}

func (c *fakeCatalog) Paths(_ context.Context, offset, limit int) ([]string, error) {
	page := c.page(offset, limit)
	paths := make([]string, len(page))
	for i, s := range page {
		paths[i] = s.Path
	}
	return paths, nil
}

func (c *fakeCatalog) Sources(_ context.Context, offset, limit int) ([]index.Source, error) {
	return c.page(offset, limit), nil
}

func (c *fakeCatalog) Count(context.Context) (int, error) {
	if c.countErr != nil {
		return 0, c.countErr
	}
	return len(c.sources), nil
}

type fakeReindexer struct {
	scanning atomic.Bool
	scans    chan struct{}
}

func (r *fakeReindexer) ScanNow(context.Context) (index.ScanResult, error) {
	r.scans <- struct{}{}
	return index.ScanResult{Files: 1}, nil
}

func (r *fakeReindexer) IsScanning() bool {
	return r.scanning.Load()
}

type solidProducer struct{}

func (solidProducer) Produce(_ string, width, height int) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	return img, nil
}

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	h       *Handlers
	router  *mux.Router
	catalog *fakeCatalog
	indexer *fakeReindexer
}

func newHarness(t *testing.T, catalog *fakeCatalog, cells int) *harness {
	t.Helper()

	svc, err := cache.New(cache.Config{Dir: t.TempDir(), MemoryEntries: 16})
	if err != nil {
		t.Fatalf("cache.New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := loader.NewLoop(64)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	pool := workers.NewPool(2, 32)
	t.Cleanup(pool.Close)

	coord, err := loader.NewCoordinator(loader.Config{
		Cache:       svc,
		Producer:    solidProducer{},
		Pool:        pool,
		Loop:        loop,
		Placeholder: image.NewGray(image.Rect(0, 0, testThumbSize, testThumbSize)),
	})
	if err != nil {
		t.Fatalf("NewCoordinator() error: %v", err)
	}

	indexer := &fakeReindexer{scans: make(chan struct{}, 4)}
	h := New(ctx, Config{
		Catalog: catalog,
		Indexer: indexer,
		Grid:    grid.New(coord, loop, cells, testThumbSize, testThumbSize),
		Cache:   svc,
	})

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return &harness{h: h, router: router, catalog: catalog, indexer: indexer}
}

func (hs *harness) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	hs.router.ServeHTTP(rec, req)
	return rec
}

func (hs *harness) waitSettled(t *testing.T) GridResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := hs.do(http.MethodGet, "/api/grid", "")
		var resp GridResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode grid response: %v", err)
		}
		pending := false
		for _, c := range resp.Cells {
			if c.State == "pending" {
				pending = true
			}
		}
		if !pending {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for grid to settle: %+v", resp.Cells)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// =============================================================================
// Health and version
// =============================================================================

func TestHealthCheck(t *testing.T) {
	hs := newHarness(t, newFakeCatalog("/a.jpg", "/b.jpg"), 4)

	rec := hs.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusHealthy {
		t.Errorf("Expected status %q, got %q", statusHealthy, resp.Status)
	}
	if resp.Sources != 2 {
		t.Errorf("Expected 2 sources, got %d", resp.Sources)
	}
	if resp.GridSlots != 4 {
		t.Errorf("Expected 4 grid slots, got %d", resp.GridSlots)
	}
	if resp.MemoryCacheCapacity != 16 {
		t.Errorf("Expected memory capacity 16, got %d", resp.MemoryCacheCapacity)
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.countErr = errors.New("database is locked")
	hs := newHarness(t, catalog, 1)

	rec := hs.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != statusDegraded {
		t.Errorf("Expected status %q, got %q", statusDegraded, resp.Status)
	}
	if resp.Error == "" {
		t.Error("Expected an error message in degraded response")
	}
}

func TestLivenessCheck(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)

	rec := hs.do(http.MethodGet, "/livez", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alive") {
		t.Errorf("Unexpected GET /livez response: %d %q", rec.Code, rec.Body.String())
	}

	rec = hs.do(http.MethodHead, "/livez", "")
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD /livez should return 200 without a body, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetVersion(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)

	rec := hs.do(http.MethodGet, "/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var info map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info["version"] == "" {
		t.Errorf("Expected a version field, got %v", info)
	}
}

func TestMetricsRoute(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)

	rec := hs.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("Expected default Go collector output")
	}
}

// =============================================================================
// Sources
// =============================================================================

func TestListSources(t *testing.T) {
	hs := newHarness(t, newFakeCatalog("/a.jpg", "/b.jpg", "/c.jpg"), 1)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantPaths  []string
	}{
		{"defaults", "", http.StatusOK, []string{"/a.jpg", "/b.jpg", "/c.jpg"}},
		{"paged", "?offset=1&limit=1", http.StatusOK, []string{"/b.jpg"}},
		{"past end", "?offset=10", http.StatusOK, []string{}},
		{"bad offset", "?offset=-1", http.StatusBadRequest, nil},
		{"bad limit", "?limit=abc", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := hs.do(http.MethodGet, "/api/sources"+tt.query, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp SourcesResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			got := make([]string, len(resp.Sources))
			for i, s := range resp.Sources {
				got[i] = s.Path
			}
			if diff := cmp.Diff(tt.wantPaths, got); diff != "" {
				t.Errorf("Paths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListSourcesClampsLimit(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)

	rec := hs.do(http.MethodGet, "/api/sources?limit=50000", "")
	var resp SourcesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Limit != maxPageSize {
		t.Errorf("Expected limit clamped to %d, got %d", maxPageSize, resp.Limit)
	}
}

// =============================================================================
// Grid
// =============================================================================

func TestScrollGridLoadsCells(t *testing.T) {
	hs := newHarness(t, newFakeCatalog("/a.jpg", "/b.jpg", "/c.jpg"), 2)

	rec := hs.do(http.MethodPost, "/api/grid/scroll", `{"offset":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := hs.waitSettled(t)
	if resp.Offset != 1 {
		t.Errorf("Expected offset 1, got %d", resp.Offset)
	}
	want := []string{"/b.jpg", "/c.jpg"}
	for i, c := range resp.Cells {
		if c.Path != want[i] || c.State != "applied" {
			t.Errorf("Cell %d = %+v, want %s applied", i, c, want[i])
		}
		if c.Index != 1+i {
			t.Errorf("Cell %d index = %d, want %d", i, c.Index, 1+i)
		}
	}
}

func TestScrollGridRejectsBadBody(t *testing.T) {
	hs := newHarness(t, newFakeCatalog("/a.jpg"), 1)

	for _, body := range []string{`not json`, `{}`, `{"offset":-3}`} {
		rec := hs.do(http.MethodPost, "/api/grid/scroll", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestGetCellImage(t *testing.T) {
	hs := newHarness(t, newFakeCatalog("/a.jpg"), 2)

	if rec := hs.do(http.MethodGet, "/api/grid/cells/0", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Unbound cell: expected 204, got %d", rec.Code)
	}

	hs.do(http.MethodPost, "/api/grid/scroll", `{"offset":0}`)
	hs.waitSettled(t)

	rec := hs.do(http.MethodGet, "/api/grid/cells/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ct)
	}

	img, err := jpeg.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to decode JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != testThumbSize || b.Dy() != testThumbSize {
		t.Errorf("Expected %dx%d, got %v", testThumbSize, testThumbSize, b)
	}
	r, g, _, _ := img.At(testThumbSize/2, testThumbSize/2).RGBA()
	c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8)}
	if c.R < 200 || c.G > 60 {
		t.Errorf("Expected the produced red thumbnail, got %v", c)
	}

	if rec := hs.do(http.MethodGet, "/api/grid/cells/1", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Cell past the end of the catalog: expected 204, got %d", rec.Code)
	}
	if rec := hs.do(http.MethodGet, "/api/grid/cells/9", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Out of range cell: expected 404, got %d", rec.Code)
	}
}

// =============================================================================
// Reindex
// =============================================================================

func TestTriggerReindex(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)

	rec := hs.do(http.MethodPost, "/api/reindex", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", rec.Code)
	}

	select {
	case <-hs.indexer.scans:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a background scan to start")
	}
}

func TestTriggerReindexAlreadyRunning(t *testing.T) {
	hs := newHarness(t, newFakeCatalog(), 1)
	hs.indexer.scanning.Store(true)

	rec := hs.do(http.MethodPost, "/api/reindex", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already_running") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}

	select {
	case <-hs.indexer.scans:
		t.Error("No scan should start while one is running")
	case <-time.After(50 * time.Millisecond):
	}
}
