package grid

import (
	"context"
	"fmt"
	"image"
	"sync"

	"thumbgrid/internal/loader"
	"thumbgrid/internal/logging"
)

// Cell is one recycled display slot. Its image is written on the loop
// goroutine and may be read from anywhere.
type Cell struct {
	id loader.SlotID

	mu    sync.RWMutex
	img   image.Image
	path  string
	index int
}

// ID implements loader.Slot.
func (c *Cell) ID() loader.SlotID {
	return c.id
}

// SetImage implements loader.Slot.
func (c *Cell) SetImage(img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = img
}

// Image returns what the cell currently shows, or nil when empty.
func (c *Cell) Image() image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img
}

// Path returns the source the cell is bound to, or "" when unbound.
func (c *Cell) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

func (c *Cell) bind(path string, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.path = path
	c.index = index
}

// CellStatus describes one cell for diagnostics.
type CellStatus struct {
	Slot  int    `json:"slot"`
	Index int    `json:"index"`
	Path  string `json:"path,omitempty"`
	State string `json:"state"`
	Token uint64 `json:"token,omitempty"`
}

// PathSource pages through source paths in display order.
type PathSource interface {
	Paths(ctx context.Context, offset, limit int) ([]string, error)
}

// Grid is a fixed window of cells over an ordered list of sources. Moving
// the window rebinds the same cells to new sources, the way a scrolling
// list view recycles its item views.
type Grid struct {
	coord  *loader.Coordinator
	loop   *loader.Loop
	cells  []*Cell
	width  int
	height int

	// offset is only touched on the loop goroutine.
	offset int
}

// New creates a grid of n cells requesting width x height thumbnails.
func New(coord *loader.Coordinator, loop *loader.Loop, n, width, height int) *Grid {
	cells := make([]*Cell, n)
	for i := range cells {
		cells[i] = &Cell{id: loader.SlotID(i)}
	}
	return &Grid{
		coord:  coord,
		loop:   loop,
		cells:  cells,
		width:  width,
		height: height,
	}
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cell returns cell i, or nil if out of range.
func (g *Grid) Cell(i int) *Cell {
	if i < 0 || i >= len(g.cells) {
		return nil
	}
	return g.cells[i]
}

// Bind shows paths in the grid starting at offset: cell i is bound to
// paths[i]. Cells beyond len(paths) are cleared and released. A cell already
// bound to the same path with a pending or applied request is left alone.
// Bind must run on the loop goroutine.
func (g *Grid) Bind(offset int, paths []string) {
	g.offset = offset
	for i, cell := range g.cells {
		if i >= len(paths) {
			if cell.Path() != "" {
				g.coord.Release(cell.id)
				cell.bind("", 0)
				cell.SetImage(nil)
			}
			continue
		}

		path := paths[i]
		if cell.Path() == path {
			if state, _, ok := g.coord.State(cell.id); ok && state != loader.StateDiscarded {
				cell.bind(path, offset+i)
				continue
			}
		}

		cell.bind(path, offset+i)
		g.coord.Request(cell, path, g.width, g.height)
	}
}

// Scroll loads the page at offset from src and binds it on the loop.
func (g *Grid) Scroll(ctx context.Context, src PathSource, offset int) error {
	if offset < 0 {
		return fmt.Errorf("invalid offset %d", offset)
	}
	paths, err := src.Paths(ctx, offset, len(g.cells))
	if err != nil {
		return fmt.Errorf("failed to load page at %d: %w", offset, err)
	}

	logging.Debug("Binding %d sources at offset %d", len(paths), offset)
	return g.loop.Call(ctx, func() { g.Bind(offset, paths) })
}

// Refresh rebinds the current window, picking up index changes.
func (g *Grid) Refresh(ctx context.Context, src PathSource) error {
	var offset int
	if err := g.loop.Call(ctx, func() { offset = g.offset }); err != nil {
		return err
	}
	return g.Scroll(ctx, src, offset)
}

// Status reports every cell's binding.
func (g *Grid) Status(ctx context.Context) (offset int, cells []CellStatus, err error) {
	err = g.loop.Call(ctx, func() {
		offset = g.offset
		cells = make([]CellStatus, len(g.cells))
		for i, cell := range g.cells {
			cell.mu.RLock()
			st := CellStatus{Slot: i, Index: cell.index, Path: cell.path, State: "empty"}
			cell.mu.RUnlock()

			if state, token, ok := g.coord.State(cell.id); ok {
				st.State = state.String()
				st.Token = uint64(token)
			}
			cells[i] = st
		}
	})
	return offset, cells, err
}
