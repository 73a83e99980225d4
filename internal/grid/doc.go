// Package grid is the display-slot layer: a fixed set of cells recycled over
// a scrolling window of source images. Each Cell is a loader.Slot, so
// rebinding a cell supersedes its previous thumbnail request.
package grid
