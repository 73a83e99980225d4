package cache

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrDiskWrite is returned when a thumbnail cannot be persisted.
	ErrDiskWrite = errors.New("disk cache write failed")
	// ErrDiskRead is returned when a cached thumbnail cannot be loaded.
	ErrDiskRead = errors.New("disk cache read failed")
	// ErrClosed is returned by disk writes after the service is closed.
	ErrClosed = errors.New("cache closed")
)

// Key identifies one thumbnail: a source path at a target size. Keys are
// comparable and used directly as map keys.
type Key struct {
	Path   string
	Width  int
	Height int
}

// String returns the canonical "<path> <width> <height>" form, which is
// also the disk tier's file name relative to the cache directory.
func (k Key) String() string {
	return fmt.Sprintf("%s %d %d", k.Path, k.Width, k.Height)
}

// Thumbnail is a decoded thumbnail. It is not modified after construction.
type Thumbnail struct {
	Image  image.Image
	Width  int
	Height int
}

// NewThumbnail wraps img, taking the dimensions from its bounds.
func NewThumbnail(img image.Image) *Thumbnail {
	b := img.Bounds()
	return &Thumbnail{Image: img, Width: b.Dx(), Height: b.Dy()}
}
