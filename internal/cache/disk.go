package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"thumbgrid/internal/filesystem"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/disintegration/imaging"
	natomic "github.com/natefinch/atomic"
)

// DefaultQuality is the JPEG quality used for disk tier entries.
const DefaultQuality = 97

// DiskCache stores encoded thumbnails under a directory, one file per key
// named by Key.String(). Source paths are not escaped, so an absolute source
// path becomes a nested directory tree below the cache root.
type DiskCache struct {
	dir     string
	quality int
	closed  atomic.Bool
}

// NewDiskCache creates dir if needed and returns a disk tier rooted there.
func NewDiskCache(dir string, quality int) (*DiskCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", abs, err)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &DiskCache{dir: abs, quality: quality}, nil
}

// Dir returns the absolute cache root.
func (d *DiskCache) Dir() string {
	return d.dir
}

// pathFor maps key to its file, rejecting names that resolve outside the
// cache root (for example a source path containing "..").
func (d *DiskCache) pathFor(key Key) (string, error) {
	p := filepath.Join(d.dir, key.String())
	rel, err := filepath.Rel(d.dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q resolves outside cache directory", key.String())
	}
	return p, nil
}

// Exists reports whether a file for key is present.
func (d *DiskCache) Exists(key Key) bool {
	p, err := d.pathFor(key)
	if err != nil {
		return false
	}
	info, err := filesystem.StatWithRetry(p, filesystem.DefaultRetryConfig())
	if err != nil || !info.Mode().IsRegular() {
		metrics.CacheLookupsTotal.WithLabelValues("disk", "miss").Inc()
		return false
	}
	metrics.CacheLookupsTotal.WithLabelValues("disk", "hit").Inc()
	return true
}

// Read decodes the cached file for key as is, without resampling.
func (d *DiskCache) Read(key Key) (*Thumbnail, error) {
	start := time.Now()
	defer func() {
		metrics.DecodePhaseDuration.WithLabelValues("disk_read").Observe(time.Since(start).Seconds())
	}()

	p, err := d.pathFor(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiskRead, err)
	}

	file, err := filesystem.OpenWithRetry(p, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDiskRead, key, err)
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDiskRead, key, err)
	}
	return NewThumbnail(img), nil
}

// Write encodes thumb as JPEG and publishes it atomically: the data goes to
// a temporary file in the target directory which is synced and renamed over
// the final name. Concurrent readers see either no file or a complete one.
func (d *DiskCache) Write(key Key, thumb *Thumbnail) error {
	if d.closed.Load() {
		return fmt.Errorf("%w: %w", ErrDiskWrite, ErrClosed)
	}
	if thumb == nil || thumb.Image == nil {
		return fmt.Errorf("%w: %s: nil thumbnail", ErrDiskWrite, key)
	}

	p, err := d.pathFor(key)
	if err != nil {
		metrics.DiskCacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %w", ErrDiskWrite, err)
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb.Image, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
		metrics.DiskCacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: encode: %w", ErrDiskWrite, key, err)
	}
	metrics.DecodePhaseDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())
	size := buf.Len()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		metrics.DiskCacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: %w", ErrDiskWrite, key, err)
	}
	if err := natomic.WriteFile(p, &buf); err != nil {
		metrics.DiskCacheWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %s: %w", ErrDiskWrite, key, err)
	}

	metrics.DiskCacheWritesTotal.WithLabelValues("success").Inc()
	metrics.DiskCacheWriteBytes.Observe(float64(size))
	logging.Debug("Cached thumbnail %s (%d bytes)", key, size)
	return nil
}

// Close stops further writes. Reads keep working.
func (d *DiskCache) Close() {
	d.closed.Store(true)
}
