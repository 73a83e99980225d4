package media

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"thumbgrid/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// maxJpegShrink is the largest shrink-on-load factor libjpeg supports.
const maxJpegShrink = 8

var vipsState struct {
	sync.Mutex
	running bool
}

// vipsThreshold keeps libvips one step quieter than our own log level so
// its informational chatter only shows up under debug.
func vipsThreshold(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	}
	return vips.LogLevelCritical
}

func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("vips %s: %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("vips %s: %s", domain, msg)
	default:
		logging.Debug("vips %s: %s", domain, msg)
	}
}

// InitVips starts libvips for the sampled JPEG decode path. Calling it again
// while running is a no-op. Decodes run on our own worker pool, so libvips
// gets a single thread and a small operation cache.
func InitVips() error {
	vipsState.Lock()
	defer vipsState.Unlock()
	if vipsState.running {
		return nil
	}

	vips.LoggingSettings(forwardVipsLog, vipsThreshold(logging.GetLevel()))
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 << 20,
		MaxCacheSize:     100,
	})
	vipsState.running = true
	logging.Info("libvips %s started", vips.Version)
	return nil
}

// ShutdownVips stops libvips if it is running.
func ShutdownVips() {
	vipsState.Lock()
	defer vipsState.Unlock()
	if !vipsState.running {
		return
	}
	vips.Shutdown()
	vipsState.running = false
	logging.Info("libvips stopped")
}

// IsVipsAvailable reports whether InitVips has run and ShutdownVips has not.
func IsVipsAvailable() bool {
	vipsState.Lock()
	defer vipsState.Unlock()
	return vipsState.running
}

// decodeSampledWithVips decodes path with libjpeg shrink-on-load for the
// part of sampleSize it can cover and box-filters the remainder. Orientation
// is left as stored.
func decodeSampledWithVips(path string, sampleSize int) (image.Image, error) {
	shrink := min(sampleSize, maxJpegShrink)

	params := vips.NewImportParams()
	params.AutoRotate.Set(false)
	params.JpegShrinkFactor.Set(shrink)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	buf, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	return downsample(img, sampleSize/shrink), nil
}
