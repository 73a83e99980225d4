package media

import (
	"errors"
	"fmt"
	"image"
	"time"

	// Decoders for the formats listed in ImageExtensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"thumbgrid/internal/filesystem"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/disintegration/imaging"
)

var (
	// ErrProbe is returned when a source's dimensions cannot be read.
	ErrProbe = errors.New("probe failed")
	// ErrDecode is returned when a source cannot be decoded.
	ErrDecode = errors.New("decode failed")
	// ErrMetadata is returned when orientation metadata cannot be read.
	// ReadOrientation never surfaces it; it maps unreadable metadata to 0.
	ErrMetadata = errors.New("metadata read failed")
)

// Dimensions are the raw pixel dimensions of a source image as stored,
// before any orientation is applied.
type Dimensions struct {
	Width  int
	Height int
	Format string
}

// ProbeDimensions reads the stored dimensions of the image at path without
// decoding its pixels.
func ProbeDimensions(path string) (Dimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %s: %w", ErrProbe, path, err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, fmt.Errorf("%w: %s (%s): %w", ErrProbe, path, detectFormat(path), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: %s: invalid dimensions %dx%d", ErrProbe, path, cfg.Width, cfg.Height)
	}

	return Dimensions{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// ComputeSampleSize returns the largest power-of-two factor s such that
// decoding at 1/s resolution still leaves both dimensions larger than the
// requested ones after one more halving. The raw dimensions are the stored
// ones; orientation is not taken into account.
func ComputeSampleSize(rawWidth, rawHeight, reqWidth, reqHeight int) int {
	sampleSize := 1
	if rawHeight <= reqHeight && rawWidth <= reqWidth {
		return sampleSize
	}

	halfHeight := rawHeight / 2
	halfWidth := rawWidth / 2
	for halfHeight/sampleSize > reqHeight && halfWidth/sampleSize > reqWidth {
		sampleSize *= 2
	}
	return sampleSize
}

// DecodeSampled decodes the image at path reduced by sampleSize in each
// dimension. When libvips is available JPEG sources are shrunk during
// decode; every other case decodes at full size and box-filters down.
func DecodeSampled(path string, sampleSize int) (image.Image, error) {
	if sampleSize < 1 {
		sampleSize = 1
	}

	if sampleSize > 1 && IsVipsAvailable() && detectFormat(path) == "jpeg" {
		img, err := decodeSampledWithVips(path, sampleSize)
		if err == nil {
			metrics.DecodeBackendTotal.WithLabelValues("vips").Inc()
			return img, nil
		}
		logging.Debug("vips decode of %s failed, falling back: %v", path, err)
	}

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	metrics.DecodeBackendTotal.WithLabelValues("go").Inc()
	return downsample(img, sampleSize), nil
}

// decodeFile decodes path at full resolution. EXIF orientation is not
// applied here; ReadOrientation and ApplyRotation handle it separately.
func decodeFile(path string) (image.Image, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return img, nil
}

// downsample reduces img by factor in each dimension, never below 1px.
func downsample(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, b.Dx()/factor)
	h := max(1, b.Dy()/factor)
	return imaging.Resize(img, w, h, imaging.Box)
}

func observePhase(phase string, start time.Time) {
	metrics.DecodePhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
