package media

import (
	"fmt"
	"image"
	"strconv"
	"time"

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/disintegration/imaging"
)

// Generator turns a source path into a thumbnail of an exact size. It is safe
// for concurrent use; it holds no per-call state.
type Generator struct {
	filter imaging.ResampleFilter
	gate   Gate
}

// Gate holds back decodes while resources are short. memory.Monitor
// satisfies it. Wait returns false when decoding should be abandoned.
type Gate interface {
	Wait() bool
}

// NewGenerator creates a thumbnail generator using Lanczos resampling for the
// final scale.
func NewGenerator() *Generator {
	return &Generator{filter: imaging.Lanczos}
}

// SetGate installs a gate consulted before every full decode. Call it before
// the generator is shared.
func (g *Generator) SetGate(gate Gate) {
	g.gate = gate
}

// Produce runs the decode pipeline for path: probe the stored dimensions,
// decode at the sample size for width x height, rotate per EXIF, then
// center-crop and scale to exactly width x height.
func (g *Generator) Produce(path string, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid target size %dx%d", ErrDecode, path, width, height)
	}

	start := time.Now()
	dims, err := ProbeDimensions(path)
	observePhase("probe", start)
	if err != nil {
		return nil, err
	}

	sampleSize := ComputeSampleSize(dims.Width, dims.Height, width, height)
	metrics.DecodeSampleSize.Observe(float64(sampleSize))
	metrics.DecodeByFormat.WithLabelValues(dims.Format).Inc()

	if g.gate != nil && !g.gate.Wait() {
		return nil, fmt.Errorf("%w: %s: decoding stopped", ErrDecode, path)
	}

	start = time.Now()
	img, err := DecodeSampled(path, sampleSize)
	observePhase("decode", start)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	degrees := ReadOrientation(path)
	img = ApplyRotation(img, degrees)
	observePhase("rotate", start)
	metrics.OrientationApplied.WithLabelValues(strconv.Itoa(degrees)).Inc()

	start = time.Now()
	thumb := imaging.Fill(img, width, height, imaging.Center, g.filter)
	observePhase("scale", start)

	logging.Debug("Produced %dx%d thumbnail for %s (raw %dx%d, sample %d, rotate %d)",
		width, height, path, dims.Width, dims.Height, sampleSize, degrees)
	return thumb, nil
}
