package media

import (
	"fmt"
	"image"

	"thumbgrid/internal/filesystem"
	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// EXIF orientation tag values that map to a pure rotation. Mirrored
// orientations (2, 4, 5, 7) are treated as upright.
const (
	orientationNormal    = 1
	orientationRotate180 = 3
	orientationRotate90  = 6
	orientationRotate270 = 8
)

// ReadOrientation returns the clockwise rotation in degrees (0, 90, 180 or
// 270) that the EXIF orientation tag of path calls for. Missing or
// unreadable metadata yields 0 and is never an error.
func ReadOrientation(path string) int {
	tag, err := readOrientationTag(path)
	if err != nil {
		metrics.LoadFailuresTotal.WithLabelValues("metadata").Inc()
		logging.Debug("No usable orientation for %s: %v", path, err)
		return 0
	}
	return orientationDegrees(tag)
}

func readOrientationTag(path string) (int, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	defer file.Close()

	x, err := exif.Decode(file)
	if err != nil {
		// Most sources without an EXIF segment land here.
		logging.Debug("No EXIF data in %s: %v", path, err)
		return orientationNormal, nil
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return orientationNormal, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	value, err := tag.Int(0)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	return value, nil
}

func orientationDegrees(tag int) int {
	switch tag {
	case orientationRotate90:
		return 90
	case orientationRotate180:
		return 180
	case orientationRotate270:
		return 270
	default:
		return 0
	}
}

// ApplyRotation rotates img clockwise by degrees. Values other than 90, 180
// and 270 return img unchanged.
func ApplyRotation(img image.Image, degrees int) image.Image {
	// imaging rotates counter-clockwise.
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
