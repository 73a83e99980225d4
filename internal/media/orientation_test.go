package media

import (
	"image"
	"image/color"
	"testing"
)

func TestOrientationDegrees(t *testing.T) {
	tests := []struct {
		tag  int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 180},
		{4, 0},
		{5, 0},
		{6, 90},
		{7, 0},
		{8, 270},
		{42, 0},
	}

	for _, tt := range tests {
		if got := orientationDegrees(tt.tag); got != tt.want {
			t.Errorf("orientationDegrees(%d) = %d, want %d", tt.tag, got, tt.want)
		}
	}
}

func TestReadOrientation(t *testing.T) {
	img := createSplitImage(40, 20)

	tests := []struct {
		name        string
		orientation uint16
		want        int
	}{
		{"normal", 1, 0},
		{"rotate 90", 6, 90},
		{"rotate 180", 3, 180},
		{"rotate 270", 8, 270},
		{"mirrored treated as upright", 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tempPath(t, "photo.jpg")
			writeJPEGWithOrientation(t, path, img, tt.orientation)

			if got := ReadOrientation(path); got != tt.want {
				t.Errorf("ReadOrientation() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadOrientationWithoutMetadata(t *testing.T) {
	png := tempPath(t, "plain.png")
	createTestImage(t, png, 10, 10, "png")
	if got := ReadOrientation(png); got != 0 {
		t.Errorf("Expected 0 for PNG without EXIF, got %d", got)
	}

	jpg := tempPath(t, "plain.jpg")
	createTestImage(t, jpg, 10, 10, "jpeg")
	if got := ReadOrientation(jpg); got != 0 {
		t.Errorf("Expected 0 for JPEG without EXIF, got %d", got)
	}

	if got := ReadOrientation(tempPath(t, "missing.jpg")); got != 0 {
		t.Errorf("Expected 0 for missing file, got %d", got)
	}
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xC000 && g < 0x4000 && b < 0x4000
}

func TestApplyRotation(t *testing.T) {
	// 2x1: red on the left, blue on the right.
	src := createSplitImage(2, 1)

	tests := []struct {
		degrees       int
		width, height int
		redAt         image.Point
	}{
		{0, 2, 1, image.Pt(0, 0)},
		{90, 1, 2, image.Pt(0, 0)},
		{180, 2, 1, image.Pt(1, 0)},
		{270, 1, 2, image.Pt(0, 1)},
		{45, 2, 1, image.Pt(0, 0)},
	}

	for _, tt := range tests {
		out := ApplyRotation(src, tt.degrees)
		b := out.Bounds()
		if b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("ApplyRotation(%d): expected %dx%d, got %dx%d",
				tt.degrees, tt.width, tt.height, b.Dx(), b.Dy())
			continue
		}
		p := tt.redAt.Add(b.Min)
		if !isRed(out.At(p.X, p.Y)) {
			t.Errorf("ApplyRotation(%d): expected red at %v", tt.degrees, tt.redAt)
		}
	}
}

func TestApplyRotationZeroReturnsInput(t *testing.T) {
	src := createSplitImage(4, 2)
	if out := ApplyRotation(src, 0); out != image.Image(src) {
		t.Error("Expected the same image for 0 degrees")
	}
}
