package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage writes a gradient image of the given size and format.
func createTestImage(t *testing.T, path string, width, height int, format string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 128,
				A: 255,
			})
		}
	}

	writeImage(t, path, img, format)
}

// createSplitImage writes an image whose left half is red and right half is
// blue, so rotations can be checked by sampling pixels.
func createSplitImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x < width/2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func writeImage(t *testing.T, path string, img image.Image, format string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create test image file: %v", err)
	}
	defer f.Close()

	switch format {
	case "jpeg", "jpg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case "png":
		err = png.Encode(f, img)
	default:
		t.Fatalf("Unsupported test image format: %s", format)
	}
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
}

// exifOrientationSegment builds a minimal big-endian APP1 segment carrying
// only an IFD0 orientation tag.
func exifOrientationSegment(orientation uint16) []byte {
	tiff := []byte{
		'M', 'M', 0x00, 0x2A, // byte order, magic
		0x00, 0x00, 0x00, 0x08, // IFD0 offset
		0x00, 0x01, // one entry
		0x01, 0x12, // tag: Orientation
		0x00, 0x03, // type: SHORT
		0x00, 0x00, 0x00, 0x01, // count
		byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2

	seg := []byte{0xFF, 0xE1, byte(length >> 8), byte(length)}
	return append(seg, payload...)
}

// writeJPEGWithOrientation encodes img as JPEG and splices an EXIF
// orientation segment directly after the SOI marker.
func writeJPEGWithOrientation(t *testing.T, path string, img image.Image, orientation uint16) {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	encoded := buf.Bytes()

	out := make([]byte, 0, len(encoded)+64)
	out = append(out, encoded[:2]...)
	out = append(out, exifOrientationSegment(orientation)...)
	out = append(out, encoded[2:]...)

	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("Failed to write JPEG: %v", err)
	}
}

func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
