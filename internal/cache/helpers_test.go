package cache

import (
	"image"
	"image/color"
)

func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / width),
				G: uint8((y * 255) / height),
				B: 96,
				A: 255,
			})
		}
	}
	return img
}

func testThumb(width, height int) *Thumbnail {
	return NewThumbnail(gradient(width, height))
}
