package rimage

import (
	"image"
	"image/color"
)

type disc struct {
	x, y, r int
}

// newDiscImage draws white filled discs on a black background.
func newDiscImage(w, h int, discs ...disc) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, d := range discs {
				dx, dy := x-d.x, y-d.y
				if dx*dx+dy*dy <= d.r*d.r {
					img.SetGray(x, y, color.Gray{255})
				}
			}
		}
	}
	return img
}
