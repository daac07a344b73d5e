package rimage

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// IsGray reports whether img is already single channel.
func IsGray(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	default:
		return false
	}
}

// MakeGray converts img to an 8-bit grayscale image. A *image.Gray is returned unchanged.
func MakeGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	result := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(result, result.Bounds(), img, img.Bounds().Min, draw.Src)
	return result
}

// Blur applies a gaussian blur of the given sigma. A non-positive sigma returns a copy.
func Blur(img image.Image, sigma float64) *image.NRGBA {
	if sigma <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Blur(img, sigma)
}

// GrayToDense returns the intensities of img as a rows x cols matrix.
func GrayToDense(img *image.Gray) *mat.Dense {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			data = append(data, float64(img.GrayAt(x, y).Y))
		}
	}
	return mat.NewDense(h, w, data)
}

// PrepareDense blurs img and returns it as a grayscale intensity matrix.
func PrepareDense(img image.Image, sigma float64) *mat.Dense {
	return GrayToDense(MakeGray(Blur(img, sigma)))
}

// MakeValue converts img to a single channel holding, per pixel, the largest of the red, green
// and blue intensities. Saturated colored blobs keep their full contrast against dark
// backgrounds, unlike with luminance.
func MakeValue(img image.Image) *image.Gray {
	b := img.Bounds()
	result := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			v := max(r, g, bl) >> 8
			result.Pix[result.PixOffset(x-b.Min.X, y-b.Min.Y)] = uint8(v)
		}
	}
	return result
}
