package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/stereokin/stereokin/utils"
)

// Kernel is a convolution filter, indexed Content[row][col].
type Kernel struct {
	Content [][]float64
	Height  int
	Width   int
}

// NewKernel checks that content is a non-empty rectangle with odd sides.
func NewKernel(content [][]float64) (*Kernel, error) {
	h := len(content)
	if h == 0 || h%2 == 0 {
		return nil, errors.Errorf("kernel must have an odd number of rows, got %d", h)
	}
	w := len(content[0])
	if w%2 == 0 {
		return nil, errors.Errorf("kernel must have an odd number of columns, got %d", w)
	}
	for i, row := range content {
		if len(row) != w {
			return nil, errors.Errorf("kernel row %d has %d columns, expected %d", i, len(row), w)
		}
	}
	return &Kernel{Content: content, Height: h, Width: w}, nil
}

// Size returns the kernel dimensions as a point (width, height).
func (k *Kernel) Size() image.Point {
	return image.Point{k.Width, k.Height}
}

// At returns the coefficient at column x and row y.
func (k *Kernel) At(x, y int) float64 {
	return k.Content[y][x]
}

// GetSobelX returns the Kernel corresponding to the Sobel kernel in the x direction.
func GetSobelX() Kernel {
	return Kernel{[][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}, 3, 3}
}

// GetSobelY returns the Kernel corresponding to the Sobel kernel in the y direction.
func GetSobelY() Kernel {
	return Kernel{[][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}, 3, 3}
}

// GetBox returns an unnormalized size x size box kernel.
func GetBox(size int) Kernel {
	content := make([][]float64, size)
	for i := range content {
		content[i] = make([]float64, size)
		for j := range content[i] {
			content[i][j] = 1
		}
	}
	return Kernel{content, size, size}
}

// ConvolveGrayFloat64 correlates m with the kernel centered on each element. Samples outside m
// replicate the nearest border value. There is no clamping of the result.
func ConvolveGrayFloat64(m *mat.Dense, filter *Kernel) *mat.Dense {
	h, w := m.Dims()
	result := mat.NewDense(h, w, nil)
	cx, cy := filter.Width/2, filter.Height/2
	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		sum := 0.
		for ky := 0; ky < filter.Height; ky++ {
			row := clampInt(y+ky-cy, 0, h-1)
			for kx := 0; kx < filter.Width; kx++ {
				col := clampInt(x+kx-cx, 0, w-1)
				sum += m.At(row, col) * filter.At(kx, ky)
			}
		}
		result.Set(y, x, sum)
	})
	return result
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
