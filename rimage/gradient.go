package rimage

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/stereokin/stereokin/utils"
)

// Vec2D represents the gradient of an image at a point as its two partial derivatives.
type Vec2D struct {
	X float64
	Y float64
}

// Magnitude is the euclidean norm of the gradient.
func (g Vec2D) Magnitude() float64 {
	return math.Hypot(g.X, g.Y)
}

// Direction is the gradient angle in [0, 2pi).
func (g Vec2D) Direction() float64 {
	return radZeroTo2Pi(math.Atan2(g.Y, g.X))
}

// VectorField2D stores all the gradient vectors of the image
// allowing one to retrieve the gradient for any given (x,y) point.
type VectorField2D struct {
	width  int
	height int

	data []Vec2D
}

// MakeEmptyVectorField2D allocates a zero field.
func MakeEmptyVectorField2D(width, height int) VectorField2D {
	return VectorField2D{
		width:  width,
		height: height,
		data:   make([]Vec2D, width*height),
	}
}

func (vf *VectorField2D) kxy(x, y int) int {
	return (y * vf.width) + x
}

// Width of the field.
func (vf *VectorField2D) Width() int {
	return vf.width
}

// Height of the field.
func (vf *VectorField2D) Height() int {
	return vf.height
}

// Get returns the gradient at p.
func (vf *VectorField2D) Get(p image.Point) Vec2D {
	return vf.data[vf.kxy(p.X, p.Y)]
}

// GetVec2D returns the gradient at (x, y).
func (vf *VectorField2D) GetVec2D(x, y int) Vec2D {
	return vf.data[vf.kxy(x, y)]
}

// Set stores the gradient at (x, y).
func (vf *VectorField2D) Set(x, y int, val Vec2D) {
	vf.data[vf.kxy(x, y)] = val
}

// MagnitudeField returns all the magnitudes of the gradient as a mat.Dense.
func (vf *VectorField2D) MagnitudeField() *mat.Dense {
	mag := mat.NewDense(vf.height, vf.width, nil)
	utils.ParallelForEachPixel(image.Point{vf.width, vf.height}, func(x, y int) {
		mag.Set(y, x, vf.GetVec2D(x, y).Magnitude())
	})
	return mag
}

// SobelGradient computes the gradient of an intensity matrix with the 3x3 Sobel operators.
func SobelGradient(m *mat.Dense) VectorField2D {
	h, w := m.Dims()
	sobelX, sobelY := GetSobelX(), GetSobelY()
	gx := ConvolveGrayFloat64(m, &sobelX)
	gy := ConvolveGrayFloat64(m, &sobelY)
	vf := MakeEmptyVectorField2D(w, h)
	utils.ParallelForEachPixel(image.Point{w, h}, func(x, y int) {
		vf.Set(x, y, Vec2D{X: gx.At(y, x), Y: gy.At(y, x)})
	})
	return vf
}

func radZeroTo2Pi(rad float64) float64 {
	if rad < 0 {
		return rad + 2*math.Pi
	}
	return rad
}
