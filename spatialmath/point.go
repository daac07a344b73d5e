// Package spatialmath defines the geometric value types of the reconstruction pipeline and
// the rotations used to pose cameras in the world.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/stereokin/stereokin/utils"
)

// Point2D is a pixel location. A point with a NaN coordinate is invalid and means "no detection".
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D returns the point (x, y).
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// InvalidPoint2D returns the (NaN, NaN) point.
func InvalidPoint2D() Point2D {
	return Point2D{X: math.NaN(), Y: math.NaN()}
}

// NewPoint2DFromR2 converts an r2.Point.
func NewPoint2DFromR2(p r2.Point) Point2D {
	return Point2D{X: p.X, Y: p.Y}
}

// IsValid is false if either coordinate is NaN.
func (p Point2D) IsValid() bool {
	return !utils.AnyNaN(p.X, p.Y)
}

// IsDefault is true only when every coordinate is NaN.
func (p Point2D) IsDefault() bool {
	return math.IsNaN(p.X) && math.IsNaN(p.Y)
}

// Vec returns the point as an r2.Point.
func (p Point2D) Vec() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Equal compares coordinates exactly, treating two NaNs as equal.
func (p Point2D) Equal(other Point2D) bool {
	return floatEqual(p.X, other.X) && floatEqual(p.Y, other.Y)
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.2f, %.2f)", p.X, p.Y)
}

// Point3D is a world location. It extends Point2D with a depth coordinate.
type Point3D struct {
	Point2D
	Z float64 `json:"z"`
}

// NewPoint3D returns the point (x, y, z).
func NewPoint3D(x, y, z float64) Point3D {
	return Point3D{Point2D: Point2D{X: x, Y: y}, Z: z}
}

// InvalidPoint3D returns the (NaN, NaN, NaN) point.
func InvalidPoint3D() Point3D {
	return Point3D{Point2D: InvalidPoint2D(), Z: math.NaN()}
}

// NewPoint3DFromVector converts an r3.Vector.
func NewPoint3DFromVector(v r3.Vector) Point3D {
	return NewPoint3D(v.X, v.Y, v.Z)
}

// IsValid is false if any coordinate is NaN.
func (p Point3D) IsValid() bool {
	return !utils.AnyNaN(p.X, p.Y, p.Z)
}

// IsDefault is true only when every coordinate is NaN.
func (p Point3D) IsDefault() bool {
	return math.IsNaN(p.Z) && p.Point2D.IsDefault()
}

// Vector returns the point as an r3.Vector.
func (p Point3D) Vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Equal compares coordinates exactly, treating two NaNs as equal.
func (p Point3D) Equal(other Point3D) bool {
	return p.Point2D.Equal(other.Point2D) && floatEqual(p.Z, other.Z)
}

// AlmostEqual compares coordinates within epsilon, treating two NaNs as equal.
func (p Point3D) AlmostEqual(other Point3D, epsilon float64) bool {
	if p.IsDefault() && other.IsDefault() {
		return true
	}
	if !p.IsValid() || !other.IsValid() {
		return false
	}
	return p.Vector().Sub(other.Vector()).Norm() <= epsilon
}

func (p Point3D) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", p.X, p.Y, p.Z)
}

// Point2DPair holds one frame's detections from the left and right cameras.
type Point2DPair struct {
	Left  Point2D `json:"left"`
	Right Point2D `json:"right"`
}

// InvalidPoint2DPair returns a pair with both sides invalid.
func InvalidPoint2DPair() Point2DPair {
	return Point2DPair{Left: InvalidPoint2D(), Right: InvalidPoint2D()}
}

// IsReconstructable is true when both sides hold a valid detection.
func (pp Point2DPair) IsReconstructable() bool {
	return pp.Left.IsValid() && pp.Right.IsValid()
}

func floatEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
