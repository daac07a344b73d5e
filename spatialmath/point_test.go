package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointValidity(t *testing.T) {
	test.That(t, NewPoint2D(1, 2).IsValid(), test.ShouldBeTrue)
	test.That(t, InvalidPoint2D().IsValid(), test.ShouldBeFalse)
	test.That(t, InvalidPoint2D().IsDefault(), test.ShouldBeTrue)
	test.That(t, NewPoint2D(math.NaN(), 2).IsValid(), test.ShouldBeFalse)
	test.That(t, NewPoint2D(math.NaN(), 2).IsDefault(), test.ShouldBeFalse)

	test.That(t, NewPoint3D(1, 2, 3).IsValid(), test.ShouldBeTrue)
	test.That(t, NewPoint3D(1, 2, math.NaN()).IsValid(), test.ShouldBeFalse)
	test.That(t, NewPoint3D(math.NaN(), 2, 3).IsValid(), test.ShouldBeFalse)
	test.That(t, InvalidPoint3D().IsValid(), test.ShouldBeFalse)
	test.That(t, InvalidPoint3D().IsDefault(), test.ShouldBeTrue)

	// a zero value is a valid origin, not a missing point
	test.That(t, Point3D{}.IsValid(), test.ShouldBeTrue)
}

func TestPointEquality(t *testing.T) {
	test.That(t, InvalidPoint2D().Equal(InvalidPoint2D()), test.ShouldBeTrue)
	test.That(t, NewPoint2D(1, 2).Equal(NewPoint2D(1, 2)), test.ShouldBeTrue)
	test.That(t, NewPoint2D(1, 2).Equal(NewPoint2D(1, 2.5)), test.ShouldBeFalse)
	test.That(t, NewPoint2D(1, 2).Equal(InvalidPoint2D()), test.ShouldBeFalse)

	p := NewPoint3DFromVector(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, p.Equal(NewPoint3D(1, 2, 3)), test.ShouldBeTrue)
	test.That(t, p.AlmostEqual(NewPoint3D(1, 2, 3+1e-9), 1e-6), test.ShouldBeTrue)
	test.That(t, p.AlmostEqual(NewPoint3D(1, 2, 3.1), 1e-6), test.ShouldBeFalse)
	test.That(t, p.AlmostEqual(InvalidPoint3D(), 1e-6), test.ShouldBeFalse)
	test.That(t, p.Vector(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
}

func TestPairReconstructable(t *testing.T) {
	pair := Point2DPair{Left: NewPoint2D(10, 20), Right: NewPoint2D(30, 40)}
	test.That(t, pair.IsReconstructable(), test.ShouldBeTrue)
	pair.Right = InvalidPoint2D()
	test.That(t, pair.IsReconstructable(), test.ShouldBeFalse)
	test.That(t, InvalidPoint2DPair().IsReconstructable(), test.ShouldBeFalse)
}
