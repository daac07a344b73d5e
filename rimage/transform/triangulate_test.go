package transform

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/stereokin/stereokin/spatialmath"
)

func newTestRig(t *testing.T) *StereoRig {
	t.Helper()
	left := newTestCamera(t, UndefinedCamera, r3.Vector{X: -0.5, Y: 0, Z: 0}, 0, 5, 0)
	right := newTestCamera(t, UndefinedCamera, r3.Vector{X: 0.5, Y: 0.1, Z: 0}, 2, -5, 1)
	rig, err := NewStereoRig(left, right)
	test.That(t, err, test.ShouldBeNil)
	return rig
}

func TestNewStereoRig(t *testing.T) {
	rig := newTestRig(t)
	test.That(t, rig.Left.Identifier(), test.ShouldEqual, LeftCamera)
	test.That(t, rig.Right.Identifier(), test.ShouldEqual, RightCamera)
	test.That(t, rig.Framerate(), test.ShouldEqual, 120.)
	test.That(t, rig.Baseline(), test.ShouldAlmostEqual, 1.00498756, 1e-6)

	slow := newTestCamera(t, RightCamera, r3.Vector{X: 1}, 0, 0, 0)
	test.That(t, slow.SetFramerate(60), test.ShouldBeNil)
	_, err := NewStereoRig(rig.Left, slow)
	test.That(t, errors.Is(err, ErrFramerateMismatch), test.ShouldBeTrue)

	_, err = NewStereoRig(nil, slow)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTriangulateRoundTrip(t *testing.T) {
	rig := newTestRig(t)
	for _, world := range []spatialmath.Point3D{
		spatialmath.NewPoint3D(0, 0, 5),
		spatialmath.NewPoint3D(0.3, -0.2, 4),
		spatialmath.NewPoint3D(-1.2, 0.7, 12),
		spatialmath.NewPoint3D(2, 1, 30),
	} {
		pair := spatialmath.Point2DPair{Left: rig.Left.Project(world), Right: rig.Right.Project(world)}
		test.That(t, pair.IsReconstructable(), test.ShouldBeTrue)
		got := rig.Triangulate(pair)
		test.That(t, got.IsValid(), test.ShouldBeTrue)
		test.That(t, got.Vector().Sub(world.Vector()).Norm()/world.Vector().Norm(), test.ShouldBeLessThan, 1e-6)
	}
}

func TestTriangulateDLTScaledProjections(t *testing.T) {
	rig := newTestRig(t)
	p1, p2 := rig.ProjectionMatrices()
	// P is defined up to scale, so rescaling one view must not move the solution
	p2.Scale(1e3, p2)
	world := spatialmath.NewPoint3D(0.1, 0.2, 5)
	x1 := rig.Left.Project(world).Vec()
	x2 := rig.Right.Project(world).Vec()

	got, ok := TriangulateDLT(p1, p2, x1, x2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got.Sub(world.Vector()).Norm(), test.ShouldBeLessThan, 1e-6)

	got, ok = TriangulateDLT(p2, p1, x2, x1)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got.Sub(world.Vector()).Norm(), test.ShouldBeLessThan, 1e-6)
}

func TestTriangulateInvalid(t *testing.T) {
	rig := newTestRig(t)
	good := rig.Right.Project(spatialmath.NewPoint3D(0, 0, 5))

	got := rig.Triangulate(spatialmath.Point2DPair{Left: spatialmath.InvalidPoint2D(), Right: good})
	test.That(t, got.IsValid(), test.ShouldBeFalse)
	test.That(t, got.IsDefault(), test.ShouldBeTrue)

	pts := rig.TriangulateAll([]spatialmath.Point2DPair{
		{Left: rig.Left.Project(spatialmath.NewPoint3D(0, 0, 5)), Right: good},
		spatialmath.InvalidPoint2DPair(),
	})
	test.That(t, pts, test.ShouldHaveLength, 2)
	test.That(t, pts[0].AlmostEqual(spatialmath.NewPoint3D(0, 0, 5), 1e-6), test.ShouldBeTrue)
	test.That(t, pts[1].IsValid(), test.ShouldBeFalse)
}

func TestTriangulateParallelRays(t *testing.T) {
	// two identical cameras see a point at infinity along the optical axis
	left := newTestCamera(t, LeftCamera, r3.Vector{X: -1}, 0, 0, 0)
	right := newTestCamera(t, RightCamera, r3.Vector{X: 1}, 0, 0, 0)
	rig, err := NewStereoRig(left, right)
	test.That(t, err, test.ShouldBeNil)
	center := spatialmath.NewPoint2D(testIntrinsics.Ppx, testIntrinsics.Ppy)
	got := rig.Triangulate(spatialmath.Point2DPair{Left: center, Right: center})
	test.That(t, got.IsValid(), test.ShouldBeFalse)
}
