package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/stereokin/stereokin/spatialmath"
)

// homogeneousEpsilon is the smallest |w| accepted when dehomogenizing.
const homogeneousEpsilon = 1e-12

// TriangulateDLT recovers the world point seen at x1 by the camera with projection p1 and at
// x2 by the camera with projection p2. It stacks the four linear constraints x*P3 - P1 and
// y*P3 - P2 of both views and takes the right singular vector of the smallest singular value.
// The boolean is false when the system cannot be solved or the solution lies at infinity.
func TriangulateDLT(p1, p2 mat.Matrix, x1, x2 r2.Point) (r3.Vector, bool) {
	a := mat.NewDense(4, 4, nil)
	fillRows := func(row int, p mat.Matrix, x r2.Point) {
		for j := 0; j < 4; j++ {
			a.Set(row, j, x.X*p.At(2, j)-p.At(0, j))
			a.Set(row+1, j, x.Y*p.At(2, j)-p.At(1, j))
		}
	}
	fillRows(0, p1, x1)
	fillRows(2, p2, x2)

	// unit rows keep the two views equally weighted
	for i := 0; i < 4; i++ {
		n := mat.Norm(a.RowView(i), 2)
		if n == 0 {
			continue
		}
		for j := 0; j < 4; j++ {
			a.Set(i, j, a.At(i, j)/n)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return r3.Vector{}, false
	}
	const rcond = 1e-15
	if svd.Rank(rcond) == 0 {
		return r3.Vector{}, false
	}
	var v mat.Dense
	svd.VTo(&v)
	x := v.ColView(3)
	w := x.AtVec(3)
	if math.Abs(w) < homogeneousEpsilon {
		return r3.Vector{}, false
	}
	return r3.Vector{X: x.AtVec(0) / w, Y: x.AtVec(1) / w, Z: x.AtVec(2) / w}, true
}

// Triangulate reconstructs the world point of one matched detection pair. A pair with an
// invalid side, or whose rays do not meet at a finite point, yields the invalid Point3D.
func (rig *StereoRig) Triangulate(pair spatialmath.Point2DPair) spatialmath.Point3D {
	if !pair.IsReconstructable() {
		return spatialmath.InvalidPoint3D()
	}
	p1, p2 := rig.ProjectionMatrices()
	v, ok := TriangulateDLT(p1, p2, pair.Left.Vec(), pair.Right.Vec())
	if !ok {
		return spatialmath.InvalidPoint3D()
	}
	return spatialmath.NewPoint3DFromVector(v)
}

// TriangulateAll reconstructs every pair, keeping positions aligned with the input.
func (rig *StereoRig) TriangulateAll(pairs []spatialmath.Point2DPair) []spatialmath.Point3D {
	p1, p2 := rig.ProjectionMatrices()
	out := make([]spatialmath.Point3D, len(pairs))
	for i, pair := range pairs {
		out[i] = spatialmath.InvalidPoint3D()
		if !pair.IsReconstructable() {
			continue
		}
		if v, ok := TriangulateDLT(p1, p2, pair.Left.Vec(), pair.Right.Vec()); ok {
			out[i] = spatialmath.NewPoint3DFromVector(v)
		}
	}
	return out
}
