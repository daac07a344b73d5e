package spatialmath

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/stereokin/stereokin/utils"
)

// ErrNotRotation is returned when a 3x3 block is not an orthonormal, right-handed rotation.
var ErrNotRotation = errors.New("matrix is not a rotation")

// EulerAngles are three successive rotations, in radians, about the fixed world x, y and z
// axes, in that order. Yaw is applied first about x, then Pitch about y, then Roll about z.
type EulerAngles struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// NewEulerAnglesFromDegrees builds EulerAngles from angles given in degrees.
func NewEulerAnglesFromDegrees(yaw, pitch, roll float64) *EulerAngles {
	return &EulerAngles{
		Yaw:   utils.DegToRad(yaw),
		Pitch: utils.DegToRad(pitch),
		Roll:  utils.DegToRad(roll),
	}
}

// RotationMatrix returns Rz(Roll) * Ry(Pitch) * Rx(Yaw).
func (ea *EulerAngles) RotationMatrix() *mat.Dense {
	sx, cx := math.Sincos(ea.Yaw)
	sy, cy := math.Sincos(ea.Pitch)
	sz, cz := math.Sincos(ea.Roll)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})

	var r mat.Dense
	r.Mul(rz, ry)
	r.Mul(&r, rx)
	return &r
}

// RotationFromEulerAngles is shorthand for NewEulerAnglesFromDegrees(yaw, pitch, roll).RotationMatrix().
func RotationFromEulerAngles(yaw, pitch, roll float64) *mat.Dense {
	return NewEulerAnglesFromDegrees(yaw, pitch, roll).RotationMatrix()
}

// CheckRotation verifies that r is 3x3, orthonormal within tol and has determinant +1.
func CheckRotation(r mat.Matrix, tol float64) error {
	rows, cols := r.Dims()
	if rows != 3 || cols != 3 {
		return errors.Wrapf(ErrNotRotation, "expected (3,3), got (%d,%d)", rows, cols)
	}
	var rtr mat.Dense
	rtr.Mul(r.T(), r)
	if !mat.EqualApprox(&rtr, eye3(), tol) {
		return errors.Wrap(ErrNotRotation, "columns are not orthonormal")
	}
	if det := mat.Det(r); !utils.Float64AlmostEqual(det, 1, tol) {
		return errors.Wrapf(ErrNotRotation, "determinant is %.6f", det)
	}
	return nil
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
