// Package transform models the stereo camera rig: pinhole intrinsics, world-to-camera
// extrinsics, projection matrices and linear triangulation of matched detections.
package transform

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/stereokin/stereokin/spatialmath"
)

var (
	// ErrBadMatrixShape is returned when a camera matrix has the wrong dimensions.
	ErrBadMatrixShape = errors.New("camera matrix has the wrong shape")
	// ErrInvalidIntrinsics is returned for focal lengths or principal points that cannot describe a camera.
	ErrInvalidIntrinsics = errors.New("invalid intrinsic parameters")
	// ErrNotRotation is returned when the extrinsic rotation block is not a proper rotation.
	ErrNotRotation = spatialmath.ErrNotRotation
	// ErrInvalidFramerate is returned for a non-positive or non-finite framerate.
	ErrInvalidFramerate = errors.New("framerate must be a positive number")
)

const rotationTolerance = 1e-6

func newBadMatrixShapeError(name string, expRows, expCols int, m mat.Matrix) error {
	r, c := m.Dims()
	return errors.Wrapf(ErrBadMatrixShape, "%s: expected (%d,%d), got (%d,%d)", name, expRows, expCols, r, c)
}

// CameraIdentifier tells which side of the rig a camera sits on.
type CameraIdentifier int

// The known camera identifiers.
const (
	UndefinedCamera CameraIdentifier = iota
	LeftCamera
	RightCamera
)

func (id CameraIdentifier) String() string {
	switch id {
	case LeftCamera:
		return "left"
	case RightCamera:
		return "right"
	case UndefinedCamera:
		return "undefined"
	default:
		return "undefined"
	}
}

// PinholeCameraIntrinsics holds the parameters of the intrinsic matrix.
type PinholeCameraIntrinsics struct {
	Fx   float64 `json:"fx"`
	Fy   float64 `json:"fy"`
	Skew float64 `json:"skew"`
	Ppx  float64 `json:"ppx"`
	Ppy  float64 `json:"ppy"`
}

// CheckValid checks that the parameters can describe a real camera.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return errors.Wrap(ErrInvalidIntrinsics, "intrinsics are nil")
	}
	for _, v := range []float64{params.Fx, params.Fy, params.Skew, params.Ppx, params.Ppy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrap(ErrInvalidIntrinsics, "parameters must be finite")
		}
	}
	if params.Fx <= 0 || params.Fy <= 0 {
		return errors.Wrapf(ErrInvalidIntrinsics, "focal lengths must be positive, got fx=%v fy=%v", params.Fx, params.Fy)
	}
	return nil
}

// Matrix returns K = [[fx, skew, ppx], [0, fy, ppy], [0, 0, 1]].
func (params *PinholeCameraIntrinsics) Matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		params.Fx, params.Skew, params.Ppx,
		0, params.Fy, params.Ppy,
		0, 0, 1,
	})
}

// BuildIntrinsic builds the 3x3 intrinsic matrix.
func BuildIntrinsic(fx, fy, skew, ppx, ppy float64) (*mat.Dense, error) {
	params := &PinholeCameraIntrinsics{Fx: fx, Fy: fy, Skew: skew, Ppx: ppx, Ppy: ppy}
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	return params.Matrix(), nil
}

// BuildExtrinsic builds the 3x4 world-to-camera matrix [R | t] for a camera whose world-to-camera
// rotation is rotation and whose center sits at position in the world. The translation column
// is t = -R * position.
func BuildExtrinsic(rotation mat.Matrix, position r3.Vector) (*mat.Dense, error) {
	if r, c := rotation.Dims(); r != 3 || c != 3 {
		return nil, newBadMatrixShapeError("rotation", 3, 3, rotation)
	}
	if err := spatialmath.CheckRotation(rotation, rotationTolerance); err != nil {
		return nil, err
	}
	var t mat.VecDense
	t.MulVec(rotation, mat.NewVecDense(3, []float64{position.X, position.Y, position.Z}))
	t.ScaleVec(-1, &t)

	extrinsic := mat.NewDense(3, 4, nil)
	extrinsic.Slice(0, 3, 0, 3).(*mat.Dense).Copy(rotation)
	extrinsic.Slice(0, 3, 3, 4).(*mat.Dense).Copy(&t)
	return extrinsic, nil
}

// CameraModel is one calibrated camera of the rig. The projection matrix K*[R|t] is derived
// lazily and cached until a parameter changes.
type CameraModel struct {
	mu         sync.Mutex
	id         CameraIdentifier
	intrinsic  *mat.Dense
	extrinsic  *mat.Dense
	framerate  float64
	projection *mat.Dense
}

// NewCameraModel validates the intrinsic form, the extrinsic rotation and the framerate and
// returns the camera.
func NewCameraModel(id CameraIdentifier, intrinsic, extrinsic mat.Matrix, framerate float64) (*CameraModel, error) {
	cm := &CameraModel{id: id}
	if err := cm.SetIntrinsic(intrinsic); err != nil {
		return nil, err
	}
	if err := cm.SetExtrinsic(extrinsic); err != nil {
		return nil, err
	}
	if err := cm.SetFramerate(framerate); err != nil {
		return nil, err
	}
	return cm, nil
}

// NewCameraModelFromParameters builds a camera from its intrinsics, its world position and
// its orientation.
func NewCameraModelFromParameters(
	id CameraIdentifier,
	intrinsics PinholeCameraIntrinsics,
	position r3.Vector,
	orientation *spatialmath.EulerAngles,
	framerate float64,
) (*CameraModel, error) {
	k, err := BuildIntrinsic(intrinsics.Fx, intrinsics.Fy, intrinsics.Skew, intrinsics.Ppx, intrinsics.Ppy)
	if err != nil {
		return nil, errors.Wrapf(err, "%s camera", id)
	}
	rt, err := BuildExtrinsic(orientation.RotationMatrix(), position)
	if err != nil {
		return nil, errors.Wrapf(err, "%s camera", id)
	}
	return NewCameraModel(id, k, rt, framerate)
}

// Identifier returns which side of the rig the camera is on.
func (cm *CameraModel) Identifier() CameraIdentifier {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.id
}

// SetIdentifier changes the camera side.
func (cm *CameraModel) SetIdentifier(id CameraIdentifier) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.id = id
}

// Framerate returns the capture rate in frames per second.
func (cm *CameraModel) Framerate() float64 {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.framerate
}

// SetFramerate changes the capture rate.
func (cm *CameraModel) SetFramerate(framerate float64) error {
	if framerate <= 0 || math.IsNaN(framerate) || math.IsInf(framerate, 0) {
		return errors.Wrapf(ErrInvalidFramerate, "got %v", framerate)
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.framerate = framerate
	return nil
}

// Intrinsic returns a copy of K.
func (cm *CameraModel) Intrinsic() *mat.Dense {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return mat.DenseCopyOf(cm.intrinsic)
}

// checkIntrinsicMatrix verifies that k has the pinhole form
// [[fx, skew, ppx], [0, fy, ppy], [0, 0, 1]] with finite entries and positive focal lengths.
func checkIntrinsicMatrix(k mat.Matrix) error {
	if r, c := k.Dims(); r != 3 || c != 3 {
		return newBadMatrixShapeError("intrinsic", 3, 3, k)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := k.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrap(ErrInvalidIntrinsics, "intrinsic matrix must be finite")
			}
		}
	}
	if k.At(1, 0) != 0 || k.At(2, 0) != 0 || k.At(2, 1) != 0 || k.At(2, 2) != 1 {
		return errors.Wrap(ErrInvalidIntrinsics, "intrinsic matrix must be upper triangular with K[2][2] = 1")
	}
	if k.At(0, 0) <= 0 || k.At(1, 1) <= 0 {
		return errors.Wrapf(ErrInvalidIntrinsics,
			"focal lengths must be positive, got fx=%v fy=%v", k.At(0, 0), k.At(1, 1))
	}
	return nil
}

// SetIntrinsic replaces K. It must be a 3x3 pinhole intrinsic matrix.
func (cm *CameraModel) SetIntrinsic(intrinsic mat.Matrix) error {
	if err := checkIntrinsicMatrix(intrinsic); err != nil {
		return err
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.intrinsic = mat.DenseCopyOf(intrinsic)
	cm.projection = nil
	return nil
}

// Extrinsic returns a copy of [R | t].
func (cm *CameraModel) Extrinsic() *mat.Dense {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return mat.DenseCopyOf(cm.extrinsic)
}

// SetExtrinsic replaces [R | t]. It must be 3x4 with a proper rotation in its left 3x3 block.
func (cm *CameraModel) SetExtrinsic(extrinsic mat.Matrix) error {
	if r, c := extrinsic.Dims(); r != 3 || c != 4 {
		return newBadMatrixShapeError("extrinsic", 3, 4, extrinsic)
	}
	rt := mat.DenseCopyOf(extrinsic)
	for i := 0; i < 3; i++ {
		if v := rt.At(i, 3); math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("extrinsic translation must be finite")
		}
	}
	if err := spatialmath.CheckRotation(rt.Slice(0, 3, 0, 3), rotationTolerance); err != nil {
		return errors.Wrap(err, "extrinsic")
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.extrinsic = rt
	cm.projection = nil
	return nil
}

// ProjectionMatrix returns a copy of the 3x4 matrix P = K * [R | t].
func (cm *CameraModel) ProjectionMatrix() *mat.Dense {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.projection == nil {
		p := mat.NewDense(3, 4, nil)
		p.Mul(cm.intrinsic, cm.extrinsic)
		cm.projection = p
	}
	return mat.DenseCopyOf(cm.projection)
}

// WorldPosition returns the camera center in world coordinates, C = -R^T * t.
func (cm *CameraModel) WorldPosition() r3.Vector {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	rot := cm.extrinsic.Slice(0, 3, 0, 3)
	t := cm.extrinsic.ColView(3)
	var c mat.VecDense
	c.MulVec(rot.T(), t)
	return r3.Vector{X: -c.AtVec(0), Y: -c.AtVec(1), Z: -c.AtVec(2)}
}

// Project maps a world point to pixel coordinates. Points on the camera plane or invalid
// points project to the invalid Point2D.
func (cm *CameraModel) Project(p spatialmath.Point3D) spatialmath.Point2D {
	if !p.IsValid() {
		return spatialmath.InvalidPoint2D()
	}
	var x mat.VecDense
	x.MulVec(cm.ProjectionMatrix(), mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))
	w := x.AtVec(2)
	if math.Abs(w) < homogeneousEpsilon {
		return spatialmath.InvalidPoint2D()
	}
	return spatialmath.NewPoint2D(x.AtVec(0)/w, x.AtVec(1)/w)
}
