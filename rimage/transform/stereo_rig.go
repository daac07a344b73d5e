package transform

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrFramerateMismatch is returned when the two cameras of a rig do not share a framerate.
var ErrFramerateMismatch = errors.New("left and right framerates differ")

// StereoRig is the pair of cameras observing the scene.
type StereoRig struct {
	Left  *CameraModel
	Right *CameraModel
}

// NewStereoRig checks that both cameras exist and run at the same framerate.
func NewStereoRig(left, right *CameraModel) (*StereoRig, error) {
	if left == nil || right == nil {
		return nil, errors.New("stereo rig needs both a left and a right camera")
	}
	if left.Framerate() != right.Framerate() {
		return nil, errors.Wrapf(ErrFramerateMismatch, "left %v fps, right %v fps", left.Framerate(), right.Framerate())
	}
	left.SetIdentifier(LeftCamera)
	right.SetIdentifier(RightCamera)
	return &StereoRig{Left: left, Right: right}, nil
}

// Framerate is the shared capture rate.
func (rig *StereoRig) Framerate() float64 {
	return rig.Left.Framerate()
}

// ProjectionMatrices returns the left and right projection matrices.
func (rig *StereoRig) ProjectionMatrices() (*mat.Dense, *mat.Dense) {
	return rig.Left.ProjectionMatrix(), rig.Right.ProjectionMatrix()
}

// Baseline is the distance between the two camera centers.
func (rig *StereoRig) Baseline() float64 {
	return rig.Left.WorldPosition().Sub(rig.Right.WorldPosition()).Norm()
}
