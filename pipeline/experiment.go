// Package pipeline runs a stereo capture through detection, triangulation and differentiation.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/stereokin/stereokin/framematch"
	"github.com/stereokin/stereokin/kinematics"
	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/rimage/transform"
	"github.com/stereokin/stereokin/spatialmath"
	"github.com/stereokin/stereokin/vision/finder"
)

// ErrPrerequisiteStage is returned when a stage is computed before the stage it depends on has
// produced data.
var ErrPrerequisiteStage = errors.New("prerequisite stage not run")

// FrameSource locates the frames of both cameras.
type FrameSource struct {
	LeftDir  string
	RightDir string
}

// Experiment is one recorded shot. Stages are computed in order: trajectory, velocity,
// acceleration.
type Experiment struct {
	ID uuid.UUID

	logger  logging.Logger
	rig     *transform.StereoRig
	source  FrameSource
	matcher framematch.Matcher

	method   finder.Method
	params   map[string]interface{}
	domain   finder.ColorDomain
	find     finder.Finder
	filter   finder.SeriesFilter
	stride   int
	workers  int
	debugDir string

	frames         []framematch.TimedPathPair
	detections     []spatialmath.Point2DPair
	trajectory     kinematics.Trajectory
	trajectoryDone bool
	velocity       []kinematics.TimedPoint3D
	velocityDone   bool
	acceleration   []kinematics.TimedPoint3D
}

// Results are the series computed so far.
type Results struct {
	ID           uuid.UUID
	Frames       []framematch.TimedPathPair
	Detections   []spatialmath.Point2DPair
	Trajectory   kinematics.Trajectory
	Velocity     []kinematics.TimedPoint3D
	Acceleration []kinematics.TimedPoint3D
}

// NewExperiment prepares an experiment with circle finding in grayscale, index matching at the
// rig framerate, no post processing, stride 1 and one worker per parallel slot.
func NewExperiment(rig *transform.StereoRig, source FrameSource, logger logging.Logger) (*Experiment, error) {
	if rig == nil {
		return nil, errors.New("experiment needs a stereo rig")
	}
	e := &Experiment{
		ID:      uuid.New(),
		logger:  logger,
		rig:     rig,
		source:  source,
		matcher: framematch.IndexMatcher{Framerate: rig.Framerate()},
		method:  finder.FindCircles,
		domain:  finder.Grayscale,
		filter:  finder.Noop,
		stride:  1,
		workers: defaultWorkers(),
	}
	if err := e.rebuildFinder(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) rebuildFinder() error {
	f, err := finder.New(e.method, e.params, e.domain, e.logger.Sublogger("finder"))
	if err != nil {
		return err
	}
	e.find = f
	return nil
}

// SetFinderMethod selects the detection strategy and its parameters. An unregistered method
// fails here, before any frame is processed.
func (e *Experiment) SetFinderMethod(method finder.Method, params map[string]interface{}) error {
	prevMethod, prevParams := e.method, e.params
	e.method, e.params = method, params
	if err := e.rebuildFinder(); err != nil {
		e.method, e.params = prevMethod, prevParams
		return err
	}
	e.reset()
	return nil
}

// SetColorDomain selects the channel searched by the finder.
func (e *Experiment) SetColorDomain(domain finder.ColorDomain) error {
	if err := domain.Validate(); err != nil {
		return err
	}
	prev := e.domain
	e.domain = domain
	if err := e.rebuildFinder(); err != nil {
		e.domain = prev
		return err
	}
	e.reset()
	return nil
}

// SetPostProcessing selects the filter applied to each camera's candidate series.
func (e *Experiment) SetPostProcessing(p finder.PostProcessing) error {
	f, err := finder.NewSeriesFilter(p)
	if err != nil {
		return err
	}
	e.filter = f
	e.reset()
	return nil
}

// SetMatcher replaces the frame pairing policy.
func (e *Experiment) SetMatcher(m framematch.Matcher) {
	e.matcher = m
	e.reset()
}

// SetStride keeps only every k-th matched pair.
func (e *Experiment) SetStride(k int) error {
	if k < 1 {
		return errors.Wrapf(framematch.ErrInvalidStride, "got %d", k)
	}
	e.stride = k
	e.reset()
	return nil
}

// SetWorkers bounds the number of frames processed at once. Values below one mean the default.
func (e *Experiment) SetWorkers(n int) {
	if n < 1 {
		n = defaultWorkers()
	}
	e.workers = n
}

// SetDebugDir makes trajectory computation write every frame with its candidates drawn on it.
// The empty string disables it.
func (e *Experiment) SetDebugDir(dir string) {
	e.debugDir = dir
}

func (e *Experiment) reset() {
	e.frames, e.detections, e.trajectory, e.velocity, e.acceleration = nil, nil, nil, nil, nil
	e.trajectoryDone, e.velocityDone = false, false
}

// ComputeTrajectory matches the frames, localizes the projectile in each of them and
// triangulates the valid pairs.
func (e *Experiment) ComputeTrajectory(ctx context.Context) error {
	e.reset()
	frames, err := framematch.MatchDirectories(e.matcher, e.source.LeftDir, e.source.RightDir)
	if err != nil {
		return err
	}
	frames, err = framematch.Subsample(frames, e.stride)
	if err != nil {
		return err
	}
	e.logger.Infow("frames matched", "experiment", e.ID, "pairs", len(frames), "stride", e.stride)

	left, right, err := e.detectAll(ctx, frames)
	if err != nil {
		return err
	}
	leftPts := finder.LocalizeSeries(e.filter(left))
	rightPts := finder.LocalizeSeries(e.filter(right))

	detections := make([]spatialmath.Point2DPair, len(frames))
	trajectory := make(kinematics.Trajectory, 0, len(frames))
	for i := range frames {
		detections[i] = spatialmath.Point2DPair{Left: leftPts[i], Right: rightPts[i]}
	}
	for i, p := range e.rig.TriangulateAll(detections) {
		frame, pair := frames[i], detections[i]
		switch {
		case !pair.IsReconstructable():
			e.logger.Debugw("frame skipped", "t", frame.Timestamp, "left", pair.Left, "right", pair.Right)
		case !p.IsValid():
			e.logger.Debugw("frame not reconstructable", "t", frame.Timestamp)
		default:
			trajectory = append(trajectory, kinematics.TimedPoint3D{Timestamp: frame.Timestamp, Point3D: p})
		}
	}

	e.frames, e.detections, e.trajectory = frames, detections, trajectory
	e.trajectoryDone = true
	e.logger.Infow("trajectory computed", "experiment", e.ID, "samples", len(trajectory), "frames", len(frames))
	return nil
}

// ComputeVelocity differentiates the trajectory. It needs a non-empty trajectory.
func (e *Experiment) ComputeVelocity() error {
	if !e.trajectoryDone || len(e.trajectory) == 0 {
		return errors.Wrap(ErrPrerequisiteStage, "velocity needs a non-empty trajectory")
	}
	v, err := kinematics.Velocity(e.trajectory)
	if err != nil {
		return err
	}
	e.velocity, e.velocityDone = v, true
	e.acceleration = nil
	e.logger.Infow("velocity computed", "experiment", e.ID, "samples", len(v))
	return nil
}

// ComputeAcceleration differentiates the velocity. It needs a non-empty velocity.
func (e *Experiment) ComputeAcceleration() error {
	if !e.velocityDone || len(e.velocity) == 0 {
		return errors.Wrap(ErrPrerequisiteStage, "acceleration needs a non-empty velocity")
	}
	a, err := kinematics.Derivative(e.velocity)
	if err != nil {
		return err
	}
	e.acceleration = a
	e.logger.Infow("acceleration computed", "experiment", e.ID, "samples", len(a))
	return nil
}

// ComputeKinematics runs every stage in order.
func (e *Experiment) ComputeKinematics(ctx context.Context) error {
	if err := e.ComputeTrajectory(ctx); err != nil {
		return err
	}
	if err := e.ComputeVelocity(); err != nil {
		return err
	}
	return e.ComputeAcceleration()
}

// Results returns the series computed so far. Stages not run yield nil series.
func (e *Experiment) Results() Results {
	return Results{
		ID:           e.ID,
		Frames:       e.frames,
		Detections:   e.detections,
		Trajectory:   e.trajectory,
		Velocity:     e.velocity,
		Acceleration: e.acceleration,
	}
}
