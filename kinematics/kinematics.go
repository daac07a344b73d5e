// Package kinematics derives velocity and acceleration from a time-stamped position series by
// finite differences.
package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/stereokin/stereokin/spatialmath"
)

// ErrZeroTimeDelta is returned when two consecutive samples share a timestamp.
var ErrZeroTimeDelta = errors.New("zero time delta between consecutive samples")

// TimedPoint3D is a 3-D value at a time in seconds. It holds a position, a velocity or an
// acceleration depending on the series it belongs to.
type TimedPoint3D struct {
	Timestamp float64 `json:"t"`
	spatialmath.Point3D
}

// NewTimedPoint3D builds a sample from a vector.
func NewTimedPoint3D(t float64, v r3.Vector) TimedPoint3D {
	return TimedPoint3D{Timestamp: t, Point3D: spatialmath.NewPoint3DFromVector(v)}
}

// Trajectory is a time-ordered position series.
type Trajectory []TimedPoint3D

// Valid returns the samples holding a valid point, in order.
func Valid(series []TimedPoint3D) []TimedPoint3D {
	return lo.Filter(series, func(s TimedPoint3D, _ int) bool {
		return s.IsValid()
	})
}

// Derivative differentiates a series: for each consecutive pair of valid samples it emits
// (t_i, (p_{i+1} - p_i) / (t_{i+1} - t_i)). Invalid samples are skipped so the delta spans
// any gap they leave. Fewer than two valid samples yield an empty series.
func Derivative(series []TimedPoint3D) ([]TimedPoint3D, error) {
	valid := Valid(series)
	if len(valid) < 2 {
		return []TimedPoint3D{}, nil
	}
	out := make([]TimedPoint3D, 0, len(valid)-1)
	for i := 0; i+1 < len(valid); i++ {
		cur, next := valid[i], valid[i+1]
		dt := next.Timestamp - cur.Timestamp
		if dt == 0 {
			return nil, errors.Wrapf(ErrZeroTimeDelta, "samples %d and %d at t=%v", i, i+1, cur.Timestamp)
		}
		out = append(out, NewTimedPoint3D(cur.Timestamp, next.Vector().Sub(cur.Vector()).Mul(1/dt)))
	}
	return out, nil
}

// Velocity differentiates a trajectory once.
func Velocity(trajectory []TimedPoint3D) ([]TimedPoint3D, error) {
	return Derivative(trajectory)
}

// Acceleration differentiates a trajectory twice.
func Acceleration(trajectory []TimedPoint3D) ([]TimedPoint3D, error) {
	v, err := Velocity(trajectory)
	if err != nil {
		return nil, err
	}
	return Derivative(v)
}

// Magnitudes returns the euclidean norm of every sample.
func Magnitudes(series []TimedPoint3D) []float64 {
	return lo.Map(series, func(s TimedPoint3D, _ int) float64 {
		return s.Vector().Norm()
	})
}

// Timestamps returns the time of every sample.
func Timestamps(series []TimedPoint3D) []float64 {
	return lo.Map(series, func(s TimedPoint3D, _ int) float64 {
		return s.Timestamp
	})
}
