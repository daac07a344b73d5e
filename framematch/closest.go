package framematch

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CaptureTimeFunc returns the capture time, in seconds, of the frame stored at path.
type CaptureTimeFunc func(path string) (float64, error)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// FilenameSequenceCaptureTime reads the trailing frame counter of a file name, as written by
// high speed cameras ("shot_000123.tif"), and converts it to seconds at the given framerate.
func FilenameSequenceCaptureTime(framerate float64) CaptureTimeFunc {
	return func(path string) (float64, error) {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		match := trailingDigits.FindString(base)
		if match == "" {
			return 0, errors.Errorf("no frame counter in %q", filepath.Base(path))
		}
		n, err := strconv.ParseInt(match, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "frame counter of %q", filepath.Base(path))
		}
		return float64(n) / framerate, nil
	}
}

// ClosestTimestampMatcher pairs each left frame with the unused right frame closest in
// capture time. A left frame with no right frame within Tolerance is skipped. Right frames are
// consumed in order, so the output is strictly increasing on both sides.
type ClosestTimestampMatcher struct {
	Left  CaptureTimeFunc
	Right CaptureTimeFunc
	// Tolerance is the largest accepted time gap. Zero means half a frame interval at Framerate.
	Tolerance float64
	Framerate float64
}

// Match implements Matcher. Frames are assumed sorted by capture time. Timestamps are
// reported relative to the first matched left frame.
func (m ClosestTimestampMatcher) Match(left, right []string) ([]TimedPathPair, error) {
	tol := m.Tolerance
	if tol <= 0 {
		if !(m.Framerate > 0) {
			return nil, errors.New("either a tolerance or a positive framerate is required")
		}
		tol = 0.5 / m.Framerate
	}
	leftTimes, err := captureTimes(m.Left, left)
	if err != nil {
		return nil, err
	}
	rightTimes, err := captureTimes(m.Right, right)
	if err != nil {
		return nil, err
	}

	var pairs []TimedPathPair
	origin := math.NaN()
	next := 0
	for i, lt := range leftTimes {
		best, bestGap := -1, math.Inf(1)
		for j := next; j < len(rightTimes); j++ {
			gap := math.Abs(rightTimes[j] - lt)
			if gap < bestGap {
				best, bestGap = j, gap
			}
			if rightTimes[j] > lt {
				break
			}
		}
		if best < 0 || bestGap > tol {
			continue
		}
		if math.IsNaN(origin) {
			origin = lt
		}
		pairs = append(pairs, TimedPathPair{Timestamp: lt - origin, Left: left[i], Right: right[best]})
		next = best + 1
	}
	return pairs, nil
}

func captureTimes(f CaptureTimeFunc, paths []string) ([]float64, error) {
	if f == nil {
		return nil, errors.New("capture time function is not set")
	}
	times := make([]float64, len(paths))
	for i, p := range paths {
		t, err := f(p)
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return times, nil
}
