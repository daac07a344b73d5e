// Package framematch lists the frames captured by each camera of the rig and pairs them into a
// time-ordered sequence.
package framematch

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/stereokin/stereokin/rimage"
)

var (
	// ErrInvalidStride is returned for a subsampling stride below one.
	ErrInvalidStride = errors.New("stride must be an integer of at least 1")
	// ErrNotADirectory is returned when an image folder is missing or is a file.
	ErrNotADirectory = errors.New("not a directory")
)

// TimedPathPair is one matched left/right frame and its capture time in seconds.
type TimedPathPair struct {
	Timestamp float64
	Left      string
	Right     string
}

// TimedImagePair is a TimedPathPair with both frames decoded.
type TimedImagePair struct {
	Timestamp float64
	Left      image.Image
	Right     image.Image
}

// Load decodes both frames of the pair.
func (p TimedPathPair) Load() (TimedImagePair, error) {
	left, errLeft := rimage.ReadImageFromFile(p.Left)
	right, errRight := rimage.ReadImageFromFile(p.Right)
	if err := multierr.Combine(errLeft, errRight); err != nil {
		return TimedImagePair{}, err
	}
	return TimedImagePair{Timestamp: p.Timestamp, Left: left, Right: right}, nil
}

// Matcher pairs the frames of two cameras.
type Matcher interface {
	Match(left, right []string) ([]TimedPathPair, error)
}

// ListImages returns the lexicographically sorted paths of every supported image directly
// inside dir.
func ListImages(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrNotADirectory, "%s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrNotADirectory, "%s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() || !rimage.IsSupportedImage(e.Name()) {
			return "", false
		}
		return filepath.Join(dir, e.Name()), true
	})
	sort.Strings(files)
	return files, nil
}

// MatchDirectories lists both directories and pairs their frames with m.
func MatchDirectories(m Matcher, leftDir, rightDir string) ([]TimedPathPair, error) {
	left, errLeft := ListImages(leftDir)
	right, errRight := ListImages(rightDir)
	if err := multierr.Combine(errLeft, errRight); err != nil {
		return nil, err
	}
	return m.Match(left, right)
}

// IndexMatcher pairs the i-th left frame with the i-th right frame and stamps it i/Framerate.
// Surplus frames of the longer side are dropped.
type IndexMatcher struct {
	Framerate float64
}

// Match implements Matcher.
func (m IndexMatcher) Match(left, right []string) ([]TimedPathPair, error) {
	if !(m.Framerate > 0) || math.IsInf(m.Framerate, 1) {
		return nil, errors.Errorf("framerate must be positive and finite, got %v", m.Framerate)
	}
	n := min(len(left), len(right))
	pairs := make([]TimedPathPair, n)
	for i := 0; i < n; i++ {
		pairs[i] = TimedPathPair{
			Timestamp: float64(i) / m.Framerate,
			Left:      left[i],
			Right:     right[i],
		}
	}
	return pairs, nil
}

// Subsample keeps every stride-th pair starting with the first.
func Subsample(pairs []TimedPathPair, stride int) ([]TimedPathPair, error) {
	if stride < 1 {
		return nil, errors.Wrapf(ErrInvalidStride, "got %d", stride)
	}
	return lo.Filter(pairs, func(_ TimedPathPair, i int) bool {
		return i%stride == 0
	}), nil
}
