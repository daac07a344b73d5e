package finder

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/stereokin/stereokin/spatialmath"
)

// PostProcessing names a series filter.
type PostProcessing string

// The available series filters.
const (
	NoPostProcessing   = PostProcessing("none")
	AmbiguityFiltering = PostProcessing("ambiguity_filter")
)

// DefaultMaxRepeats is how many times the same point may appear among ambiguous frames before
// it is treated as a static feature of the scene.
const DefaultMaxRepeats = 2

// SeriesFilter rewrites the candidates of one camera over the whole recording. The outer
// slice is indexed by frame and keeps its length.
type SeriesFilter func(series [][]Candidate) [][]Candidate

// NewSeriesFilter returns the filter named p. The empty name means no filtering.
func NewSeriesFilter(p PostProcessing) (SeriesFilter, error) {
	switch p {
	case NoPostProcessing, "":
		return Noop, nil
	case AmbiguityFiltering:
		return NewAmbiguityFilter(DefaultMaxRepeats), nil
	default:
		return nil, errors.Errorf("unknown post processing %q", p)
	}
}

// Noop returns the series unchanged.
func Noop(series [][]Candidate) [][]Candidate {
	return series
}

// NewAmbiguityFilter removes static look-alikes from a series. Every candidate center found in
// frames holding more than one candidate is counted; centers counted more than maxRepeats
// times are dropped from every frame. Frames are then kept only if exactly one candidate
// remains. Centers compare exactly.
func NewAmbiguityFilter(maxRepeats int) SeriesFilter {
	return func(series [][]Candidate) [][]Candidate {
		suspects := map[spatialmath.Point2D]int{}
		for _, frame := range series {
			if len(frame) <= 1 {
				continue
			}
			for _, c := range frame {
				suspects[c.Center]++
			}
		}

		out := make([][]Candidate, len(series))
		for i, frame := range series {
			kept := lo.Filter(frame, func(c Candidate, _ int) bool {
				return suspects[c.Center] <= maxRepeats
			})
			if len(kept) == 1 {
				out[i] = kept
			}
		}
		return out
	}
}
