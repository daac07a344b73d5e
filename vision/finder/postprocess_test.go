package finder

import (
	"testing"

	"go.viam.com/test"

	"github.com/stereokin/stereokin/spatialmath"
)

func cand(x, y float64) Candidate {
	return Candidate{Center: spatialmath.NewPoint2D(x, y)}
}

func TestAmbiguityFilter(t *testing.T) {
	lamp := cand(500, 20)
	series := [][]Candidate{
		{cand(10, 10), lamp},
		{cand(20, 12), lamp},
		{lamp, cand(30, 15)},
		{cand(40, 18)},
		{},
		{cand(50, 20), cand(60, 22)},
	}
	out := NewAmbiguityFilter(DefaultMaxRepeats)(series)
	test.That(t, out, test.ShouldHaveLength, len(series))
	test.That(t, out[0], test.ShouldResemble, []Candidate{cand(10, 10)})
	test.That(t, out[1], test.ShouldResemble, []Candidate{cand(20, 12)})
	test.That(t, out[2], test.ShouldResemble, []Candidate{cand(30, 15)})
	test.That(t, out[3], test.ShouldResemble, []Candidate{cand(40, 18)})
	test.That(t, out[4], test.ShouldBeEmpty)
	// two genuine candidates remain ambiguous
	test.That(t, out[5], test.ShouldBeEmpty)

	pts := LocalizeSeries(out)
	test.That(t, pts[0], test.ShouldResemble, spatialmath.NewPoint2D(10, 10))
	test.That(t, pts[5].IsValid(), test.ShouldBeFalse)
}

func TestAmbiguityFilterProperty(t *testing.T) {
	// every output frame holds zero or one candidate, and a single candidate always comes
	// from the same input frame
	series := [][]Candidate{
		{cand(1, 1), cand(2, 2)},
		{cand(1, 1), cand(3, 3)},
		{cand(1, 1)},
		{cand(4, 4), cand(5, 5), cand(6, 6)},
		{cand(1, 1), cand(7, 7)},
	}
	out := NewAmbiguityFilter(DefaultMaxRepeats)(series)
	for i, frame := range out {
		test.That(t, len(frame), test.ShouldBeLessThanOrEqualTo, 1)
		if len(frame) == 1 {
			test.That(t, series[i], test.ShouldContain, frame[0])
		}
	}
	// (1,1) shows up three times among ambiguous frames and is removed everywhere
	test.That(t, out[0], test.ShouldResemble, []Candidate{cand(2, 2)})
	test.That(t, out[2], test.ShouldBeEmpty)
	test.That(t, out[4], test.ShouldResemble, []Candidate{cand(7, 7)})
}

func TestAmbiguityFilterBelowThreshold(t *testing.T) {
	series := [][]Candidate{
		{cand(1, 1), cand(2, 2)},
		{cand(1, 1), cand(3, 3)},
	}
	out := NewAmbiguityFilter(DefaultMaxRepeats)(series)
	test.That(t, out[0], test.ShouldBeEmpty)
	test.That(t, out[1], test.ShouldBeEmpty)
}

func TestNewSeriesFilter(t *testing.T) {
	series := [][]Candidate{{cand(1, 1), cand(2, 2)}}
	f, err := NewSeriesFilter(NoPostProcessing)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f(series), test.ShouldResemble, series)

	f, err = NewSeriesFilter("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f(series), test.ShouldResemble, series)

	f, err = NewSeriesFilter(AmbiguityFiltering)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f(series)[0], test.ShouldBeEmpty)

	_, err = NewSeriesFilter("median")
	test.That(t, err, test.ShouldNotBeNil)
}
