package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestHoughCircleParamsValidate(t *testing.T) {
	test.That(t, DefaultHoughCircleParams().Validate(), test.ShouldBeNil)

	p := DefaultHoughCircleParams()
	p.MinRadius = 0
	test.That(t, p.Validate(), test.ShouldNotBeNil)

	p = DefaultHoughCircleParams()
	p.MaxRadius = 5
	test.That(t, p.Validate(), test.ShouldNotBeNil)

	p = DefaultHoughCircleParams()
	p.SupportRatio = -1
	test.That(t, p.Validate(), test.ShouldNotBeNil)
}

func TestDetectCirclesSingleDisc(t *testing.T) {
	m := PrepareDense(newDiscImage(200, 200, disc{70, 120, 20}), 1.5)
	circles, err := DetectCircles(m, DefaultHoughCircleParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldHaveLength, 1)
	test.That(t, circles[0].Center.X, test.ShouldAlmostEqual, 70, 2)
	test.That(t, circles[0].Center.Y, test.ShouldAlmostEqual, 120, 2)
	test.That(t, circles[0].Radius, test.ShouldAlmostEqual, 20, 3)
	test.That(t, circles[0].Support, test.ShouldBeGreaterThanOrEqualTo, 0.5)
}

func TestDetectCirclesBlank(t *testing.T) {
	m := PrepareDense(newDiscImage(120, 80), 1.5)
	circles, err := DetectCircles(m, DefaultHoughCircleParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldBeEmpty)
}

func TestDetectCirclesTwoDiscs(t *testing.T) {
	m := PrepareDense(newDiscImage(300, 200, disc{60, 60, 20}, disc{220, 140, 25}), 1.5)
	circles, err := DetectCircles(m, DefaultHoughCircleParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldHaveLength, 2)
	for i := 1; i < len(circles); i++ {
		test.That(t, circles[i-1].Rim, test.ShouldBeGreaterThanOrEqualTo, circles[i].Rim)
	}
	// the larger disc has a longer rim
	test.That(t, circles[0].Center.X, test.ShouldAlmostEqual, 220, 2)
	test.That(t, circles[0].Center.Y, test.ShouldAlmostEqual, 140, 2)
	test.That(t, circles[1].Center.X, test.ShouldAlmostEqual, 60, 2)
	test.That(t, circles[0].Rim, test.ShouldBeGreaterThan, circles[1].Rim)

	// the cap applies after ranking
	p := DefaultHoughCircleParams()
	p.MaxCircles = 1
	circles, err = DetectCircles(m, p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldHaveLength, 1)
	test.That(t, circles[0].Center.X, test.ShouldAlmostEqual, 220, 2)
}

func TestDetectCirclesRankingIgnoresDrawOrder(t *testing.T) {
	m := PrepareDense(newDiscImage(300, 200, disc{220, 140, 15}, disc{60, 60, 30}), 1.5)
	circles, err := DetectCircles(m, DefaultHoughCircleParams())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldHaveLength, 2)
	test.That(t, circles[0].Center.X, test.ShouldAlmostEqual, 60, 2)
	test.That(t, circles[0].Radius, test.ShouldAlmostEqual, 30, 3)
}

func TestDetectCirclesOutsideRadiusBand(t *testing.T) {
	m := PrepareDense(newDiscImage(200, 200, disc{100, 100, 70}), 1.5)
	p := DefaultHoughCircleParams()
	p.MaxRadius = 30
	circles, err := DetectCircles(m, p)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, circles, test.ShouldBeEmpty)
}
