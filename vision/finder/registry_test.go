package finder

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/stereokin/stereokin/logging"
	"github.com/stereokin/stereokin/spatialmath"
)

func newDiscImage(w, h int, cx, cy, r int, c color.Color, bg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, bg)
			}
		}
	}
	return img
}

func TestLookup(t *testing.T) {
	reg, err := Lookup(FindCircles)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reg.Constructor, test.ShouldNotBeNil)

	_, err = Lookup(Method("find_squares"))
	test.That(t, errors.Is(err, ErrFinderNotImplemented), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "find_squares")

	_, err = New(Method("find_squares"), nil, Grayscale, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrFinderNotImplemented), test.ShouldBeTrue)

	test.That(t, RegisteredMethods(), test.ShouldContain, FindCircles)
	schemas := RegisteredParameterSchemas()
	test.That(t, schemas[FindCircles], test.ShouldNotBeNil)
}

func TestRegisterCustomFinder(t *testing.T) {
	method := Method("fixed_point")
	Register(method, Registration{
		Constructor: func(params map[string]interface{}, _ ColorDomain, _ logging.Logger) (Finder, error) {
			conf := struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			}{}
			if err := DecodeParameters(params, &conf); err != nil {
				return nil, err
			}
			return FinderFunc(func(image.Image) ([]Candidate, error) {
				return []Candidate{{Center: spatialmath.NewPoint2D(conf.X, conf.Y)}}, nil
			}), nil
		},
	})
	test.That(t, func() { Register(method, Registration{Constructor: nil}) }, test.ShouldPanic)

	f, err := New(method, map[string]interface{}{"x": 3.0, "y": 4.0}, RGB, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	candidates, err := f.Find(image.NewGray(image.Rect(0, 0, 1, 1)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, Localize(candidates), test.ShouldResemble, spatialmath.NewPoint2D(3, 4))

	_, err = New(method, map[string]interface{}{"z": 1.0}, RGB, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = New(method, nil, ColorDomain("hsv"), logging.NewTestLogger(t))
	test.That(t, errors.Is(err, ErrUnknownColorDomain), test.ShouldBeTrue)
}

func TestLocalize(t *testing.T) {
	test.That(t, Localize(nil).IsValid(), test.ShouldBeFalse)
	first := Candidate{Center: spatialmath.NewPoint2D(1, 2), Score: 10}
	second := Candidate{Center: spatialmath.NewPoint2D(100, 200), Score: 5}
	test.That(t, Localize([]Candidate{first, second}), test.ShouldResemble, first.Center)

	pts := LocalizeSeries([][]Candidate{{first}, nil, {second, first}})
	test.That(t, pts, test.ShouldHaveLength, 3)
	test.That(t, pts[0], test.ShouldResemble, first.Center)
	test.That(t, pts[1].IsValid(), test.ShouldBeFalse)
	test.That(t, pts[2], test.ShouldResemble, second.Center)
}

func TestParseColorDomain(t *testing.T) {
	d, err := ParseColorDomain("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, Grayscale)
	d, err = ParseColorDomain("RGB")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, RGB)
	_, err = ParseColorDomain("lab")
	test.That(t, errors.Is(err, ErrUnknownColorDomain), test.ShouldBeTrue)

	img := newDiscImage(4, 4, 0, 0, 0, color.RGBA{0, 0, 200, 255}, color.RGBA{0, 0, 200, 255})
	test.That(t, RGB.SingleChannel(img).GrayAt(1, 1).Y, test.ShouldEqual, uint8(200))
	test.That(t, Grayscale.SingleChannel(img).GrayAt(1, 1).Y, test.ShouldBeLessThan, uint8(200))
}
