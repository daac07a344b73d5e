package finder

import (
	"image"
	"strings"

	"github.com/pkg/errors"

	"github.com/stereokin/stereokin/rimage"
)

// ColorDomain selects the channel a finder works on.
type ColorDomain string

// The supported color domains.
const (
	Grayscale = ColorDomain("grayscale")
	RGB       = ColorDomain("rgb")
)

// ErrUnknownColorDomain is returned for a color domain other than grayscale or rgb.
var ErrUnknownColorDomain = errors.New("unknown color domain")

// ParseColorDomain accepts a color domain name in any case. The empty string means Grayscale.
func ParseColorDomain(s string) (ColorDomain, error) {
	if s == "" {
		return Grayscale, nil
	}
	d := ColorDomain(strings.ToLower(s))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// Validate checks that the domain is known.
func (d ColorDomain) Validate() error {
	switch d {
	case Grayscale, RGB:
		return nil
	default:
		return errors.Wrapf(ErrUnknownColorDomain, "%q", string(d))
	}
}

// SingleChannel reduces img to the one channel searched in this domain. Grayscale uses
// luminance and leaves gray images untouched. RGB keeps the strongest color channel.
func (d ColorDomain) SingleChannel(img image.Image) *image.Gray {
	if d == RGB && !rimage.IsGray(img) {
		return rimage.MakeValue(img)
	}
	return rimage.MakeGray(img)
}
