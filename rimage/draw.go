package rimage

import (
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawCircles overlays each circle outline and center on a copy of img. The first circle, the
// one a localizer would select, is drawn in a distinct color and labeled with its rank.
func DrawCircles(img image.Image, circles []Circle) image.Image {
	dc := gg.NewContextForImage(img)
	for i, c := range circles {
		outline := color.RGBA{255, 0, 255, 255}
		if i == 0 {
			outline = color.RGBA{0, 255, 0, 255}
		}
		dc.SetColor(outline)
		dc.SetLineWidth(3)
		dc.DrawCircle(c.Center.X, c.Center.Y, c.Radius)
		dc.Stroke()

		dc.SetColor(color.RGBA{0, 100, 100, 255})
		dc.DrawPoint(c.Center.X, c.Center.Y, 2)
		dc.Fill()

		label := image.Point{int(c.Center.X + c.Radius + 4), int(c.Center.Y - c.Radius)}
		DrawString(dc, strconv.Itoa(i), label, outline, 14)
	}
	return dc.Image()
}
