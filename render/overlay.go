package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const labelPadding = 5

var (
	labelBackground = color.NRGBA{A: 178} // black at 70%
	labelText       = color.White
)

// DrawLabel draws lines of text in a translucent box whose top-left corner is
// at (x, y), shifted as needed to stay inside img.
func DrawLabel(img draw.Image, lines []string, x, y int) {
	if len(lines) == 0 {
		return
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()

	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	box := image.Rect(0, 0, width+2*labelPadding, lineHeight*len(lines)+2*labelPadding)

	bounds := img.Bounds()
	x = min(x, bounds.Max.X-box.Dx())
	y = min(y, bounds.Max.Y-box.Dy())
	x = max(x, bounds.Min.X)
	y = max(y, bounds.Min.Y)
	box = box.Add(image.Pt(x, y))

	draw.Draw(img, box, image.NewUniform(labelBackground), image.Point{}, draw.Over)

	d := font.Drawer{Dst: img, Src: image.NewUniform(labelText), Face: face}
	for i, l := range lines {
		d.Dot = fixed.P(box.Min.X+labelPadding, box.Min.Y+labelPadding+i*lineHeight+metrics.Ascent.Ceil())
		d.DrawString(l)
	}
}
