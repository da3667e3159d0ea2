package processing

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Annotator draws face boxes and stacked label lines onto an image
type Annotator struct {
	BoxColor   color.NRGBA
	TextColor  color.NRGBA
	Stroke     int
	LineHeight int
	// TextOffset is the gap between the box top and the first label baseline
	TextOffset int
	Face       font.Face
}

// NewAnnotator returns an Annotator with a green box and label style
func NewAnnotator() *Annotator {
	green := color.NRGBA{0, 255, 0, 255}
	return &Annotator{
		BoxColor:   green,
		TextColor:  green,
		Stroke:     2,
		LineHeight: 20,
		TextOffset: 10,
		Face:       basicfont.Face7x13,
	}
}

// Annotate draws the box and the labels; line i sits at box.Y - TextOffset - i*LineHeight
func (a *Annotator) Annotate(dst *image.NRGBA, box types.Box, labels []string) {
	a.DrawBox(dst, box)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(a.TextColor),
		Face: a.Face,
	}
	for i, label := range labels {
		d.Dot = fixed.P(box.X, box.Y-a.TextOffset-i*a.LineHeight)
		d.DrawString(label)
	}
}

// DrawBox draws a rectangle outline with the configured stroke
func (a *Annotator) DrawBox(dst *image.NRGBA, box types.Box) {
	if box.Empty() {
		return
	}
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width, box.Y+box.Height
	stroke := a.Stroke
	if stroke < 1 {
		stroke = 1
	}
	for s := 0; s < stroke; s++ {
		drawHLine(dst, y0+s, x0, x1, a.BoxColor)
		drawHLine(dst, y1-1-s, x0, x1, a.BoxColor)
		drawVLine(dst, x0+s, y0, y1, a.BoxColor)
		drawVLine(dst, x1-1-s, y0, y1, a.BoxColor)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, b.Min.X), min(x1, b.Max.X)
	for x := x0; x < x1; x++ {
		setPix(img, x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, b.Min.Y), min(y1, b.Max.Y)
	for y := y0; y < y1; y++ {
		setPix(img, x, y, c)
	}
}

func setPix(img *image.NRGBA, x, y int, c color.NRGBA) {
	i := img.PixOffset(x, y)
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
