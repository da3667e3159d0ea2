package classify

import "github.com/menta2k/face-analyzer/pkg/types"

// ColorRange is an inclusive per-channel RGB range with a label
type ColorRange struct {
	Name  string
	Lower types.Color
	Upper types.Color
}

// Contains reports whether c lies inside the range on every channel
func (r ColorRange) Contains(c types.Color) bool {
	return c.R >= r.Lower.R && c.R <= r.Upper.R &&
		c.G >= r.Lower.G && c.G <= r.Upper.G &&
		c.B >= r.Lower.B && c.B <= r.Upper.B
}

// EyeColorRanges is checked in order; the first matching range names the color.
// Hazel lies entirely inside Brown and therefore never wins.
var EyeColorRanges = []ColorRange{
	{Name: "Brown", Lower: types.Color{R: 80, G: 40, B: 0}, Upper: types.Color{R: 255, G: 255, B: 50}},
	{Name: "Hazel", Lower: types.Color{R: 100, G: 60, B: 0}, Upper: types.Color{R: 255, G: 255, B: 40}},
	{Name: "Amber", Lower: types.Color{R: 180, G: 140, B: 0}, Upper: types.Color{R: 255, G: 255, B: 70}},
	{Name: "Blue", Lower: types.Color{R: 0, G: 0, B: 130}, Upper: types.Color{R: 100, G: 150, B: 255}},
	{Name: "Green", Lower: types.Color{R: 0, G: 130, B: 0}, Upper: types.Color{R: 120, G: 255, B: 100}},
	{Name: "Gray", Lower: types.Color{R: 120, G: 120, B: 120}, Upper: types.Color{R: 255, G: 255, B: 255}},
	{Name: "Red", Lower: types.Color{R: 150, G: 0, B: 0}, Upper: types.Color{R: 255, G: 80, B: 80}},
}

// EyeColorName names an eye color from the range table, or "Unknown"
func EyeColorName(c types.Color) string {
	for _, r := range EyeColorRanges {
		if r.Contains(c) {
			return r.Name
		}
	}
	return types.UnknownColor
}
