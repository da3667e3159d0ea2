package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// DyedSuffix is appended to hair labels whose brightness is outside the natural band
const DyedSuffix = " (possibly dyed)"

const (
	minNaturalBrightness = 40
	maxNaturalBrightness = 170
)

// Hair naming strategies
const (
	StrategyLadder  = "ladder"
	StrategyPalette = "palette"
)

// HairNamer turns a dominant hair color into a label
type HairNamer interface {
	Name(c types.Color) string
}

// HairNamerFunc adapts a function to HairNamer
type HairNamerFunc func(c types.Color) string

// Name implements HairNamer
func (f HairNamerFunc) Name(c types.Color) string { return f(c) }

// NewHairNamer returns the namer for a strategy name
func NewHairNamer(strategy string) (HairNamer, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyLadder:
		return HairNamerFunc(HairColorName), nil
	case StrategyPalette:
		palette := DefaultHairPalette()
		return HairNamerFunc(func(c types.Color) string {
			return withDyedQualifier(palette.Nearest(c), c)
		}), nil
	default:
		return nil, fmt.Errorf("unknown hair strategy: %s", strategy)
	}
}

// HairColorName names a hair color with the threshold ladder and the dyed qualifier
func HairColorName(c types.Color) string {
	r, g, b := int(c.R), int(c.G), int(c.B)

	var name string
	switch {
	case r > 100 && g > 50 && b < 50:
		name = "Auburn/Red"
	case r > 190 && g > 170 && b > 120:
		name = "Blonde"
	case r > 60 && g > 40 && b > 20:
		name = "Brown"
	case r < 50 && g < 50 && b < 50:
		name = "Black"
	default:
		name = types.UnknownColor
	}

	return withDyedQualifier(name, c)
}

func withDyedQualifier(name string, c types.Color) string {
	brightness := c.Brightness()
	if brightness > maxNaturalBrightness || brightness < minNaturalBrightness {
		return name + DyedSuffix
	}
	return name
}

// PaletteEntry is a named reference shade pair; its centre is the mean of the pair
type PaletteEntry struct {
	Name string
	Dark types.Color
	Lite types.Color
}

// Centre returns the midpoint of the entry's two shades
func (e PaletteEntry) Centre() [3]float64 {
	return [3]float64{
		(float64(e.Dark.R) + float64(e.Lite.R)) / 2,
		(float64(e.Dark.G) + float64(e.Lite.G)) / 2,
		(float64(e.Dark.B) + float64(e.Lite.B)) / 2,
	}
}

// Palette names colors by the nearest entry centre
type Palette []PaletteEntry

// DefaultHairPalette returns the reference hair shades
func DefaultHairPalette() Palette {
	return Palette{
		{Name: "Black", Dark: types.Color{R: 20, G: 20, B: 20}, Lite: types.Color{R: 50, G: 50, B: 50}},
		{Name: "Brown", Dark: types.Color{R: 101, G: 67, B: 33}, Lite: types.Color{R: 150, G: 100, B: 60}},
		{Name: "Blonde", Dark: types.Color{R: 200, G: 180, B: 50}, Lite: types.Color{R: 255, G: 220, B: 100}},
		{Name: "Red", Dark: types.Color{R: 150, G: 50, B: 50}, Lite: types.Color{R: 200, G: 80, B: 80}},
		{Name: "Gray", Dark: types.Color{R: 100, G: 100, B: 100}, Lite: types.Color{R: 180, G: 180, B: 180}},
		{Name: "White", Dark: types.Color{R: 200, G: 200, B: 200}, Lite: types.Color{R: 255, G: 255, B: 255}},
	}
}

// Nearest returns the name of the entry whose centre is closest to c
func (p Palette) Nearest(c types.Color) string {
	if len(p) == 0 {
		return types.UnknownColor
	}

	best, bestDist := "", math.MaxFloat64
	for _, e := range p {
		centre := e.Centre()
		dr := float64(c.R) - centre[0]
		dg := float64(c.G) - centre[1]
		db := float64(c.B) - centre[2]
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = e.Name, d
		}
	}
	return best
}
