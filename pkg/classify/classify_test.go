package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

func TestEyeColorName(t *testing.T) {
	tests := []struct {
		name  string
		color types.Color
		want  string
	}{
		{"brown", types.Color{R: 100, G: 70, B: 20}, "Brown"},
		{"amber", types.Color{R: 200, G: 160, B: 60}, "Amber"},
		{"blue", types.Color{R: 50, G: 100, B: 200}, "Blue"},
		{"green", types.Color{R: 60, G: 180, B: 60}, "Green"},
		{"gray", types.Color{R: 150, G: 150, B: 150}, "Gray"},
		{"red", types.Color{R: 200, G: 30, B: 30}, "Red"},
		{"black is unknown", types.Color{}, "Unknown"},
		{"dark blue is unknown", types.Color{R: 10, G: 10, B: 100}, "Unknown"},
		{"inclusive lower bound", types.Color{R: 80, G: 40, B: 0}, "Brown"},
		{"inclusive upper bound", types.Color{R: 255, G: 255, B: 50}, "Brown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EyeColorName(tt.color))
		})
	}
}

func TestEyeColorHazelShadowedByBrown(t *testing.T) {
	hazel := EyeColorRanges[1]
	require.Equal(t, "Hazel", hazel.Name)

	// Every corner of the hazel range is claimed by brown first
	corners := []types.Color{
		hazel.Lower,
		hazel.Upper,
		{R: hazel.Lower.R, G: hazel.Upper.G, B: hazel.Lower.B},
		{R: hazel.Upper.R, G: hazel.Lower.G, B: hazel.Upper.B},
	}
	for _, c := range corners {
		assert.True(t, hazel.Contains(c))
		assert.Equal(t, "Brown", EyeColorName(c))
	}
}

func TestEyeColorRangeOrder(t *testing.T) {
	names := make([]string, 0, len(EyeColorRanges))
	for _, r := range EyeColorRanges {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Brown", "Hazel", "Amber", "Blue", "Green", "Gray", "Red"}, names)
}

func TestHairColorName(t *testing.T) {
	tests := []struct {
		name  string
		color types.Color
		want  string
	}{
		{"black is dyed", types.Color{}, "Black (possibly dyed)"},
		{"white is blonde dyed", types.Color{R: 255, G: 255, B: 255}, "Blonde (possibly dyed)"},
		{"mid gray unknown", types.Color{R: 55, G: 55, B: 55}, "Unknown"},
		{"auburn", types.Color{R: 130, G: 70, B: 30}, "Auburn/Red"},
		{"brown", types.Color{R: 120, G: 80, B: 60}, "Brown"},
		{"dark black dyed", types.Color{R: 30, G: 30, B: 30}, "Black (possibly dyed)"},
		{"natural black", types.Color{R: 45, G: 45, B: 45}, "Black"},
		{"blonde at brightness limit", types.Color{R: 200, G: 180, B: 130}, "Blonde"},
		{"gray 128 reads as brown", types.Color{R: 128, G: 128, B: 128}, "Brown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HairColorName(tt.color))
		})
	}
}

func TestPaletteNearest(t *testing.T) {
	palette := DefaultHairPalette()

	assert.Equal(t, "Black", palette.Nearest(types.Color{R: 30, G: 30, B: 30}))
	assert.Equal(t, "Blonde", palette.Nearest(types.Color{R: 240, G: 210, B: 80}))
	assert.Equal(t, "Brown", palette.Nearest(types.Color{R: 130, G: 85, B: 45}))
	assert.Equal(t, "Red", palette.Nearest(types.Color{R: 180, G: 60, B: 60}))
	assert.Equal(t, "White", palette.Nearest(types.Color{R: 250, G: 250, B: 250}))
	assert.Equal(t, "Unknown", Palette{}.Nearest(types.Color{}))
}

func TestNewHairNamer(t *testing.T) {
	ladder, err := NewHairNamer("")
	require.NoError(t, err)
	assert.Equal(t, "Black (possibly dyed)", ladder.Name(types.Color{}))

	palette, err := NewHairNamer(StrategyPalette)
	require.NoError(t, err)
	assert.Equal(t, "Black (possibly dyed)", palette.Name(types.Color{R: 30, G: 30, B: 30}))
	assert.Equal(t, "Brown", palette.Name(types.Color{R: 130, G: 85, B: 45}))

	_, err = NewHairNamer("rainbow")
	assert.Error(t, err)
}
