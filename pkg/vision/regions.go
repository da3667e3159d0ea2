package vision

import (
	"image"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// Region proportions relative to the face box
const (
	hairHeightRatio     = 0.6
	eyeTopRatio         = 0.2
	eyeBottomRatio      = 0.4
	eyeLeftRatio        = 0.2
	eyeRightRatio       = 0.8
	clothingHeightRatio = 0.5
)

// Regions holds the sub-regions derived from a face box
type Regions struct {
	Hair     types.Box
	Eye      types.Box
	Clothing types.Box
}

// DeriveRegions computes the hair, eye and clothing boxes for a face.
// The hair box never starts above row 0; the others are not clamped here.
func DeriveRegions(face types.Box) Regions {
	x, y, w, h := face.X, face.Y, face.Width, face.Height

	hairTop := y - int(float64(h)*hairHeightRatio)
	if hairTop < 0 {
		hairTop = 0
	}

	eyeX0 := x + int(float64(w)*eyeLeftRatio)
	eyeX1 := x + int(float64(w)*eyeRightRatio)
	eyeY0 := y + int(float64(h)*eyeTopRatio)
	eyeY1 := y + int(float64(h)*eyeBottomRatio)

	return Regions{
		Hair:     types.Box{X: x, Y: hairTop, Width: w, Height: y - hairTop},
		Eye:      types.Box{X: eyeX0, Y: eyeY0, Width: eyeX1 - eyeX0, Height: eyeY1 - eyeY0},
		Clothing: types.Box{X: x, Y: y + h, Width: w, Height: int(float64(h) * clothingHeightRatio)},
	}
}

// Clamp restricts every region to the image bounds
func (r Regions) Clamp(bounds image.Rectangle) Regions {
	return Regions{
		Hair:     r.Hair.Clamp(bounds),
		Eye:      r.Eye.Clamp(bounds),
		Clothing: r.Clothing.Clamp(bounds),
	}
}
