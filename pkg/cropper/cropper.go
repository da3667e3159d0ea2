package cropper

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// FaceCropper produces face crops for attribute inference
type FaceCropper struct {
	config CropConfig
}

// CropConfig holds configuration for face cropping
type CropConfig struct {
	// PaddingRatio grows the face box on every side before cropping
	PaddingRatio float64
	// MinSide upscales crops whose shorter side is below it (0 disables)
	MinSide int
	// MaxSide downscales crops whose longer side is above it (0 disables)
	MaxSide int
}

// New creates a FaceCropper with default configuration
func New() *FaceCropper {
	return &FaceCropper{
		config: CropConfig{
			PaddingRatio: 0,
			MinSide:      48,
			MaxSide:      512,
		},
	}
}

// NewWithConfig creates a FaceCropper with custom configuration
func NewWithConfig(config CropConfig) *FaceCropper {
	return &FaceCropper{config: config}
}

// CropFace crops the (optionally padded) face box and normalizes its size
func (c *FaceCropper) CropFace(img image.Image, face types.Box) image.Image {
	box := Pad(face, c.config.PaddingRatio).Clamp(img.Bounds())
	if box.Empty() {
		return nil
	}

	crop := imaging.Crop(img, box.Rect())
	w, h := crop.Bounds().Dx(), crop.Bounds().Dy()

	switch {
	case c.config.MaxSide > 0 && (w > c.config.MaxSide || h > c.config.MaxSide):
		return imaging.Fit(crop, c.config.MaxSide, c.config.MaxSide, imaging.Lanczos)
	case c.config.MinSide > 0 && w < c.config.MinSide && h < c.config.MinSide:
		if w >= h {
			return imaging.Resize(crop, c.config.MinSide, 0, imaging.Lanczos)
		}
		return imaging.Resize(crop, 0, c.config.MinSide, imaging.Lanczos)
	}
	return crop
}

// Pad grows a box by ratio of its size on every side
func Pad(b types.Box, ratio float64) types.Box {
	if ratio <= 0 {
		return b
	}
	dx := int(float64(b.Width) * ratio)
	dy := int(float64(b.Height) * ratio)
	return types.Box{X: b.X - dx, Y: b.Y - dy, Width: b.Width + 2*dx, Height: b.Height + 2*dy}
}

// Region returns a view of img restricted to box, clamped to the image bounds.
// The view shares pixels with img; an empty box yields an empty image.
func Region(img image.Image, box types.Box) image.Image {
	rect := box.Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return image.NewNRGBA(image.Rectangle{})
	}

	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	return &croppedImage{original: img, bounds: rect}
}

// croppedImage implements image.Image for sources without SubImage
type croppedImage struct {
	original image.Image
	bounds   image.Rectangle
}

func (c *croppedImage) ColorModel() color.Model {
	return c.original.ColorModel()
}

func (c *croppedImage) Bounds() image.Rectangle {
	return c.bounds
}

func (c *croppedImage) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(c.bounds) {
		return color.RGBA{}
	}
	return c.original.At(x, y)
}
