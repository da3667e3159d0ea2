package cropper

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// createTestImage creates a gray image with a white square in the middle
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

// opaqueImage hides SubImage from Region
type opaqueImage struct{ image.Image }

func TestRegionSubImage(t *testing.T) {
	img := createTestImage(90, 90)

	view := Region(img, types.Box{X: 40, Y: 40, Width: 10, Height: 10})
	assert.Equal(t, image.Rect(40, 40, 50, 50), view.Bounds())

	r, g, b, _ := view.At(45, 45).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestRegionFallbackView(t *testing.T) {
	img := opaqueImage{createTestImage(90, 90)}

	view := Region(img, types.Box{X: 80, Y: 80, Width: 30, Height: 30})
	assert.Equal(t, image.Rect(80, 80, 90, 90), view.Bounds())
	assert.Equal(t, color.RGBA{}, view.At(0, 0))
}

func TestRegionOutsideImage(t *testing.T) {
	img := createTestImage(50, 50)

	view := Region(img, types.Box{X: 60, Y: 60, Width: 10, Height: 10})
	assert.True(t, view.Bounds().Empty())
}

func TestPad(t *testing.T) {
	box := types.Box{X: 20, Y: 20, Width: 40, Height: 20}

	assert.Equal(t, box, Pad(box, 0))
	assert.Equal(t, types.Box{X: 16, Y: 18, Width: 48, Height: 24}, Pad(box, 0.1))
}

func TestCropFace(t *testing.T) {
	cropper := New()
	img := createTestImage(300, 300)

	face := cropper.CropFace(img, types.Box{X: 100, Y: 100, Width: 100, Height: 100})
	require.NotNil(t, face)
	assert.Equal(t, image.Rect(0, 0, 100, 100), face.Bounds())
}

func TestCropFaceUpscalesTinyFaces(t *testing.T) {
	cropper := NewWithConfig(CropConfig{MinSide: 64})
	img := createTestImage(100, 100)

	face := cropper.CropFace(img, types.Box{X: 10, Y: 10, Width: 32, Height: 16})
	require.NotNil(t, face)
	assert.Equal(t, 64, face.Bounds().Dx())
	assert.Equal(t, 32, face.Bounds().Dy())
}

func TestCropFaceDownscalesLargeFaces(t *testing.T) {
	cropper := NewWithConfig(CropConfig{MaxSide: 50})
	img := createTestImage(200, 200)

	face := cropper.CropFace(img, types.Box{X: 0, Y: 0, Width: 200, Height: 100})
	require.NotNil(t, face)
	assert.Equal(t, 50, face.Bounds().Dx())
	assert.Equal(t, 25, face.Bounds().Dy())
}

func TestCropFaceOutsideImage(t *testing.T) {
	cropper := New()
	img := createTestImage(50, 50)

	assert.Nil(t, cropper.CropFace(img, types.Box{X: 100, Y: 100, Width: 20, Height: 20}))
}
