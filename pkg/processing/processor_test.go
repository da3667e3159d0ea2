package processing

import (
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func TestEncodeBase64Downscales(t *testing.T) {
	img := createTestImage(400, 200)

	encoded, err := EncodeBase64(img, "png", 100, 90)
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	decoded, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestSaveAndLoadImage(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	img := createTestImage(32, 24)

	for _, format := range []string{"jpg", "png", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "nested", "out."+format)
			require.NoError(t, p.SaveImage(img, path, format, 90, false))

			loaded, err := p.LoadImage(path)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds().Size(), loaded.Bounds().Size())
		})
	}
}

func TestLoadImageMissingFile(t *testing.T) {
	_, err := NewProcessor().LoadImage(filepath.Join(t.TempDir(), "missing.jpg"))
	assert.Error(t, err)
}

func TestLoadImageFromURL(t *testing.T) {
	data, err := Encode(createTestImage(16, 16), "png", 0, 0)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/face.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := NewProcessor()
	ctx := context.Background()

	img, err := p.LoadImageSmart(ctx, server.URL+"/face.png")
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	_, err = p.LoadImageFromURL(ctx, server.URL+"/page")
	assert.ErrorContains(t, err, "does not point to an image")

	_, err = p.LoadImageFromURL(ctx, server.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = p.LoadImageFromURL(ctx, "ftp://example.com/a.png")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestAnnotate(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	a := NewAnnotator()
	box := types.Box{X: 50, Y: 120, Width: 60, Height: 60}

	a.Annotate(dst, box, []string{"Gender: Woman", "Age: 30"})

	assert.Equal(t, a.BoxColor, dst.NRGBAAt(50, 120))
	assert.Equal(t, a.BoxColor, dst.NRGBAAt(109, 179))
	assert.Equal(t, color.NRGBA{}, dst.NRGBAAt(80, 150), "box interior stays untouched")

	// Both label lines leave pixels in their bands above the box
	assert.True(t, bandHasInk(dst, 98, 112), "first line")
	assert.True(t, bandHasInk(dst, 78, 92), "second line")
}

func TestAnnotateClipsAtEdges(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	a := NewAnnotator()

	assert.NotPanics(t, func() {
		a.Annotate(dst, types.Box{X: -10, Y: -10, Width: 80, Height: 80}, []string{"Gender: Man"})
	})
}

func bandHasInk(img *image.NRGBA, y0, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.NRGBAAt(x, y).A != 0 {
				return true
			}
		}
	}
	return false
}
