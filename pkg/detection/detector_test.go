package detection

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 1.1, p.ScaleFactor)
	assert.Equal(t, 5, p.MinNeighbors)
	assert.Equal(t, 30, p.MinSize)
}

func TestSanitize(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	boxes := []types.Box{
		{X: 60, Y: 10, Width: 20, Height: 20},
		{X: 90, Y: 90, Width: 30, Height: 30},
		{X: 200, Y: 200, Width: 10, Height: 10},
		{X: 5, Y: 10, Width: 20, Height: 20},
		{X: 0, Y: 0, Width: 0, Height: 10},
	}

	got := Sanitize(boxes, bounds)
	require.Len(t, got, 3)
	assert.Equal(t, types.Box{X: 5, Y: 10, Width: 20, Height: 20}, got[0])
	assert.Equal(t, types.Box{X: 60, Y: 10, Width: 20, Height: 20}, got[1])
	assert.Equal(t, types.Box{X: 90, Y: 90, Width: 10, Height: 10}, got[2])
}

func TestFunc(t *testing.T) {
	want := []types.Box{{X: 1, Y: 2, Width: 3, Height: 4}}
	var d FaceDetector = Func(func(ctx context.Context, img image.Image) ([]types.Box, error) {
		return want, nil
	})

	got, err := d.DetectFaces(context.Background(), image.NewGray(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewPigoDetectorMissingCascade(t *testing.T) {
	_, err := NewPigoDetector(filepath.Join(t.TempDir(), "facefinder"), DefaultParams())
	assert.ErrorContains(t, err, "failed to read cascade file")
}
