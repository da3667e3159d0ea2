//go:build !gocv

package opencv

import (
	"context"
	"image"

	"github.com/menta2k/face-analyzer/pkg/capture"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// CascadeDetector is unavailable without the gocv build tag
type CascadeDetector struct{}

// NewCascadeDetector returns ErrUnavailable without the gocv build tag
func NewCascadeDetector(cascadePath string, params detection.Params) (*CascadeDetector, error) {
	return nil, ErrUnavailable
}

// DetectFaces returns ErrUnavailable
func (d *CascadeDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.Box, error) {
	return nil, ErrUnavailable
}

// Close is a no-op
func (d *CascadeDetector) Close() error { return nil }

// Camera is unavailable without the gocv build tag
type Camera struct{}

// OpenCamera returns ErrUnavailable without the gocv build tag
func OpenCamera(index int) (*Camera, error) {
	return nil, ErrUnavailable
}

// CameraOpener returns an opener that always fails with ErrUnavailable
func CameraOpener(index int) capture.Opener {
	return func() (capture.Source, error) {
		return nil, ErrUnavailable
	}
}

// Read returns ErrUnavailable
func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	return nil, ErrUnavailable
}

// Close is a no-op
func (c *Camera) Close() error { return nil }
