//go:build gocv

package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/menta2k/face-analyzer/pkg/capture"
)

// Camera reads frames from a video capture device
type Camera struct {
	mu     sync.Mutex
	device *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// OpenCamera opens the capture device with the given index
func OpenCamera(index int) (*Camera, error) {
	device, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", ErrCameraUnavailable, index, err)
	}
	if !device.IsOpened() {
		device.Close()
		return nil, fmt.Errorf("%w: device %d", ErrCameraUnavailable, index)
	}
	return &Camera{device: device, frame: gocv.NewMat()}, nil
}

// CameraOpener returns a capture.Opener for the device index
func CameraOpener(index int) capture.Opener {
	return func() (capture.Source, error) {
		return OpenCamera(index)
	}
}

// Read grabs the next frame
func (c *Camera) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, capture.ErrClosed
	}
	if ok := c.device.Read(&c.frame); !ok || c.frame.Empty() {
		return nil, fmt.Errorf("%w: failed to read frame", ErrCameraUnavailable)
	}

	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return img, nil
}

// Close releases the device; it is safe to call more than once
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.frame.Close()
	return c.device.Close()
}
