package detection

import (
	"context"
	"image"
	"sort"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// FaceDetector finds face bounding boxes in an image
type FaceDetector interface {
	DetectFaces(ctx context.Context, img image.Image) ([]types.Box, error)
}

// Func adapts a function to FaceDetector
type Func func(ctx context.Context, img image.Image) ([]types.Box, error)

// DetectFaces implements FaceDetector
func (f Func) DetectFaces(ctx context.Context, img image.Image) ([]types.Box, error) {
	return f(ctx, img)
}

// Params holds the multi-scale detection parameters
type Params struct {
	ScaleFactor  float64 `json:"scale_factor"`
	MinNeighbors int     `json:"min_neighbors"`
	MinSize      int     `json:"min_size"`
	MaxSize      int     `json:"max_size"`
	ShiftFactor  float64 `json:"shift_factor"`
	IoUThreshold float64 `json:"iou_threshold"`
	MinQuality   float32 `json:"min_quality"`
}

// DefaultParams returns the detection parameters used for face finding
func DefaultParams() Params {
	return Params{
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      30,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		IoUThreshold: 0.2,
		MinQuality:   5.0,
	}
}

// Sanitize clamps boxes to the image bounds, drops empty ones and orders the
// rest top-to-bottom, left-to-right so records come out in a stable order.
func Sanitize(boxes []types.Box, bounds image.Rectangle) []types.Box {
	out := make([]types.Box, 0, len(boxes))
	for _, b := range boxes {
		if c := b.Clamp(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
