package detection

import (
	"context"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// PigoDetector finds faces with the pure Go pigo cascade classifier
type PigoDetector struct {
	classifier *pigo.Pigo
	params     Params
}

// NewPigoDetector loads a pigo cascade file (e.g. "facefinder") from disk
func NewPigoDetector(cascadePath string, params Params) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade file: %w", err)
	}
	return NewPigoDetectorFromBytes(data, params)
}

// NewPigoDetectorFromBytes unpacks an in-memory pigo cascade
func NewPigoDetectorFromBytes(cascade []byte, params Params) (*PigoDetector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack cascade: %w", err)
	}
	return &PigoDetector{classifier: classifier, params: params}, nil
}

// DetectFaces runs the cascade over the grayscale image and returns clustered face boxes
func (d *PigoDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := pigo.ImgToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	maxSize := d.params.MaxSize
	if maxSize <= 0 {
		maxSize = max(cols, rows)
	}

	params := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)

	origin := img.Bounds().Min
	boxes := make([]types.Box, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.params.MinQuality {
			continue
		}
		boxes = append(boxes, types.Box{
			X:      origin.X + det.Col - det.Scale/2,
			Y:      origin.Y + det.Row - det.Scale/2,
			Width:  det.Scale,
			Height: det.Scale,
		})
	}

	return Sanitize(boxes, img.Bounds()), nil
}
