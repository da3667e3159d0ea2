//go:build gocv

package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// CascadeDetector finds faces with an OpenCV Haar cascade
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	params     detection.Params
}

// NewCascadeDetector loads a Haar cascade XML file (e.g. haarcascade_frontalface_default.xml)
func NewCascadeDetector(cascadePath string, params detection.Params) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade file: %s", cascadePath)
	}
	return &CascadeDetector{classifier: classifier, params: params}, nil
}

// DetectFaces converts the image to grayscale and runs multi-scale detection
func (d *CascadeDetector) DetectFaces(ctx context.Context, img image.Image) ([]types.Box, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	minSize := image.Pt(d.params.MinSize, d.params.MinSize)
	var maxSize image.Point
	if d.params.MaxSize > 0 {
		maxSize = image.Pt(d.params.MaxSize, d.params.MaxSize)
	}

	// CascadeClassifier is not safe for concurrent use
	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(gray, d.params.ScaleFactor, d.params.MinNeighbors, 0, minSize, maxSize)
	d.mu.Unlock()

	origin := img.Bounds().Min
	boxes := make([]types.Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, types.FromRect(r.Add(origin)))
	}
	return detection.Sanitize(boxes, img.Bounds()), nil
}

// Close releases the classifier
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
