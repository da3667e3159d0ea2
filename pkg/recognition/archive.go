package recognition

import (
	"fmt"
	"image"
	"time"

	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/processing"
)

// Archive saves face crops into one directory per identity
type Archive struct {
	dir       string
	quality   int
	processor *processing.Processor
}

// NewArchive creates an archive rooted at dir
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir, quality: 90, processor: processing.NewProcessor()}
}

// Save writes the crop as <dir>/<identity>/<timestamp>_<index>.jpg and returns the path
func (a *Archive) Save(identity string, face image.Image, ts time.Time, index int) (string, error) {
	path := utils.FaceCropPath(a.dir, identity, ts, index)
	if err := a.processor.SaveImage(face, path, "jpg", a.quality, false); err != nil {
		return "", fmt.Errorf("failed to archive face: %w", err)
	}
	return path, nil
}
