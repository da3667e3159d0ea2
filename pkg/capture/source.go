package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/processing"
)

// ErrEndOfStream is returned by Read when a finite source has no more frames
var ErrEndOfStream = errors.New("capture: end of stream")

// ErrClosed is returned by Read after Close
var ErrClosed = errors.New("capture: source closed")

// Source yields frames from a camera or a recorded sequence
type Source interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener acquires a Source; the camera loop calls it once per start
type Opener func() (Source, error)

// DirSource plays back the image files of a directory in name order
type DirSource struct {
	files     []string
	loop      bool
	processor *processing.Processor

	mu     sync.Mutex
	next   int
	closed bool
}

// NewDirSource lists the images under dir; loop restarts from the first file at the end
func NewDirSource(dir string, loop bool) (*DirSource, error) {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list images in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return NewFileSource(files, loop), nil
}

// NewFileSource plays back the given image files in order
func NewFileSource(files []string, loop bool) *DirSource {
	return &DirSource{
		files:     files,
		loop:      loop,
		processor: processing.NewProcessor(),
	}
}

// Read loads the next image of the sequence
func (s *DirSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.next >= len(s.files) {
		if !s.loop {
			s.mu.Unlock()
			return nil, ErrEndOfStream
		}
		s.next = 0
	}
	path := s.files[s.next]
	s.next++
	s.mu.Unlock()

	img, err := s.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return img, nil
}

// Close releases the source; subsequent reads fail with ErrClosed
func (s *DirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
