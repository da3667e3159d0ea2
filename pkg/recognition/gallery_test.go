package recognition

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// colorEmbedder embeds a face as the color of its top-left pixel
type colorEmbedder struct{ err error }

func (e colorEmbedder) Represent(ctx context.Context, face image.Image) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	r, g, b, _ := face.At(face.Bounds().Min.X, face.Bounds().Min.Y).RGBA()
	return []float64{float64(r >> 8), float64(g >> 8), float64(b >> 8)}, nil
}

type memoryStore struct {
	mu    sync.Mutex
	faces []KnownFace
	err   error
}

func (s *memoryStore) SaveKnownFace(ctx context.Context, face KnownFace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.faces = append(s.faces, face)
	return nil
}

func (s *memoryStore) LoadKnownFaces(ctx context.Context) ([]KnownFace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]KnownFace(nil), s.faces...), s.err
}

func solid(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, 1, CosineDistance([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, 2, CosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-12)
	assert.Equal(t, 2.0, CosineDistance([]float64{1}, []float64{1, 2}))
	assert.Equal(t, 2.0, CosineDistance([]float64{0, 0}, []float64{1, 2}))
}

func TestEnrollAndRecognize(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	g := NewGallery(colorEmbedder{}, store, 0, nil)

	_, err := g.Enroll(ctx, "Ada", solid(color.NRGBA{200, 10, 10, 255}))
	require.NoError(t, err)
	_, err = g.Enroll(ctx, "Grace", solid(color.NRGBA{10, 10, 200, 255}))
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.Len(t, store.faces, 2)
	assert.ElementsMatch(t, []string{"Ada", "Grace"}, g.Names())

	m, err := g.Recognize(ctx, solid(color.NRGBA{190, 20, 15, 255}))
	require.NoError(t, err)
	assert.True(t, m.Known)
	assert.Equal(t, "Ada", m.Name)
	assert.Less(t, m.Distance, DefaultTolerance)

	// Orthogonal to both enrolled colors
	m, err = g.Recognize(ctx, solid(color.NRGBA{0, 200, 0, 255}))
	require.NoError(t, err)
	assert.False(t, m.Known)
	assert.Equal(t, types.UnidentifiedPerson, m.Name)
}

func TestRecognizeEmptyGallery(t *testing.T) {
	g := NewGallery(colorEmbedder{}, nil, 0, nil)

	m, err := g.Recognize(context.Background(), solid(color.NRGBA{1, 2, 3, 255}))
	require.NoError(t, err)
	assert.Equal(t, types.UnidentifiedPerson, m.Name)
}

func TestEnrollErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewGallery(colorEmbedder{}, nil, 0, nil).Enroll(ctx, "  ", solid(color.NRGBA{}))
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewGallery(colorEmbedder{err: errors.New("offline")}, nil, 0, nil).Enroll(ctx, "Ada", solid(color.NRGBA{}))
	assert.ErrorContains(t, err, "offline")

	g := NewGallery(colorEmbedder{}, &memoryStore{err: errors.New("disk full")}, 0, nil)
	_, err = g.Enroll(ctx, "Ada", solid(color.NRGBA{1, 1, 1, 255}))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 0, g.Len(), "failed saves must not enter the gallery")
}

func TestIdentifyLogsFailures(t *testing.T) {
	g := NewGallery(colorEmbedder{err: errors.New("offline")}, nil, 0, nil)
	g.faces = []KnownFace{{Name: "Ada", Embedding: []float64{1, 0, 0}}}

	assert.Equal(t, types.UnidentifiedPerson, g.Identify(context.Background(), solid(color.NRGBA{})))
}

func TestLoad(t *testing.T) {
	store := &memoryStore{faces: []KnownFace{{ID: "1", Name: "Ada", Embedding: []float64{1, 0, 0}}}}
	g := NewGallery(colorEmbedder{}, store, 0, nil)

	require.NoError(t, g.Load(context.Background()))
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, "Ada", g.Identify(context.Background(), solid(color.NRGBA{255, 0, 0, 255})))
}

func TestArchiveSave(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := NewArchive(dir).Save("Ada", solid(color.NRGBA{9, 9, 9, 255}), ts, 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Ada", "20240102_030405_1.jpg"), path)
	assert.True(t, utils.FileExists(path))
}
