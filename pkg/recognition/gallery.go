package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// DefaultTolerance is the largest cosine distance accepted as a match
const DefaultTolerance = 0.4

var (
	ErrEmptyName   = errors.New("recognition: name must not be empty")
	ErrNoEmbedding = errors.New("recognition: embedder returned no embedding")
)

// Embedder produces a face embedding for a face crop
type Embedder interface {
	Represent(ctx context.Context, face image.Image) ([]float64, error)
}

// Store persists enrolled faces
type Store interface {
	SaveKnownFace(ctx context.Context, face KnownFace) error
	LoadKnownFaces(ctx context.Context) ([]KnownFace, error)
}

// KnownFace is one enrolled embedding
type KnownFace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Embedding []float64 `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is the result of comparing a face against the gallery
type Match struct {
	Name     string
	Distance float64
	Known    bool
}

// Gallery matches faces against enrolled embeddings
type Gallery struct {
	embedder  Embedder
	store     Store
	tolerance float64
	logger    *slog.Logger

	mu    sync.RWMutex
	faces []KnownFace
}

// NewGallery creates a gallery; store may be nil for an in-memory gallery
func NewGallery(embedder Embedder, store Store, tolerance float64, logger *slog.Logger) *Gallery {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gallery{embedder: embedder, store: store, tolerance: tolerance, logger: logger}
}

// Load replaces the in-memory gallery with the persisted faces
func (g *Gallery) Load(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	faces, err := g.store.LoadKnownFaces(ctx)
	if err != nil {
		return fmt.Errorf("failed to load known faces: %w", err)
	}

	g.mu.Lock()
	g.faces = faces
	g.mu.Unlock()

	g.logger.Info("loaded known faces", "count", len(faces))
	return nil
}

// Len returns the number of enrolled embeddings
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.faces)
}

// Names returns the distinct enrolled names
func (g *Gallery) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, f := range g.faces {
		if !seen[f.Name] {
			seen[f.Name] = true
			names = append(names, f.Name)
		}
	}
	return names
}

// Enroll embeds the face and stores it under name
func (g *Gallery) Enroll(ctx context.Context, name string, face image.Image) (KnownFace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return KnownFace{}, ErrEmptyName
	}

	embedding, err := g.embedder.Represent(ctx, face)
	if err != nil {
		return KnownFace{}, fmt.Errorf("failed to embed face: %w", err)
	}
	if len(embedding) == 0 {
		return KnownFace{}, ErrNoEmbedding
	}

	known := KnownFace{
		ID:        uuid.NewString(),
		Name:      name,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
	if g.store != nil {
		if err := g.store.SaveKnownFace(ctx, known); err != nil {
			return KnownFace{}, fmt.Errorf("failed to save known face: %w", err)
		}
	}

	g.mu.Lock()
	g.faces = append(g.faces, known)
	g.mu.Unlock()

	g.logger.Info("enrolled face", "name", name, "id", known.ID)
	return known, nil
}

// Recognize returns the nearest enrolled face within tolerance
func (g *Gallery) Recognize(ctx context.Context, face image.Image) (Match, error) {
	unknown := Match{Name: types.UnidentifiedPerson, Distance: math.Inf(1)}
	if g.Len() == 0 {
		return unknown, nil
	}

	embedding, err := g.embedder.Represent(ctx, face)
	if err != nil {
		return unknown, fmt.Errorf("failed to embed face: %w", err)
	}

	return g.match(embedding), nil
}

// Identify returns the matched name or the unidentified sentinel; errors are logged
func (g *Gallery) Identify(ctx context.Context, face image.Image) string {
	m, err := g.Recognize(ctx, face)
	if err != nil {
		g.logger.Warn("face recognition failed", "error", err)
		return types.UnidentifiedPerson
	}
	return m.Name
}

func (g *Gallery) match(embedding []float64) Match {
	g.mu.RLock()
	defer g.mu.RUnlock()

	best := Match{Name: types.UnidentifiedPerson, Distance: math.Inf(1)}
	for _, f := range g.faces {
		if len(f.Embedding) != len(embedding) {
			continue
		}
		if d := CosineDistance(embedding, f.Embedding); d < best.Distance {
			best.Distance = d
			best.Name = f.Name
		}
	}

	if best.Distance > g.tolerance {
		return Match{Name: types.UnidentifiedPerson, Distance: best.Distance}
	}
	best.Known = true
	return best
}

// CosineDistance returns 1 - cosine similarity; mismatched or zero vectors are maximally distant
func CosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
