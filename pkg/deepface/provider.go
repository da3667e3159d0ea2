package deepface

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// Provider turns DeepFace replies into face attributes and embeddings
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{client: NewClient(config)}
}

// InferAttributes estimates emotion, gender and age for a face crop
func (p *Provider) InferAttributes(ctx context.Context, face image.Image) (types.Attributes, error) {
	img, err := encodeDataURI(face)
	if err != nil {
		return types.Attributes{}, err
	}

	resp, err := p.client.Analyze(ctx, img)
	if err != nil {
		return types.Attributes{}, fmt.Errorf("analyze face: %w", err)
	}
	if len(resp.Results) == 0 {
		return types.Attributes{}, ErrNoFaceInResponse
	}

	// A crop may still yield several detections; keep the largest
	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.Region.W*r.Region.H > best.Region.W*best.Region.H {
			best = r
		}
	}

	emotion := best.DominantEmotion
	if emotion == "" {
		emotion = argmax(best.Emotion)
	}
	gender := best.DominantGender
	if gender == "" {
		gender = argmax(best.Gender)
	}

	return types.Attributes{
		Emotion:    emotion,
		Gender:     gender,
		Age:        int(math.Round(best.Age)),
		Confidence: best.FaceConfidence,
	}, nil
}

// Represent returns the embedding of the largest face in the crop
func (p *Provider) Represent(ctx context.Context, face image.Image) ([]float64, error) {
	img, err := encodeDataURI(face)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Represent(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("represent face: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.FacialArea.W*r.FacialArea.H > best.FacialArea.W*best.FacialArea.H {
			best = r
		}
	}
	if len(best.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrInvalidResponse)
	}
	return best.Embedding, nil
}

func encodeDataURI(face image.Image) (string, error) {
	b64, err := processing.EncodeBase64(face, "jpg", 0, 95)
	if err != nil {
		return "", fmt.Errorf("encode face: %w", err)
	}
	return "data:image/jpeg;base64," + b64, nil
}

func argmax(scores map[string]float64) string {
	best, bestScore := "", math.Inf(-1)
	for label, score := range scores {
		if score > bestScore || (score == bestScore && label < best) {
			best, bestScore = label, score
		}
	}
	return best
}
