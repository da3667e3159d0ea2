package inference

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/menta2k/face-analyzer/pkg/client"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// DefaultPrompt asks a vision model for the attributes of a cropped face
const DefaultPrompt = `You are a facial attribute estimator. The image is a crop of one human face.

Return JSON only:
{
  "emotion": "one of: angry, disgust, fear, happy, sad, surprise, neutral",
  "gender": "one of: Man, Woman",
  "age": 0,
  "confidence": 0.0
}

HARD RULES
- age is an integer estimate in years.
- confidence is your overall certainty in [0,1].
- Do not guess real identities.
- If no face is visible, return {"emotion":"","gender":"","age":0,"confidence":0.0}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

var knownEmotions = []string{"angry", "disgust", "fear", "happy", "sad", "surprise", "neutral"}

// VisionInferrer estimates attributes by prompting a vision language model
type VisionInferrer struct {
	client  client.VisionClient
	model   string
	prompt  string
	maxDim  int
	quality int
}

// NewVisionInferrer creates an inferrer for the given client and model
func NewVisionInferrer(c client.VisionClient, model string) *VisionInferrer {
	return &VisionInferrer{
		client:  c,
		model:   model,
		prompt:  DefaultPrompt,
		maxDim:  512,
		quality: 90,
	}
}

// WithPrompt replaces the attribute prompt
func (v *VisionInferrer) WithPrompt(prompt string) *VisionInferrer {
	v.prompt = prompt
	return v
}

// InferAttributes implements Inferrer
func (v *VisionInferrer) InferAttributes(ctx context.Context, face image.Image) (types.Attributes, error) {
	imgB64, err := processing.EncodeBase64(face, "jpg", v.maxDim, v.quality)
	if err != nil {
		return types.Attributes{}, fmt.Errorf("failed to encode face: %w", err)
	}

	attrs, err := v.client.AnalyzeFace(ctx, v.model, v.prompt, imgB64)
	if err != nil {
		return types.Attributes{}, err
	}
	return validateAttributes(*attrs)
}

// validateAttributes canonicalizes model output and rejects empty answers
func validateAttributes(a types.Attributes) (types.Attributes, error) {
	a.Emotion = normalizeEmotion(a.Emotion)
	a.Gender = normalizeGender(a.Gender)
	if a.Age < 0 || a.Age > 120 {
		a.Age = types.UnknownAge
	}
	a.Confidence = clamp(a.Confidence, 0, 1)

	if a.Emotion == "" && a.Gender == "" {
		return a, fmt.Errorf("model found no face attributes")
	}
	return a, nil
}

func normalizeEmotion(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range knownEmotions {
		if strings.HasPrefix(s, e) {
			return e
		}
	}
	return s
}

func normalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "man", "male", "m":
		return "Man"
	case "woman", "female", "f":
		return "Woman"
	case "":
		return ""
	default:
		return strings.TrimSpace(s)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
