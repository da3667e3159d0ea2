package rekognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rtypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeThrottling       = "ThrottlingException"
)

var (
	ErrInvalidCredentials = errors.New("rekognition: invalid AWS credentials")
	ErrNoFaceDetected     = errors.New("rekognition: no face detected")
	ErrThrottled          = errors.New("rekognition: request throttled")
)

// API is the subset of the Rekognition client used here
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Config holds the AWS settings
type Config struct {
	Region string
}

// Provider estimates face attributes with AWS Rekognition DetectFaces
type Provider struct {
	api API
}

// NewProvider loads AWS credentials from the default chain
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewProviderWithAPI(rekognition.NewFromConfig(awsCfg)), nil
}

// NewProviderWithAPI wraps an existing Rekognition API implementation
func NewProviderWithAPI(api API) *Provider {
	return &Provider{api: api}
}

// InferAttributes sends the face crop to DetectFaces and maps the strongest face detail
func (p *Provider) InferAttributes(ctx context.Context, face image.Image) (types.Attributes, error) {
	data, err := processing.Encode(face, "jpg", 0, 95)
	if err != nil {
		return types.Attributes{}, fmt.Errorf("encode face: %w", err)
	}

	out, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &rtypes.Image{Bytes: data},
		Attributes: []rtypes.Attribute{rtypes.AttributeAll},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case errCodeAccessDenied:
				return types.Attributes{}, ErrInvalidCredentials
			case errCodeThrottling:
				return types.Attributes{}, ErrThrottled
			case errCodeInvalidParameter:
				return types.Attributes{}, fmt.Errorf("invalid image: %w", err)
			}
		}
		return types.Attributes{}, fmt.Errorf("detect faces: %w", err)
	}
	if out == nil || len(out.FaceDetails) == 0 {
		return types.Attributes{}, ErrNoFaceDetected
	}

	best := out.FaceDetails[0]
	for _, d := range out.FaceDetails[1:] {
		if f32(d.Confidence) > f32(best.Confidence) {
			best = d
		}
	}

	return mapFaceDetail(best), nil
}

func mapFaceDetail(d rtypes.FaceDetail) types.Attributes {
	attrs := types.Attributes{Confidence: f32(d.Confidence) / 100}

	var bestEmotion float64 = -1
	for _, e := range d.Emotions {
		if c := f32(e.Confidence); c > bestEmotion {
			bestEmotion = c
			attrs.Emotion = emotionLabel(e.Type)
		}
	}

	if d.Gender != nil {
		switch d.Gender.Value {
		case rtypes.GenderTypeMale:
			attrs.Gender = "Man"
		case rtypes.GenderTypeFemale:
			attrs.Gender = "Woman"
		}
	}

	if d.AgeRange != nil && d.AgeRange.Low != nil && d.AgeRange.High != nil {
		attrs.Age = int(math.Round(float64(*d.AgeRange.Low+*d.AgeRange.High) / 2))
	}

	return attrs
}

// emotionLabel maps Rekognition emotion names onto the labels used elsewhere
func emotionLabel(e rtypes.EmotionName) string {
	switch e {
	case rtypes.EmotionNameHappy:
		return "happy"
	case rtypes.EmotionNameSad:
		return "sad"
	case rtypes.EmotionNameAngry:
		return "angry"
	case rtypes.EmotionNameConfused:
		return "confused"
	case rtypes.EmotionNameDisgusted:
		return "disgust"
	case rtypes.EmotionNameSurprised:
		return "surprise"
	case rtypes.EmotionNameCalm:
		return "neutral"
	case rtypes.EmotionNameFear:
		return "fear"
	default:
		return ""
	}
}

func f32(v *float32) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
