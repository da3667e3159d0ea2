package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"github.com/menta2k/face-analyzer/pkg/classify"
	"github.com/menta2k/face-analyzer/pkg/cropper"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
	"github.com/menta2k/face-analyzer/pkg/vision"
)

var (
	ErrNilImage   = errors.New("analyzer: image is nil")
	ErrNoDetector = errors.New("analyzer: no face detector configured")
)

// Identifier names the person in a face crop, returning types.UnidentifiedPerson when unknown
type Identifier interface {
	Identify(ctx context.Context, face image.Image) string
}

// Archiver stores face crops keyed by identity
type Archiver interface {
	Save(identity string, face image.Image, ts time.Time, index int) (string, error)
}

// Config holds configuration for the face attribute pipeline
type Config struct {
	// InferenceTimeout bounds each per-face inference call (0 disables)
	InferenceTimeout time.Duration
	// MinConfidence rejects inference results reporting a lower confidence
	MinConfidence float64
	// Annotate controls whether boxes and labels are drawn on the result image
	Annotate bool
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		InferenceTimeout: 30 * time.Second,
		Annotate:         true,
	}
}

// Result is the output of one Analyze call
type Result struct {
	Annotated *image.NRGBA
	Records   []types.AttributeRecord
	Faces     int
}

// Analyzer runs detection, inference, color extraction and classification for every face in an image
type Analyzer struct {
	config     Config
	detector   detection.FaceDetector
	inferrer   inference.Inferrer
	cropper    *cropper.FaceCropper
	colors     *vision.ColorExtractor
	hair       classify.HairNamer
	annotator  *processing.Annotator
	identifier Identifier
	archiver   Archiver
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Analyzer. A nil inferrer is allowed: every face then carries the sentinel attributes.
func New(detector detection.FaceDetector, inferrer inference.Inferrer, config Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		config:    config,
		detector:  detector,
		inferrer:  inferrer,
		cropper:   cropper.New(),
		colors:    vision.NewColorExtractorWithConfig(vision.DefaultColorConfig(), logger),
		hair:      classify.HairNamerFunc(classify.HairColorName),
		annotator: processing.NewAnnotator(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithHairNamer replaces the hair naming strategy
func (a *Analyzer) WithHairNamer(n classify.HairNamer) *Analyzer {
	if n != nil {
		a.hair = n
	}
	return a
}

// WithIdentifier enables identity recognition
func (a *Analyzer) WithIdentifier(id Identifier) *Analyzer {
	a.identifier = id
	return a
}

// WithArchiver enables saving of face crops
func (a *Analyzer) WithArchiver(ar Archiver) *Analyzer {
	a.archiver = ar
	return a
}

// WithColorExtractor replaces the color extractor
func (a *Analyzer) WithColorExtractor(e *vision.ColorExtractor) *Analyzer {
	if e != nil {
		a.colors = e
	}
	return a
}

// WithCropper replaces the face cropper used for inference crops
func (a *Analyzer) WithCropper(c *cropper.FaceCropper) *Analyzer {
	if c != nil {
		a.cropper = c
	}
	return a
}

// WithAnnotator replaces the label style
func (a *Analyzer) WithAnnotator(an *processing.Annotator) *Analyzer {
	if an != nil {
		a.annotator = an
	}
	return a
}

// Analyze detects faces in img and returns an annotated copy plus one record per face.
// Detector errors are fatal; per-face inference failures become sentinel values.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if a.detector == nil {
		return nil, ErrNoDetector
	}

	raw, err := a.detector.DetectFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	bounds := img.Bounds()
	faces := detection.Sanitize(raw, bounds)
	if dropped := len(raw) - len(faces); dropped > 0 {
		a.logger.Warn("skipped faces outside the image", "count", dropped)
	}

	result := &Result{
		Annotated: imaging.Clone(img),
		Records:   make([]types.AttributeRecord, 0, len(faces)),
		Faces:     len(faces),
	}

	ts := a.now()
	for i, face := range faces {
		record := a.analyzeFace(ctx, img, face, ts, i)
		result.Records = append(result.Records, record)

		if a.config.Annotate {
			// The clone is rebased to the origin
			a.annotator.Annotate(result.Annotated, shift(face, bounds.Min), record.Labels())
		}
	}

	a.logger.Debug("image analyzed", "faces", len(faces))
	return result, nil
}

func (a *Analyzer) analyzeFace(ctx context.Context, img image.Image, face types.Box, ts time.Time, index int) types.AttributeRecord {
	crop := a.cropper.CropFace(img, face)

	outcome := inference.Run(ctx, a.inferrer, crop, inference.Options{
		Timeout:       a.config.InferenceTimeout,
		MinConfidence: a.config.MinConfidence,
	})
	if !outcome.OK() {
		a.logger.Warn("attribute inference failed, using sentinels", "face", index, "error", outcome.Err())
	}
	attrs := outcome.Attributes().Normalize()

	regions := vision.DeriveRegions(face).Clamp(img.Bounds())
	hairRGB := a.colors.DominantColor(cropper.Region(img, regions.Hair))
	eyeRGB := a.colors.DominantColor(cropper.Region(img, regions.Eye))
	clothingRGB := a.colors.DominantColor(cropper.Region(img, regions.Clothing))

	record := types.AttributeRecord{
		Gender:        attrs.Gender,
		Age:           attrs.Age,
		HairColor:     a.hair.Name(hairRGB),
		EyeColor:      classify.EyeColorName(eyeRGB),
		Emotion:       attrs.Emotion,
		ClothingColor: clothingRGB,
		HairRGB:       hairRGB,
		EyeRGB:        eyeRGB,
		Box:           face,
		Timestamp:     ts,
	}

	if a.identifier != nil {
		record.Identity = types.UnidentifiedPerson
		if crop != nil {
			record.Identity = a.identifier.Identify(ctx, crop)
		}
	}

	if a.archiver != nil && crop != nil {
		identity := record.Identity
		if identity == "" {
			identity = types.UnidentifiedPerson
		}
		if path, err := a.archiver.Save(identity, crop, ts, index); err != nil {
			a.logger.Warn("failed to archive face crop", "face", index, "error", err)
		} else {
			a.logger.Debug("face crop archived", "path", path)
		}
	}

	return record
}

func shift(b types.Box, origin image.Point) types.Box {
	b.X -= origin.X
	b.Y -= origin.Y
	return b
}
