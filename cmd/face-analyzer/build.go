package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/pkg/analyzer"
	"github.com/menta2k/face-analyzer/pkg/classify"
	"github.com/menta2k/face-analyzer/pkg/cropper"
	"github.com/menta2k/face-analyzer/pkg/deepface"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/llamacpp"
	"github.com/menta2k/face-analyzer/pkg/ollama"
	"github.com/menta2k/face-analyzer/pkg/opencv"
	"github.com/menta2k/face-analyzer/pkg/recognition"
	"github.com/menta2k/face-analyzer/pkg/rekognition"
	"github.com/menta2k/face-analyzer/pkg/store"
	"github.com/menta2k/face-analyzer/pkg/vision"
)

// components are the long-lived objects built from the configuration
type components struct {
	pipeline *analyzer.Analyzer
	detector detection.FaceDetector
	db       *store.DB
	gallery  *recognition.Gallery
	closers  []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			slog.Warn("failed to release resource", "error", err)
		}
	}
}

func detectorParams(c *config.Config) detection.Params {
	return detection.Params{
		ScaleFactor:  c.Detector.ScaleFactor,
		MinNeighbors: c.Detector.MinNeighbors,
		MinSize:      c.Detector.MinSize,
		MaxSize:      c.Detector.MaxSize,
		ShiftFactor:  c.Detector.ShiftFactor,
		IoUThreshold: c.Detector.IoUThreshold,
		MinQuality:   float32(c.Detector.MinQuality),
	}
}

// buildDetector returns the configured detector and its release function
func buildDetector(c *config.Config) (detection.FaceDetector, func() error, error) {
	params := detectorParams(c)

	switch c.Detector.Backend {
	case "opencv":
		d, err := opencv.NewCascadeDetector(c.Detector.CascadePath, params)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load opencv cascade: %w", err)
		}
		return d, d.Close, nil
	default:
		d, err := detection.NewPigoDetector(c.Detector.CascadePath, params)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load pigo cascade: %w", err)
		}
		return d, func() error { return nil }, nil
	}
}

func deepfaceConfig(c *config.Config) deepface.Config {
	dc := deepface.DefaultConfig()
	dc.BaseURL = c.Inference.DeepFaceURL
	dc.Model = c.Inference.DeepFaceModel
	dc.Detector = c.Inference.DeepFaceDetector
	if t := c.InferenceTimeout(); t > 0 {
		dc.Timeout = t
	}
	return dc
}

// buildInferrer returns the configured attribute backend; "none" yields nil
func buildInferrer(ctx context.Context, c *config.Config) (inference.Inferrer, error) {
	switch c.Inference.Backend {
	case "deepface":
		return deepface.NewProvider(deepfaceConfig(c)), nil
	case "rekognition":
		p, err := rekognition.NewProvider(ctx, rekognition.Config{Region: c.Inference.AWSRegion})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		vc, err := ollama.NewClient(c.Inference.OllamaURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return inference.NewVisionInferrer(vc, c.Inference.Model), nil
	case "llamacpp":
		vc, err := llamacpp.NewClient(c.Inference.LlamaCppURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return inference.NewVisionInferrer(vc, c.Inference.Model), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", c.Inference.Backend)
	}
}

func colorConfig(c *config.Config) vision.ColorConfig {
	return vision.ColorConfig{
		K:             c.Color.K,
		Restarts:      c.Color.Restarts,
		MaxIterations: c.Color.MaxIterations,
		Tolerance:     c.Color.Tolerance,
		Seed:          c.Color.Seed,
		MaxSamples:    c.Color.MaxSamples,
	}
}

func openStore(c *config.Config) (*store.DB, error) {
	db, err := store.New(c.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", c.Storage.DatabasePath, err)
	}
	return db, nil
}

// buildGallery opens the enrollment gallery backed by db, embedding with DeepFace
func buildGallery(ctx context.Context, c *config.Config, db *store.DB, logger *slog.Logger) (*recognition.Gallery, error) {
	g := recognition.NewGallery(deepface.NewProvider(deepfaceConfig(c)), db, c.Recognition.Tolerance, logger)
	if err := g.Load(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// buildComponents wires detector, inference, recognition and storage from the configuration.
// withDB opens the SQLite database even when recognition is disabled.
func buildComponents(ctx context.Context, c *config.Config, logger *slog.Logger, withDB bool) (*components, error) {
	comp := &components{}

	detector, release, err := buildDetector(c)
	if err != nil {
		return nil, err
	}
	comp.detector = detector
	comp.closers = append(comp.closers, release)

	inferrer, err := buildInferrer(ctx, c)
	if err != nil {
		comp.Close()
		return nil, err
	}
	if inferrer == nil {
		logger.Warn("no inference backend configured; emotion, gender and age will be reported as unknown")
	}

	hair, err := classify.NewHairNamer(c.Classifier.HairStrategy)
	if err != nil {
		comp.Close()
		return nil, err
	}

	pipeline := analyzer.New(detector, inferrer, analyzer.Config{
		InferenceTimeout: c.InferenceTimeout(),
		MinConfidence:    c.Inference.MinConfidence,
		Annotate:         true,
	}, logger).
		WithHairNamer(hair).
		WithColorExtractor(vision.NewColorExtractorWithConfig(colorConfig(c), logger)).
		WithCropper(cropper.NewWithConfig(cropper.CropConfig{
			PaddingRatio: c.Cropper.PaddingRatio,
			MinSide:      c.Cropper.MinSide,
			MaxSide:      c.Cropper.MaxSide,
		}))

	if withDB || c.Recognition.Enabled {
		db, err := openStore(c)
		if err != nil {
			comp.Close()
			return nil, err
		}
		comp.db = db
		comp.closers = append(comp.closers, db.Close)
	}

	if c.Recognition.Enabled {
		gallery, err := buildGallery(ctx, c, comp.db, logger)
		if err != nil {
			comp.Close()
			return nil, err
		}
		comp.gallery = gallery
		pipeline.WithIdentifier(gallery)

		if c.Recognition.ArchiveFaces {
			pipeline.WithArchiver(recognition.NewArchive(c.Recognition.FacesDir))
		}
	}

	comp.pipeline = pipeline
	return comp, nil
}
