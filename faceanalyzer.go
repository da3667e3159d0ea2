// Package faceanalyzer detects faces in images and derives per-face attributes.
//
// For every detected face the pipeline estimates emotion, gender and age
// through a pluggable inference backend, measures the dominant hair, eye and
// clothing colors with k-means clustering, names the hair and eye colors with
// fixed heuristics and, optionally, recognizes enrolled identities. Each call
// returns an annotated copy of the image plus one structured record per face;
// records accumulate in a session that can be summarized and exported.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		faceanalyzer "github.com/menta2k/face-analyzer"
//		"github.com/menta2k/face-analyzer/pkg/deepface"
//		"github.com/menta2k/face-analyzer/pkg/detection"
//	)
//
//	func main() {
//		detector, err := detection.NewPigoDetector("cascade/facefinder", detection.DefaultParams())
//		if err != nil {
//			log.Fatal(err)
//		}
//		fa := faceanalyzer.New(detector, deepface.NewProvider(deepface.DefaultConfig()))
//
//		result, out, err := fa.ProcessImageFile(context.Background(), "group.jpg", "output", "jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, r := range result.Records {
//			fmt.Println(r.Gender, r.Age, r.Emotion, r.HairColor, r.EyeColor, r.ClothingColor)
//		}
//		fmt.Println("annotated image:", out)
//	}
//
// The package is a thin facade over:
//
// 1. Detection (pkg/detection, pkg/opencv): face bounding boxes
// 2. Inference (pkg/inference, pkg/deepface, pkg/rekognition, pkg/ollama, pkg/llamacpp)
// 3. Vision and classification (pkg/vision, pkg/classify): regions, dominant colors, names
// 4. Pipeline (pkg/analyzer): per-face records and annotation
// 5. Session, statistics and persistence (pkg/session, pkg/stats, pkg/store)
package faceanalyzer

import (
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/menta2k/face-analyzer/internal/utils"
	"github.com/menta2k/face-analyzer/pkg/analyzer"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/inference"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/session"
	"github.com/menta2k/face-analyzer/pkg/stats"
	"github.com/menta2k/face-analyzer/pkg/store"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// Version of the face analyzer library
const Version = "1.0.0"

// OutputSuffix is appended to annotated output filenames
const OutputSuffix = "_analyzed"

// FaceAnalyzer provides a high-level interface for face attribute analysis
type FaceAnalyzer struct {
	processor *processing.Processor
	pipeline  *analyzer.Analyzer
	session   *session.Session
	quality   int
}

// New creates a FaceAnalyzer with the default pipeline configuration
func New(detector detection.FaceDetector, inferrer inference.Inferrer) *FaceAnalyzer {
	return NewWithAnalyzer(analyzer.New(detector, inferrer, analyzer.DefaultConfig(), nil))
}

// NewWithAnalyzer wraps a configured pipeline
func NewWithAnalyzer(pipeline *analyzer.Analyzer) *FaceAnalyzer {
	return &FaceAnalyzer{
		processor: processing.NewProcessor(),
		pipeline:  pipeline,
		session:   session.New(),
		quality:   90,
	}
}

// SetQuality sets the JPEG/WebP quality of saved images
func (fa *FaceAnalyzer) SetQuality(q int) {
	if q > 0 && q <= 100 {
		fa.quality = q
	}
}

// LoadImage loads an image from a file path or an http(s) URL
func (fa *FaceAnalyzer) LoadImage(ctx context.Context, source string) (image.Image, error) {
	return fa.processor.LoadImageSmart(ctx, source)
}

// SaveImage saves an image as jpg, png or webp
func (fa *FaceAnalyzer) SaveImage(img image.Image, path, format string) error {
	return fa.processor.SaveImage(img, path, format, fa.quality, false)
}

// Analyze runs the pipeline and appends the records to the session
func (fa *FaceAnalyzer) Analyze(ctx context.Context, img image.Image) (*analyzer.Result, error) {
	result, err := fa.pipeline.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	fa.session.Append(result.Records...)
	return result, nil
}

// AnalyzeFile loads and analyzes an image file or URL
func (fa *FaceAnalyzer) AnalyzeFile(ctx context.Context, source string) (*analyzer.Result, error) {
	img, err := fa.LoadImage(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return fa.Analyze(ctx, img)
}

// ProcessImageFile analyzes an image and writes the annotated copy into outputDir.
// It returns the result and the path of the annotated image.
func (fa *FaceAnalyzer) ProcessImageFile(ctx context.Context, source, outputDir, format string) (*analyzer.Result, string, error) {
	result, err := fa.AnalyzeFile(ctx, source)
	if err != nil {
		return nil, "", err
	}

	if format == "" {
		format = "jpg"
	}
	outputPath := utils.GenerateOutputFilename(filepath.Base(source), outputDir, "", OutputSuffix, format)
	if err := fa.SaveImage(result.Annotated, outputPath, format); err != nil {
		return result, "", fmt.Errorf("failed to save annotated image: %w", err)
	}

	return result, outputPath, nil
}

// Session returns the records collected so far
func (fa *FaceAnalyzer) Session() *session.Session {
	return fa.session
}

// Records returns a copy of the session records
func (fa *FaceAnalyzer) Records() []types.AttributeRecord {
	return fa.session.Records()
}

// Summary computes statistics over the session records matching filter
func (fa *FaceAnalyzer) Summary(filter stats.Filter) stats.Summary {
	return stats.Summarize(filter.Apply(fa.session.Records()))
}

// ExportCSV writes the session records as CSV
func (fa *FaceAnalyzer) ExportCSV(w io.Writer) error {
	return store.ExportCSV(w, fa.session.Records())
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
