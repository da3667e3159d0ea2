package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/face-analyzer/pkg/cropper"
	"github.com/menta2k/face-analyzer/pkg/detection"
	"github.com/menta2k/face-analyzer/pkg/processing"
	"github.com/menta2k/face-analyzer/pkg/types"
)

var errNoFace = errors.New("no face found in image")

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <image>",
	Short: "Add a known face to the recognition gallery",
	Long: `Detects the largest face in the image, computes its embedding and stores
it under the given name. Subsequent analyses with recognition enabled report
the name for matching faces.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

// largestFace returns the box with the biggest area
func largestFace(boxes []types.Box) (types.Box, bool) {
	if len(boxes) == 0 {
		return types.Box{}, false
	}
	best := boxes[0]
	for _, b := range boxes[1:] {
		if b.Area() > best.Area() {
			best = b
		}
	}
	return best, true
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, source := args[0], args[1]

	img, err := processing.NewProcessor().LoadImageSmart(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	detector, release, err := buildDetector(cfg)
	if err != nil {
		return err
	}
	defer release()

	boxes, err := detector.DetectFaces(ctx, img)
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}
	box, ok := largestFace(detection.Sanitize(boxes, img.Bounds()))
	if !ok {
		return errNoFace
	}

	comp, err := openGallery(cmd)
	if err != nil {
		return err
	}
	defer comp.Close()

	face := cropper.NewWithConfig(cropper.CropConfig{
		PaddingRatio: cfg.Cropper.PaddingRatio,
		MinSide:      cfg.Cropper.MinSide,
		MaxSide:      cfg.Cropper.MaxSide,
	}).CropFace(img, box)

	known, err := comp.gallery.Enroll(ctx, name, face)
	if err != nil {
		return fmt.Errorf("failed to enroll %q: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s (id %s). Gallery now holds %d faces.\n", known.Name, known.ID, comp.gallery.Len())
	return nil
}

// openGallery opens the database and loads the gallery without building the full pipeline
func openGallery(cmd *cobra.Command) (*components, error) {
	comp := &components{}
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	comp.db = db
	comp.closers = append(comp.closers, db.Close)

	gallery, err := buildGallery(cmd.Context(), cfg, db, log)
	if err != nil {
		comp.Close()
		return nil, err
	}
	comp.gallery = gallery
	return comp, nil
}
