package client

import (
	"context"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// VisionClient defines the interface for vision model clients
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeFace(ctx context.Context, model, prompt, imgB64 string) (*types.Attributes, error)
}
