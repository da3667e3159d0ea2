package inference

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/menta2k/face-analyzer/pkg/types"
)

var (
	// ErrNoBackend is returned when no inference backend is configured
	ErrNoBackend = errors.New("no attribute inference backend configured")
	// ErrEmptyFace is returned for a nil or zero-area face crop
	ErrEmptyFace = errors.New("empty face crop")
	// ErrLowConfidence is returned when the backend is not confident enough
	ErrLowConfidence = errors.New("inference confidence below threshold")
)

// Inferrer estimates emotion, gender and age for a cropped face
type Inferrer interface {
	InferAttributes(ctx context.Context, face image.Image) (types.Attributes, error)
}

// Func adapts a function to Inferrer
type Func func(ctx context.Context, face image.Image) (types.Attributes, error)

// InferAttributes implements Inferrer
func (f Func) InferAttributes(ctx context.Context, face image.Image) (types.Attributes, error) {
	return f(ctx, face)
}

// Outcome is the result of one inference call: either attributes or a failure
type Outcome struct {
	attrs types.Attributes
	err   error
}

// Succeeded wraps attributes in a successful outcome
func Succeeded(attrs types.Attributes) Outcome {
	return Outcome{attrs: attrs.Normalize()}
}

// Failed wraps an error in a failed outcome
func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("inference failed")
	}
	return Outcome{err: err}
}

// OK reports whether inference succeeded
func (o Outcome) OK() bool { return o.err == nil }

// Err returns the failure cause, or nil
func (o Outcome) Err() error { return o.err }

// Attributes returns the inferred attributes, or the sentinels for a failed outcome
func (o Outcome) Attributes() types.Attributes {
	if o.err != nil {
		return types.UnknownAttributes()
	}
	return o.attrs
}

// Options bounds a single inference call
type Options struct {
	Timeout       time.Duration
	MinConfidence float64
}

type result struct {
	attrs types.Attributes
	err   error
}

// Run calls the inferrer and converts every failure mode into a failed Outcome:
// errors, panics, timeouts, empty crops and low confidence.
func Run(ctx context.Context, inf Inferrer, face image.Image, opts Options) Outcome {
	if inf == nil {
		return Failed(ErrNoBackend)
	}
	if face == nil || face.Bounds().Empty() {
		return Failed(ErrEmptyFace)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("inference panicked: %v", r)}
			}
		}()
		attrs, err := inf.InferAttributes(ctx, face)
		done <- result{attrs: attrs, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return Failed(fmt.Errorf("inference aborted: %w", ctx.Err()))
	}

	if res.err != nil {
		return Failed(res.err)
	}
	if opts.MinConfidence > 0 && res.attrs.Confidence > 0 && res.attrs.Confidence < opts.MinConfidence {
		return Failed(fmt.Errorf("%w: %.2f < %.2f", ErrLowConfidence, res.attrs.Confidence, opts.MinConfidence))
	}
	return Succeeded(res.attrs)
}
