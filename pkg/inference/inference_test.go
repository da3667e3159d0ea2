package inference

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

var testFace = image.NewNRGBA(image.Rect(0, 0, 16, 16))

type fakeVisionClient struct {
	attrs *types.Attributes
	err   error
	calls int
}

func (f *fakeVisionClient) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "", nil
}

func (f *fakeVisionClient) AnalyzeFace(ctx context.Context, model, prompt, imgB64 string) (*types.Attributes, error) {
	f.calls++
	return f.attrs, f.err
}

func TestRunSuccess(t *testing.T) {
	inf := Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
		return types.Attributes{Emotion: "happy", Gender: "Woman", Age: 29}, nil
	})

	out := Run(context.Background(), inf, testFace, Options{})
	require.True(t, out.OK())
	assert.Equal(t, types.Attributes{Emotion: "happy", Gender: "Woman", Age: 29}, out.Attributes())
}

func TestRunFailuresYieldSentinels(t *testing.T) {
	tests := []struct {
		name    string
		inf     Inferrer
		face    image.Image
		opts    Options
		wantErr error
	}{
		{
			name:    "no backend",
			face:    testFace,
			wantErr: ErrNoBackend,
		},
		{
			name: "empty face",
			inf: Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
				return types.Attributes{}, nil
			}),
			face:    image.NewNRGBA(image.Rectangle{}),
			wantErr: ErrEmptyFace,
		},
		{
			name: "backend error",
			inf: Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
				return types.Attributes{}, errors.New("service down")
			}),
			face: testFace,
		},
		{
			name: "panic",
			inf: Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
				panic("model crashed")
			}),
			face: testFace,
		},
		{
			name: "timeout",
			inf: Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
				time.Sleep(200 * time.Millisecond)
				return types.Attributes{Emotion: "sad"}, nil
			}),
			face:    testFace,
			opts:    Options{Timeout: 10 * time.Millisecond},
			wantErr: context.DeadlineExceeded,
		},
		{
			name: "low confidence",
			inf: Func(func(ctx context.Context, face image.Image) (types.Attributes, error) {
				return types.Attributes{Emotion: "sad", Gender: "Man", Age: 40, Confidence: 0.2}, nil
			}),
			face:    testFace,
			opts:    Options{MinConfidence: 0.5},
			wantErr: ErrLowConfidence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Run(context.Background(), tt.inf, tt.face, tt.opts)
			require.False(t, out.OK())
			require.Error(t, out.Err())
			if tt.wantErr != nil {
				assert.ErrorIs(t, out.Err(), tt.wantErr)
			}

			attrs := out.Attributes()
			assert.Equal(t, types.UndetectedEmotion, attrs.Emotion)
			assert.Equal(t, types.UnknownGender, attrs.Gender)
			assert.Equal(t, types.UnknownAge, attrs.Age)
		})
	}
}

func TestSucceededFillsEmptyLabels(t *testing.T) {
	attrs := Succeeded(types.Attributes{Age: 33}).Attributes()

	assert.Equal(t, types.UndetectedEmotion, attrs.Emotion)
	assert.Equal(t, types.UnknownGender, attrs.Gender)
	assert.Equal(t, 33, attrs.Age)
}

func TestFailedWithNilError(t *testing.T) {
	assert.Error(t, Failed(nil).Err())
}

func TestVisionInferrer(t *testing.T) {
	fake := &fakeVisionClient{attrs: &types.Attributes{Emotion: " Happy ", Gender: "female", Age: 27, Confidence: 1.4}}
	inf := NewVisionInferrer(fake, "llava")

	attrs, err := inf.InferAttributes(context.Background(), testFace)
	require.NoError(t, err)
	assert.Equal(t, "happy", attrs.Emotion)
	assert.Equal(t, "Woman", attrs.Gender)
	assert.Equal(t, 27, attrs.Age)
	assert.Equal(t, 1.0, attrs.Confidence)
	assert.Equal(t, 1, fake.calls)
}

func TestVisionInferrerRejectsEmptyAnswer(t *testing.T) {
	fake := &fakeVisionClient{attrs: &types.Attributes{Age: 300}}
	inf := NewVisionInferrer(fake, "llava").WithPrompt("custom")

	_, err := inf.InferAttributes(context.Background(), testFace)
	assert.Error(t, err)
}

func TestVisionInferrerClientError(t *testing.T) {
	fake := &fakeVisionClient{err: errors.New("connection refused")}

	out := Run(context.Background(), NewVisionInferrer(fake, "llava"), testFace, Options{})
	assert.False(t, out.OK())
	assert.ErrorContains(t, out.Err(), "connection refused")
}
