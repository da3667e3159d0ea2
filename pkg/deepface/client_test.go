package deepface

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	backoff = func(int) time.Duration { return time.Millisecond }
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, time.Second, calculateBackoff(0))
	assert.Equal(t, time.Second, calculateBackoff(1))
	assert.Equal(t, 2*time.Second, calculateBackoff(2))
	assert.Equal(t, 4*time.Second, calculateBackoff(3))
	assert.Equal(t, maxBackoff, calculateBackoff(10))
}

func TestClient_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"emotion", "gender", "age"}, req.Actions)
		assert.Equal(t, "skip", req.Detector)
		assert.False(t, req.EnforceDetection)

		_ = json.NewEncoder(w).Encode(AnalyzeResponse{Results: []AnalyzeResult{{
			Region:          FacialArea{X: 0, Y: 0, W: 48, H: 48},
			Age:             31,
			DominantGender:  "Woman",
			DominantEmotion: "happy",
		}}})
	}))
	defer server.Close()

	resp, err := NewClient(testConfig(server.URL + "/")).Analyze(context.Background(), "data:image/jpeg;base64,AAAA")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "happy", resp.Results[0].DominantEmotion)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      error
		wantContains string
		wantCalls    int32
	}{
		{
			name:         "server error retried then unavailable",
			status:       http.StatusInternalServerError,
			body:         `{"error":"boom"}`,
			wantErr:      ErrDeepFaceUnavailable,
			wantContains: "status 500",
			wantCalls:    3,
		},
		{
			name:         "bad request not retried",
			status:       http.StatusBadRequest,
			body:         `{"error":"Face could not be detected"}`,
			wantContains: "status 400",
			wantCalls:    1,
		},
		{
			name:      "invalid json not retried",
			status:    http.StatusOK,
			body:      `not json`,
			wantErr:   ErrInvalidResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(testConfig(server.URL)).Analyze(context.Background(), "img")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantContains != "" {
				assert.Contains(t, err.Error(), tt.wantContains)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_RetryRecovers(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{{Embedding: []float64{1, 2, 3}}}})
	}))
	defer server.Close()

	resp, err := NewClient(testConfig(server.URL)).Represent(context.Background(), "img")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, resp.Results[0].Embedding)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestProvider_InferAttributes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.HasPrefix(req.Img, "data:image/jpeg;base64,"))

		_ = json.NewEncoder(w).Encode(AnalyzeResponse{Results: []AnalyzeResult{
			{
				Region:  FacialArea{W: 10, H: 10},
				Age:     70,
				Emotion: map[string]float64{"sad": 90},
				Gender:  map[string]float64{"Man": 99},
			},
			{
				Region:         FacialArea{W: 40, H: 40},
				Age:            24.6,
				Emotion:        map[string]float64{"happy": 80, "neutral": 15, "sad": 5},
				Gender:         map[string]float64{"Man": 10, "Woman": 90},
				FaceConfidence: 0.93,
			},
		}})
	}))
	defer server.Close()

	p := NewProvider(testConfig(server.URL))
	attrs, err := p.InferAttributes(context.Background(), image.NewNRGBA(image.Rect(0, 0, 32, 32)))
	require.NoError(t, err)
	assert.Equal(t, "happy", attrs.Emotion)
	assert.Equal(t, "Woman", attrs.Gender)
	assert.Equal(t, 25, attrs.Age)
	assert.InDelta(t, 0.93, attrs.Confidence, 1e-9)
}

func TestProvider_NoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	p := NewProvider(testConfig(server.URL))
	face := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	_, err := p.InferAttributes(context.Background(), face)
	assert.ErrorIs(t, err, ErrNoFaceInResponse)

	_, err = p.Represent(context.Background(), face)
	assert.ErrorIs(t, err, ErrNoFaceInResponse)
}

func TestProvider_Represent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/represent", r.URL.Path)
		var req RepresentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Facenet", req.Model)

		_ = json.NewEncoder(w).Encode(RepresentResponse{Results: []RepresentResult{
			{Embedding: []float64{0, 1}, FacialArea: FacialArea{W: 5, H: 5}},
			{Embedding: []float64{1, 0}, FacialArea: FacialArea{W: 50, H: 50}},
		}})
	}))
	defer server.Close()

	emb, err := NewProvider(testConfig(server.URL)).Represent(context.Background(), image.NewNRGBA(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, emb)
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, "", argmax(nil))
	assert.Equal(t, "b", argmax(map[string]float64{"a": 1, "b": 3, "c": 2}))
	assert.Equal(t, "a", argmax(map[string]float64{"b": 1, "a": 1}))
}
