package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llava", req["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"model exploded"}`))
			return
		}
		resp := map[string]any{
			"model":   "llava",
			"message": map[string]any{"role": "assistant", "content": content},
			"done":    true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeFace(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"emotion":"happy","gender":"Woman","age":30}`)
	defer server.Close()

	c, err := NewClient(server.URL + "/api/chat")
	require.NoError(t, err)

	img := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	attrs, err := c.AnalyzeFace(context.Background(), "llava", "describe", img)
	require.NoError(t, err)
	assert.Equal(t, "happy", attrs.Emotion)
	assert.Equal(t, "Woman", attrs.Gender)
	assert.Equal(t, 30, attrs.Age)
}

func TestAnalyzeFaceServerError(t *testing.T) {
	server := newTestServer(t, http.StatusInternalServerError, "")
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.AnalyzeFace(context.Background(), "llava", "describe", base64.StdEncoding.EncodeToString([]byte("x")))
	assert.ErrorContains(t, err, "ollama chat error")
}

func TestAnalyzeFaceBadImage(t *testing.T) {
	c, err := NewClient("http://localhost:11434")
	require.NoError(t, err)

	_, err = c.AnalyzeFace(context.Background(), "llava", "describe", "%%%")
	assert.ErrorContains(t, err, "decode base64")
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)
}
