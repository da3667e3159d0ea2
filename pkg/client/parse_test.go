package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		emotion string
		gender  string
		age     int
		conf    float64
	}{
		{
			name:    "plain json",
			raw:     `{"emotion": "happy", "gender": "Woman", "age": 31, "confidence": 0.9}`,
			emotion: "happy", gender: "Woman", age: 31, conf: 0.9,
		},
		{
			name: "fenced with comments and trailing comma",
			raw: "```json\n{\n  // best guess\n  \"emotion\": \"sad\",\n  \"gender\": \"Man\",\n  \"age\": \"42\",\n}\n```",
			emotion: "sad", gender: "Man", age: 42,
		},
		{
			name:    "prose around the object",
			raw:     `Sure! Here you go: {"dominant_emotion": "neutral", "dominant_gender": "Man", "age": 27.6} Hope it helps.`,
			emotion: "neutral", gender: "Man", age: 28,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.emotion, attrs.Emotion)
			assert.Equal(t, tt.gender, attrs.Gender)
			assert.Equal(t, tt.age, attrs.Age)
			assert.InDelta(t, tt.conf, attrs.Confidence, 1e-9)
		})
	}
}

func TestParseAttributesFailures(t *testing.T) {
	_, err := ParseAttributes("I cannot see a face in this picture.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseAttributes(`{"emotion": `)
	assert.Error(t, err)

	_, err = ParseAttributes(`{"mood": "great"}`)
	assert.ErrorContains(t, err, "no attributes")
}
