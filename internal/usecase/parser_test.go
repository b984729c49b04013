package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmark-analyzer/internal/usecase"
)

func TestResponseParser_ReasoningAndFencedJSON(t *testing.T) {
	parser := usecase.NewResponseParser()

	raw := "<think>considering...</think>\n```json\n{\"summary\":\"a primer\",\"categories\":[\"ai\"]}\n```"
	parsed := parser.Parse(raw)

	require.True(t, parsed.HasReasoning())
	assert.Equal(t, "considering...", parsed.Reasoning)
	require.True(t, parsed.HasPayload())
	assert.Equal(t, "a primer", parsed.Payload["summary"])
	assert.Equal(t, []any{"ai"}, parsed.Payload["categories"])
}

func TestResponseParser_TrailingProseIgnored(t *testing.T) {
	parser := usecase.NewResponseParser()

	raw := "Here is the analysis:\n```json\n{\"summary\":\"ok\"}\n```\nLet me know if you need anything else!"
	parsed := parser.Parse(raw)

	require.True(t, parsed.HasPayload())
	assert.Equal(t, "ok", parsed.Payload["summary"])
	assert.False(t, parsed.HasReasoning())
}

func TestResponseParser_UnlabeledFence(t *testing.T) {
	parser := usecase.NewResponseParser()

	parsed := parser.Parse("```\n{\"summary\":\"unlabeled\"}\n```")

	require.True(t, parsed.HasPayload())
	assert.Equal(t, "unlabeled", parsed.Payload["summary"])
}

func TestResponseParser_BareObjectInProse(t *testing.T) {
	parser := usecase.NewResponseParser()

	raw := `The result {"not": "this one"} is below. {"summary":"bare","sentiment":"neutral"}`
	parsed := parser.Parse(raw)

	// The scan runs from the last opening brace backward, so the final
	// object wins over earlier ones.
	require.True(t, parsed.HasPayload())
	assert.Equal(t, "bare", parsed.Payload["summary"])
}

func TestResponseParser_BracesInsideStrings(t *testing.T) {
	parser := usecase.NewResponseParser()

	raw := `{"summary":"uses { and } inside","key_points":["a \"quoted\" point"]}`
	parsed := parser.Parse(raw)

	require.True(t, parsed.HasPayload())
	assert.Equal(t, "uses { and } inside", parsed.Payload["summary"])
}

func TestResponseParser_UnterminatedReasoning(t *testing.T) {
	parser := usecase.NewResponseParser()

	raw := "<think>half a thought\n```json\n{\"summary\":\"still parsed\"}\n```"
	parsed := parser.Parse(raw)

	assert.Equal(t, "half a thought", parsed.Reasoning)
	require.True(t, parsed.HasPayload())
	assert.Equal(t, "still parsed", parsed.Payload["summary"])
}

func TestResponseParser_ThinkingMarker(t *testing.T) {
	parser := usecase.NewResponseParser()

	parsed := parser.Parse("<thinking>weighing options</thinking>{\"summary\":\"x\"}")

	assert.Equal(t, "weighing options", parsed.Reasoning)
	require.True(t, parsed.HasPayload())
}

func TestResponseParser_NoJSON(t *testing.T) {
	parser := usecase.NewResponseParser()

	tests := []struct {
		name string
		raw  string
	}{
		{"plain prose", "I could not analyze this content, sorry."},
		{"empty", ""},
		{"unbalanced braces", "{\"summary\": \"never closed"},
		{"json array not object", "[1, 2, 3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := parser.Parse(tt.raw)
			assert.False(t, parsed.HasPayload())
		})
	}
}

func TestResponseParser_ReasoningOnly(t *testing.T) {
	parser := usecase.NewResponseParser()

	parsed := parser.Parse("<think>this content is about cooking, maybe food category</think>")

	assert.True(t, parsed.HasReasoning())
	assert.False(t, parsed.HasPayload())
}

func TestResponseParser_TruncatedFence(t *testing.T) {
	parser := usecase.NewResponseParser()

	// The model ran out of tokens before closing the fence but the object
	// itself is complete.
	parsed := parser.Parse("```json\n{\"summary\":\"cut off\"}")

	require.True(t, parsed.HasPayload())
	assert.Equal(t, "cut off", parsed.Payload["summary"])
}
