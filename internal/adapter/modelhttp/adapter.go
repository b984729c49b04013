// Package modelhttp talks to locally hosted model servers. Which wire shape a
// server speaks is not knowable in advance, so each known dialect gets one
// adapter and the resolver probes candidates until one answers coherently.
package modelhttp

import (
	"encoding/json"
	"fmt"
	"strings"

	"bookmark-analyzer/internal/domain"
)

const (
	samplingTemperature = 0.2
	responseMaxTokens   = 1024
)

// Adapter shapes requests and extracts response text for one wire dialect.
type Adapter interface {
	Dialect() domain.Dialect
	// Path is the endpoint path appended to the candidate base URL.
	Path() string
	// BuildRequest returns the JSON-marshalable request body.
	BuildRequest(model, prompt string) any
	// ExtractText pulls the model text out of a response body. A recognized
	// no-model-loaded error shape yields domain.ErrNoModelLoaded.
	ExtractText(body []byte) (string, error)
}

// AdapterFor returns the adapter for a dialect, defaulting to chat.
func AdapterFor(d domain.Dialect) Adapter {
	switch d {
	case domain.DialectCompletion:
		return completionAdapter{}
	case domain.DialectGenerate:
		return generateAdapter{}
	default:
		return chatAdapter{}
	}
}

// serverError is the error envelope local servers return with a 200 or 4xx.
// LM Studio style nests an object, Ollama style is a bare string; both are
// tolerated via json.RawMessage.
type serverError struct {
	Error json.RawMessage `json:"error"`
}

func (e serverError) message() string {
	if len(e.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &obj); err == nil {
		return obj.Message
	}
	return string(e.Error)
}

func classifyServerError(msg string) error {
	if msg == "" {
		return nil
	}
	lowered := strings.ToLower(msg)
	if strings.Contains(lowered, "no model") || strings.Contains(lowered, "model not loaded") || strings.Contains(lowered, "model is not loaded") {
		return fmt.Errorf("%w: %s", domain.ErrNoModelLoaded, msg)
	}
	return fmt.Errorf("model server error: %s", msg)
}

// --- chat dialect ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	serverError
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatAdapter struct{}

func (chatAdapter) Dialect() domain.Dialect { return domain.DialectChat }
func (chatAdapter) Path() string            { return "/v1/chat/completions" }

func (chatAdapter) BuildRequest(model, prompt string) any {
	return chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a precise content analysis assistant."},
			{Role: "user", Content: prompt},
		},
		Temperature: samplingTemperature,
		MaxTokens:   responseMaxTokens,
	}
}

func (chatAdapter) ExtractText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if err := classifyServerError(resp.message()); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response carried no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// --- legacy completion dialect ---

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	Temperature float64  `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop"`
	Stream      bool     `json:"stream"`
}

type completionResponse struct {
	serverError
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type completionAdapter struct{}

func (completionAdapter) Dialect() domain.Dialect { return domain.DialectCompletion }
func (completionAdapter) Path() string            { return "/v1/completions" }

func (completionAdapter) BuildRequest(model, prompt string) any {
	return completionRequest{
		Model:       model,
		Prompt:      fmt.Sprintf("### Instruction:\n%s\n\n### Response:\n", prompt),
		Temperature: samplingTemperature,
		MaxTokens:   responseMaxTokens,
		Stop:        []string{"### Instruction:", "### Response:"},
	}
}

func (completionAdapter) ExtractText(body []byte) (string, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if err := classifyServerError(resp.message()); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response carried no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Text), nil
}

// --- generate dialect ---

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	serverError
	Response string `json:"response"`
}

type generateAdapter struct{}

func (generateAdapter) Dialect() domain.Dialect { return domain.DialectGenerate }
func (generateAdapter) Path() string            { return "/api/generate" }

func (generateAdapter) BuildRequest(model, prompt string) any {
	return generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}
}

func (generateAdapter) ExtractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	if err := classifyServerError(resp.message()); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}
