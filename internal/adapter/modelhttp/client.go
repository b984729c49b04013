package modelhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookmark-analyzer/internal/domain"
)

const (
	probeTimeout     = 5 * time.Second
	probeInstruction = "Reply with the single word Connected"
	maxResponseBytes = 1 << 20
)

// Client sends prompts to whichever endpoint the resolver settled on,
// speaking the dialect the candidate is tagged with.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a model client around the given http.Client.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Generate sends the prompt to the endpoint and returns the raw model text.
func (c *Client) Generate(ctx context.Context, endpoint domain.EndpointCandidate, prompt string) (string, error) {
	adapter := AdapterFor(endpoint.Dialect)

	payload, err := json.Marshal(adapter.BuildRequest(endpoint.Model, prompt))
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s request: %w", adapter.Dialect(), err)
	}

	url := strings.TrimRight(endpoint.BaseURL, "/") + adapter.Path()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create %s request: %w", adapter.Dialect(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call model endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Some servers report missing models through a JSON error on 4xx;
		// surface that as a protocol failure rather than transport noise.
		var envelope serverError
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil {
			if classified := classifyServerError(envelope.message()); classified != nil {
				return "", classified
			}
		}
		return "", fmt.Errorf("model endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	text, err := adapter.ExtractText(body)
	if err != nil {
		return "", err
	}

	c.logger.Debug("model_generate_completed",
		slog.String("endpoint", endpoint.BaseURL),
		slog.String("dialect", string(endpoint.Dialect)),
		slog.Int64("elapsed_ms", time.Since(started).Milliseconds()))

	return text, nil
}

// Probe asks the endpoint for a trivial reply with a short deadline. A
// non-empty answer means the server is usable; a no-model-loaded shape is
// reported as domain.ErrNoModelLoaded so the resolver can tell the two
// failure classes apart.
func (c *Client) Probe(ctx context.Context, endpoint domain.EndpointCandidate) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	text, err := c.Generate(probeCtx, endpoint, probeInstruction)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("probe returned empty response")
	}
	return nil
}

var _ domain.ModelCaller = (*Client)(nil)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
