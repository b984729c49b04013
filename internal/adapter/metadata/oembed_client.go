package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookmark-analyzer/internal/domain"
)

// OEmbedClient fetches video embed metadata via the oEmbed endpoint the
// video platform publishes.
type OEmbedClient struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewOEmbedClient constructs a client against the YouTube oEmbed endpoint
// unless baseURL overrides it.
func NewOEmbedClient(baseURL string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *OEmbedClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	if baseURL == "" {
		baseURL = "https://www.youtube.com/oembed"
	}
	return &OEmbedClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  c,
		logger:  logger,
	}
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// FetchVideoMetadata returns the embed title and author for a video URL.
func (c *OEmbedClient) FetchVideoMetadata(ctx context.Context, videoURL string) (*domain.VideoMetadata, error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", c.BaseURL, url.QueryEscape(videoURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create oembed request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oembed metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed endpoint returned %d", resp.StatusCode)
	}

	var embed oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return nil, fmt.Errorf("failed to decode oembed metadata: %w", err)
	}

	c.logger.Debug("video_metadata_fetched", slog.String("url", videoURL))

	meta := &domain.VideoMetadata{Title: embed.Title}
	if embed.AuthorName != "" {
		meta.Description = "by " + embed.AuthorName
	}
	return meta, nil
}

var _ domain.VideoMetadataFetcher = (*OEmbedClient)(nil)
