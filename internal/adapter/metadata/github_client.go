// Package metadata holds the best-effort enrichment clients the prompt
// builder consults for repository and video URLs.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bookmark-analyzer/internal/domain"
)

// GitHubClient fetches public repository metadata from the GitHub REST API.
type GitHubClient struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewGitHubClient constructs a client against api.github.com unless baseURL
// overrides it (tests point it at a local server).
func NewGitHubClient(baseURL string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *GitHubClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  c,
		logger:  logger,
	}
}

type githubRepoResponse struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// FetchRepoMetadata returns the repository description and primary language.
func (c *GitHubClient) FetchRepoMetadata(ctx context.Context, owner, name string) (*domain.RepoMetadata, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.BaseURL, owner, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create repo metadata request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repo metadata: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("repo metadata endpoint returned %d", resp.StatusCode)
	}

	var repo githubRepoResponse
	if err := json.NewDecoder(resp.Body).Decode(&repo); err != nil {
		return nil, fmt.Errorf("failed to decode repo metadata: %w", err)
	}

	c.logger.Debug("repo_metadata_fetched",
		slog.String("owner", owner),
		slog.String("repo", name),
		slog.String("language", repo.Language))

	return &domain.RepoMetadata{
		Description:     repo.Description,
		PrimaryLanguage: repo.Language,
	}, nil
}

var _ domain.RepoMetadataFetcher = (*GitHubClient)(nil)
