package domain

import "context"

// RepoMetadata is the public metadata fetched for a code repository URL.
type RepoMetadata struct {
	Description     string
	PrimaryLanguage string
}

// VideoMetadata is the embed metadata fetched for a video URL.
type VideoMetadata struct {
	Title       string
	Description string
}

// RepoMetadataFetcher looks up repository metadata by owner/name. The fetch is
// a best-effort prompt enrichment; callers treat errors as "no metadata".
type RepoMetadataFetcher interface {
	FetchRepoMetadata(ctx context.Context, owner, name string) (*RepoMetadata, error)
}

// VideoMetadataFetcher looks up embed metadata for a video URL.
type VideoMetadataFetcher interface {
	FetchVideoMetadata(ctx context.Context, videoURL string) (*VideoMetadata, error)
}
