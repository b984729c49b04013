package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"bookmark-analyzer/internal/domain"
)

// PromptBuilder composes the analysis prompt sent to the model. The URL's
// content kind selects the framing, and for repositories and videos the
// builder enriches the prompt with metadata fetched from the hosting
// platform. Enrichment is best-effort: a failed fetch only narrows the
// context, it never fails the build.
type PromptBuilder interface {
	Build(ctx context.Context, item domain.ContentItem) string
}

type contentPromptBuilder struct {
	repoMeta  domain.RepoMetadataFetcher
	videoMeta domain.VideoMetadataFetcher
	logger    *slog.Logger
}

// NewContentPromptBuilder creates the default builder. Either fetcher may be
// nil, which disables that enrichment.
func NewContentPromptBuilder(repoMeta domain.RepoMetadataFetcher, videoMeta domain.VideoMetadataFetcher, logger *slog.Logger) PromptBuilder {
	return &contentPromptBuilder{
		repoMeta:  repoMeta,
		videoMeta: videoMeta,
		logger:    logger,
	}
}

const analysisInstructions = `You are a bookmark analysis assistant. Analyze the content below and respond with a single JSON object, inside a json code fence, with exactly these fields:
{
  "summary": "one or two sentence summary",
  "main_topic": "the single dominant topic",
  "key_points": ["up to 5 short key points"],
  "categories": ["one or more of: technology, business, finance, science, ai, development, entertainment, memes, health, news, social, education, other"],
  "sentiment": "positive, negative or neutral",
  "suggested_tags": ["3 to 8 short lowercase tags"],
  "content_value": "high, medium or low",
  "suggested_folder": "a short folder name for filing this bookmark",
  "confidence": 0.0
}
Do not include any other fields. Do not explain outside the JSON.`

func (b *contentPromptBuilder) Build(ctx context.Context, item domain.ContentItem) string {
	kind := domain.KindOfURL(item.URL)

	var sb strings.Builder
	sb.WriteString(analysisInstructions)
	sb.WriteString("\n\n")
	sb.WriteString(framingFor(kind))
	sb.WriteString("\n\nTitle: ")
	sb.WriteString(item.Title)
	sb.WriteString("\nURL: ")
	sb.WriteString(item.URL)
	if item.Description != "" {
		sb.WriteString("\nDescription: ")
		sb.WriteString(item.Description)
	}
	if len(item.ExistingTags) > 0 {
		sb.WriteString("\nExisting tags: ")
		sb.WriteString(strings.Join(item.ExistingTags, ", "))
	}

	if enrichment := b.enrich(ctx, kind, item); enrichment != "" {
		sb.WriteString("\n")
		sb.WriteString(enrichment)
	}

	return sb.String()
}

func framingFor(kind domain.ContentKind) string {
	switch kind {
	case domain.KindVideo:
		return "The content is a video on a video platform. Classify it by what the video is about, not by the platform."
	case domain.KindSocial:
		return "The content is a short-form social media post. Titles may be truncated; weigh the description heavily."
	case domain.KindRepository:
		return "The content is a code repository. Classify it by the project's purpose and primary language."
	default:
		return "The content is a general web page."
	}
}

func (b *contentPromptBuilder) enrich(ctx context.Context, kind domain.ContentKind, item domain.ContentItem) string {
	switch kind {
	case domain.KindRepository:
		if b.repoMeta == nil {
			return ""
		}
		owner, name, ok := domain.RepoSlugFromURL(item.URL)
		if !ok {
			return ""
		}
		meta, err := b.repoMeta.FetchRepoMetadata(ctx, owner, name)
		if err != nil || meta == nil {
			b.logEnrichmentMiss(item.URL, err)
			return ""
		}
		var parts []string
		if meta.Description != "" {
			parts = append(parts, fmt.Sprintf("Repository description: %s", meta.Description))
		}
		if meta.PrimaryLanguage != "" {
			parts = append(parts, fmt.Sprintf("Primary language: %s", meta.PrimaryLanguage))
		}
		return strings.Join(parts, "\n")
	case domain.KindVideo:
		if b.videoMeta == nil {
			return ""
		}
		meta, err := b.videoMeta.FetchVideoMetadata(ctx, item.URL)
		if err != nil || meta == nil {
			b.logEnrichmentMiss(item.URL, err)
			return ""
		}
		var parts []string
		if meta.Title != "" && meta.Title != item.Title {
			parts = append(parts, fmt.Sprintf("Video title: %s", meta.Title))
		}
		if meta.Description != "" {
			parts = append(parts, fmt.Sprintf("Video info: %s", meta.Description))
		}
		return strings.Join(parts, "\n")
	}
	return ""
}

func (b *contentPromptBuilder) logEnrichmentMiss(url string, err error) {
	if err == nil {
		return
	}
	b.logger.Debug("prompt_enrichment_skipped",
		slog.String("url", url),
		slog.String("error", err.Error()))
}
