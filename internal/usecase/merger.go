package usecase

import (
	"strings"

	"bookmark-analyzer/internal/domain"
)

// ResultMerger folds a parsed model payload into a ContentAnalysis one field
// at a time. A field of the wrong type or outside its enumeration is dropped
// on its own; it never fails the whole response.
type ResultMerger struct{}

// NewResultMerger creates a merger instance (stateless).
func NewResultMerger() ResultMerger {
	return ResultMerger{}
}

// Merge applies payload onto analysis. Tag lists merge with whatever is
// already suggested, unknown categories collapse to other, and an invalid
// sentiment leaves the prior value in place.
func (ResultMerger) Merge(analysis *domain.ContentAnalysis, payload map[string]any) {
	if s, ok := stringField(payload, "summary"); ok {
		analysis.Summary = s
	}
	if s, ok := stringField(payload, "main_topic", "mainTopic", "topic"); ok {
		analysis.MainTopic = s
	}
	if points, ok := stringSliceField(payload, "key_points", "keyPoints"); ok {
		analysis.KeyPoints = points
	}

	if raw, ok := stringSliceField(payload, "categories"); ok {
		var categories []domain.Category
		seen := make(map[domain.Category]struct{})
		for _, c := range raw {
			normalized := domain.NormalizeCategory(c)
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			categories = append(categories, normalized)
		}
		if len(categories) > 0 {
			analysis.Categories = categories
		}
	}

	if s, ok := stringField(payload, "sentiment"); ok {
		if sentiment, valid := domain.ParseSentiment(s); valid {
			analysis.Sentiment = sentiment
		}
	}

	if tags, ok := stringSliceField(payload, "suggested_tags", "suggestedTags", "tags"); ok {
		analysis.SuggestedTags = domain.DedupTags(append(analysis.SuggestedTags, tags...))
	}

	if s, ok := stringField(payload, "content_value", "contentValue"); ok {
		if value, valid := domain.ParseContentValue(s); valid {
			analysis.ContentValue = value
		}
	}
	if s, ok := stringField(payload, "suggested_folder", "suggestedFolder", "folder"); ok {
		analysis.SuggestedFolder = s
	}
	if f, ok := floatField(payload, "confidence"); ok && f >= 0 && f <= 1 {
		analysis.Confidence = &f
	}
}

func stringField(payload map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}

func stringSliceField(payload map[string]any, keys ...string) ([]string, bool) {
	for _, key := range keys {
		v, ok := payload[key]
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			// A bare string is accepted as a single-element list.
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) != "" {
				return []string{strings.TrimSpace(s)}, true
			}
			continue
		}
		var out []string
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out, true
		}
	}
	return nil, false
}

func floatField(payload map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := payload[key]; ok {
			if f, ok := v.(float64); ok {
				return f, true
			}
		}
	}
	return 0, false
}
