package domain

import (
	"strings"
	"time"
)

// Category is the closed set of content categories the engine assigns.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryBusiness      Category = "business"
	CategoryFinance       Category = "finance"
	CategoryScience       Category = "science"
	CategoryAI            Category = "ai"
	CategoryDevelopment   Category = "development"
	CategoryEntertainment Category = "entertainment"
	CategoryMemes         Category = "memes"
	CategoryHealth        Category = "health"
	CategoryNews          Category = "news"
	CategorySocial        Category = "social"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

var knownCategories = map[Category]struct{}{
	CategoryTechnology:    {},
	CategoryBusiness:      {},
	CategoryFinance:       {},
	CategoryScience:       {},
	CategoryAI:            {},
	CategoryDevelopment:   {},
	CategoryEntertainment: {},
	CategoryMemes:         {},
	CategoryHealth:        {},
	CategoryNews:          {},
	CategorySocial:        {},
	CategoryEducation:     {},
	CategoryOther:         {},
}

// categoryAliases maps strings models like to emit onto the closed set.
var categoryAliases = map[string]Category{
	"tech":                    CategoryTechnology,
	"software":                CategoryTechnology,
	"hardware":                CategoryTechnology,
	"artificial intelligence": CategoryAI,
	"machine learning":        CategoryAI,
	"ml":                      CategoryAI,
	"llm":                     CategoryAI,
	"programming":             CategoryDevelopment,
	"coding":                  CategoryDevelopment,
	"engineering":             CategoryDevelopment,
	"dev":                     CategoryDevelopment,
	"economy":                 CategoryFinance,
	"investing":               CategoryFinance,
	"crypto":                  CategoryFinance,
	"startup":                 CategoryBusiness,
	"startups":                CategoryBusiness,
	"research":                CategoryScience,
	"physics":                 CategoryScience,
	"biology":                 CategoryScience,
	"medicine":                CategoryHealth,
	"fitness":                 CategoryHealth,
	"wellness":                CategoryHealth,
	"movies":                  CategoryEntertainment,
	"music":                   CategoryEntertainment,
	"gaming":                  CategoryEntertainment,
	"games":                   CategoryEntertainment,
	"meme":                    CategoryMemes,
	"funny":                   CategoryMemes,
	"humor":                   CategoryMemes,
	"politics":                CategoryNews,
	"current events":          CategoryNews,
	"social media":            CategorySocial,
	"community":               CategorySocial,
	"learning":                CategoryEducation,
	"tutorial":                CategoryEducation,
	"course":                  CategoryEducation,
	"howto":                   CategoryEducation,
}

// NormalizeCategory maps an arbitrary model-emitted category string onto the
// closed category set. Unrecognized values collapse to CategoryOther.
func NormalizeCategory(raw string) Category {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return CategoryOther
	}
	if _, ok := knownCategories[Category(s)]; ok {
		return Category(s)
	}
	if mapped, ok := categoryAliases[s]; ok {
		return mapped
	}
	return CategoryOther
}

// Sentiment is the overall tone assigned to a piece of content.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment validates a model-emitted sentiment value.
func ParseSentiment(raw string) (Sentiment, bool) {
	switch Sentiment(strings.ToLower(strings.TrimSpace(raw))) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNegative:
		return SentimentNegative, true
	case SentimentNeutral:
		return SentimentNeutral, true
	}
	return "", false
}

// ContentValue grades how worthwhile the content is to keep.
type ContentValue string

const (
	ContentValueHigh   ContentValue = "high"
	ContentValueMedium ContentValue = "medium"
	ContentValueLow    ContentValue = "low"
)

// ParseContentValue validates a model-emitted content value grade.
func ParseContentValue(raw string) (ContentValue, bool) {
	switch ContentValue(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentValueHigh:
		return ContentValueHigh, true
	case ContentValueMedium:
		return ContentValueMedium, true
	case ContentValueLow:
		return ContentValueLow, true
	}
	return "", false
}

// ContentItem is the input to one analysis. It is not mutated by the engine.
type ContentItem struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	ExistingTags []string `json:"existing_tags,omitempty"`
}

// ReasoningTrace exposes the model's intermediate thinking when it emitted one.
type ReasoningTrace struct {
	Initial string `json:"initial"`
	Refined string `json:"refined"`
}

// ContentAnalysis is the structured classification produced for one item.
// Every analysis path (model or rule-based) terminates in a value of this
// shape; Analyzed reports whether a classification completed without
// structural error.
type ContentAnalysis struct {
	Summary         string          `json:"summary"`
	MainTopic       string          `json:"main_topic"`
	KeyPoints       []string        `json:"key_points"`
	Categories      []Category      `json:"categories"`
	Sentiment       Sentiment       `json:"sentiment"`
	SuggestedTags   []string        `json:"suggested_tags"`
	ContentValue    ContentValue    `json:"content_value,omitempty"`
	SuggestedFolder string          `json:"suggested_folder,omitempty"`
	Confidence      *float64        `json:"confidence,omitempty"`
	Reasoning       *ReasoningTrace `json:"reasoning,omitempty"`
	Analyzed        bool            `json:"analyzed"`
	Error           string          `json:"error,omitempty"`
	ProducedAt      time.Time       `json:"produced_at"`
}

// CacheEntry pairs a stored analysis with its write timestamp so readers can
// apply the TTL without trusting the backing store to expire anything.
type CacheEntry struct {
	URL      string          `json:"url"`
	Analysis ContentAnalysis `json:"analysis"`
	StoredAt time.Time       `json:"stored_at"`
}
