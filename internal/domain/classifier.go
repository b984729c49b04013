package domain

import (
	"strings"
)

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules is ordered: the first matching category becomes the main
// topic, so the order must stay stable across runs.
var categoryRules = []categoryRule{
	{CategoryAI, []string{"artificial intelligence", "machine learning", "neural", "deep learning", "llm", "chatgpt", "gpt", " ai ", "openai", "transformer model"}},
	{CategoryDevelopment, []string{"programming", "developer", "software engineer", "github", "code", "coding", "framework", "javascript", "typescript", "python", "golang", "rust", "api ", "sdk", "open source"}},
	{CategoryTechnology, []string{"tech", "software", "hardware", "gadget", "computer", "smartphone", "cloud", "server", "linux", "startup"}},
	{CategoryFinance, []string{"finance", "invest", "stock", "crypto", "bitcoin", "market", "trading", "bank", "economy"}},
	{CategoryBusiness, []string{"business", "entrepreneur", "marketing", "sales", "management", "company", "revenue"}},
	{CategoryScience, []string{"science", "research", "physics", "chemistry", "biology", "astronomy", "study finds", "experiment"}},
	{CategoryHealth, []string{"health", "medical", "fitness", "diet", "exercise", "mental health", "wellness", "doctor"}},
	{CategoryEducation, []string{"tutorial", "course", "learn", "education", "guide", "how to", "lesson", "primer"}},
	{CategoryEntertainment, []string{"movie", "music", "game", "gaming", "film", "series", "entertainment", "trailer"}},
	{CategoryMemes, []string{"meme", "funny", "humor", "joke", "lol", "shitpost"}},
	{CategoryNews, []string{"news", "breaking", "report", "announce", "politics", "election"}},
	{CategorySocial, []string{"twitter", "reddit", "thread", "tweet", "social media", "discussion", "forum"}},
}

var positiveWords = []string{
	"great", "good", "excellent", "amazing", "awesome", "love",
	"best", "success", "improve", "win", "beautiful", "helpful",
}

var negativeWords = []string{
	"bad", "terrible", "awful", "hate", "worst", "fail",
	"broken", "bug", "crash", "problem", "scam", "dangerous",
}

// KeywordClassifier is the deterministic rule-based fallback path. It scores
// content against a static keyword table and never touches the network.
// Identical inputs always produce identical outputs.
type KeywordClassifier struct{}

// NewKeywordClassifier creates the rule-based classifier (stateless).
func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{}
}

// Classify produces a full ContentAnalysis from keyword heuristics alone.
// ProducedAt is left zero; the orchestrator stamps it.
func (KeywordClassifier) Classify(item ContentItem) ContentAnalysis {
	haystack := strings.ToLower(item.Title + " " + item.Description + " " + item.URL)

	var categories []Category
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				categories = append(categories, rule.category)
				break
			}
		}
	}
	if len(categories) == 0 {
		categories = []Category{CategoryOther}
	}

	analysis := ContentAnalysis{
		Summary:    item.Title,
		MainTopic:  string(categories[0]),
		KeyPoints:  []string{item.Description},
		Categories: categories,
		Sentiment:  scoreSentiment(haystack),
		Analyzed:   true,
	}

	tags := make([]string, 0, len(item.ExistingTags)+len(categories))
	tags = append(tags, item.ExistingTags...)
	for _, c := range categories {
		tags = append(tags, string(c))
	}
	tags = append(tags, titleWords(item.Title)...)
	analysis.SuggestedTags = DedupTags(tags)

	return analysis
}

func scoreSentiment(haystack string) Sentiment {
	var pos, neg int
	for _, w := range positiveWords {
		pos += strings.Count(haystack, w)
	}
	for _, w := range negativeWords {
		neg += strings.Count(haystack, w)
	}
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// titleWords returns the alphanumeric title words longer than 3 characters.
func titleWords(title string) []string {
	var words []string
	for _, w := range strings.Fields(title) {
		if len(w) <= 3 {
			continue
		}
		alnum := true
		for _, r := range w {
			if !isAlnum(r) {
				alnum = false
				break
			}
		}
		if alnum {
			words = append(words, w)
		}
	}
	return words
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// DedupTags lower-cases tags and removes duplicates while preserving the
// first-seen order.
func DedupTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		lowered := strings.ToLower(strings.TrimSpace(t))
		if lowered == "" {
			continue
		}
		if _, ok := seen[lowered]; ok {
			continue
		}
		seen[lowered] = struct{}{}
		out = append(out, lowered)
	}
	return out
}
