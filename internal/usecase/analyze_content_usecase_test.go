package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/usecase"
)

type fakeResolver struct {
	mu          sync.Mutex
	endpoint    *domain.EndpointCandidate
	err         error
	lastErr     string
	resolves    int
	invalidated int
}

func (f *fakeResolver) Resolve(context.Context) (*domain.EndpointCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolves++
	if f.err != nil {
		return nil, f.err
	}
	return f.endpoint, nil
}

func (f *fakeResolver) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func (f *fakeResolver) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

type fakeCaller struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (f *fakeCaller) Generate(context.Context, domain.EndpointCandidate, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var (
	_ domain.EndpointSource = (*fakeResolver)(nil)
	_ domain.ModelCaller    = (*fakeCaller)(nil)
)

func workingResolver() *fakeResolver {
	return &fakeResolver{
		endpoint: &domain.EndpointCandidate{
			BaseURL: "http://localhost:1234",
			Dialect: domain.DialectChat,
			Model:   "local-model",
		},
	}
}

func fastConfig() usecase.AnalyzeConfig {
	return usecase.AnalyzeConfig{
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
		AttemptTimeout: 100 * time.Millisecond,
		BatchSize:      3,
		BatchPause:     time.Millisecond,
	}
}

func newEngine(store *fakeStore, resolver *fakeResolver, caller *fakeCaller) usecase.AnalyzeContentUsecase {
	log := discardLogger()
	cache := usecase.NewAnalysisCache(store, usecase.DefaultCacheTTL, log)
	builder := usecase.NewContentPromptBuilder(nil, nil, log)
	return usecase.NewAnalyzeContentUsecase(cache, resolver, caller, builder, fastConfig(), log)
}

func TestAnalyze_RequiresURL(t *testing.T) {
	engine := newEngine(newFakeStore(), workingResolver(), &fakeCaller{})

	_, err := engine.Analyze(context.Background(), domain.ContentItem{Title: "no url"})
	require.Error(t, err)
}

func TestAnalyze_ModelPayloadMerged(t *testing.T) {
	store := newFakeStore()
	caller := &fakeCaller{
		text: "<think>it is about go</think>\n```json\n{\"summary\":\"Go article\",\"categories\":[\"development\"],\"sentiment\":\"positive\",\"suggested_tags\":[\"go\"]}\n```",
	}
	engine := newEngine(store, workingResolver(), caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title:        "A Go Article",
		URL:          "https://example.com/go",
		Description:  "about go",
		ExistingTags: []string{"reading"},
	})
	require.NoError(t, err)

	assert.True(t, analysis.Analyzed)
	assert.Equal(t, "Go article", analysis.Summary)
	assert.Equal(t, []domain.Category{domain.CategoryDevelopment}, analysis.Categories)
	assert.Equal(t, domain.SentimentPositive, analysis.Sentiment)
	assert.Equal(t, []string{"reading", "go"}, analysis.SuggestedTags)
	require.NotNil(t, analysis.Reasoning)
	assert.Equal(t, "it is about go", analysis.Reasoning.Initial)
	assert.False(t, analysis.ProducedAt.IsZero())

	// The result is written through to the store.
	entry, ok := store.entries["https://example.com/go"]
	require.True(t, ok)
	assert.Equal(t, "Go article", entry.Analysis.Summary)
}

func TestAnalyze_PayloadDefaultsFilled(t *testing.T) {
	caller := &fakeCaller{text: `{"sentiment":"negative"}`}
	engine := newEngine(newFakeStore(), workingResolver(), caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title:       "Fallback Title",
		URL:         "https://example.com/sparse",
		Description: "fallback description",
	})
	require.NoError(t, err)

	assert.Equal(t, "Fallback Title", analysis.Summary)
	assert.Equal(t, []string{"fallback description"}, analysis.KeyPoints)
	assert.Equal(t, []domain.Category{domain.CategoryOther}, analysis.Categories)
	assert.Equal(t, "other", analysis.MainTopic)
	assert.Equal(t, domain.SentimentNegative, analysis.Sentiment)
}

func TestAnalyze_CacheHitSkipsModel(t *testing.T) {
	store := newFakeStore()
	store.entries["https://example.com/hit"] = domain.CacheEntry{
		URL:      "https://example.com/hit",
		Analysis: domain.ContentAnalysis{Summary: "from cache", Analyzed: true},
		StoredAt: time.Now(),
	}
	resolver := workingResolver()
	caller := &fakeCaller{text: `{"summary":"from model"}`}
	engine := newEngine(store, resolver, caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{URL: "https://example.com/hit"})
	require.NoError(t, err)

	assert.Equal(t, "from cache", analysis.Summary)
	assert.Equal(t, 0, resolver.resolves)
	assert.Equal(t, 0, caller.callCount())
}

func TestAnalyze_ResolverFailureFallsBackToRules(t *testing.T) {
	resolver := &fakeResolver{err: domain.ErrNoEndpoint, lastErr: "model server unreachable"}
	engine := newEngine(newFakeStore(), resolver, &fakeCaller{})

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Intro to Neural Networks",
		URL:   "https://example.com/nn",
	})
	require.NoError(t, err)

	assert.True(t, analysis.Analyzed)
	assert.Contains(t, analysis.Categories, domain.CategoryAI)
}

func TestAnalyze_TransportErrorRetriesThreeTimes(t *testing.T) {
	caller := &fakeCaller{err: fmt.Errorf("connection refused")}
	engine := newEngine(newFakeStore(), workingResolver(), caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Some Page",
		URL:   "https://example.com/flaky",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, caller.callCount())
	// Rule fallback still produces a full analysis.
	assert.True(t, analysis.Analyzed)
	assert.NotEmpty(t, analysis.Categories)
}

func TestAnalyze_NoModelLoadedAbortsAndInvalidates(t *testing.T) {
	resolver := workingResolver()
	caller := &fakeCaller{err: fmt.Errorf("endpoint rejected request: %w", domain.ErrNoModelLoaded)}
	engine := newEngine(newFakeStore(), resolver, caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Some Page",
		URL:   "https://example.com/nomodel",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, caller.callCount())
	assert.Equal(t, 1, resolver.invalidated)
	assert.True(t, analysis.Analyzed)
}

func TestAnalyze_ReasoningOnlyKeepsTrace(t *testing.T) {
	caller := &fakeCaller{text: "<think>probably a  finance\narticle</think>I cannot produce JSON."}
	engine := newEngine(newFakeStore(), workingResolver(), caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Stock Market Basics",
		URL:   "https://example.com/stocks",
	})
	require.NoError(t, err)

	// Rules fill every field; the trace survives.
	assert.True(t, analysis.Analyzed)
	assert.Contains(t, analysis.Categories, domain.CategoryFinance)
	require.NotNil(t, analysis.Reasoning)
	assert.Equal(t, "probably a  finance\narticle", analysis.Reasoning.Initial)
	assert.Equal(t, "probably a finance article", analysis.Reasoning.Refined)
}

func TestAnalyze_GarbageResponseFallsBackToRules(t *testing.T) {
	caller := &fakeCaller{text: "sorry, I had trouble with that one"}
	engine := newEngine(newFakeStore(), workingResolver(), caller)

	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Cooking with Cast Iron",
		URL:   "https://example.com/cooking",
	})
	require.NoError(t, err)

	assert.True(t, analysis.Analyzed)
	assert.Nil(t, analysis.Reasoning)
	assert.NotEmpty(t, analysis.Categories)
}

func TestAnalyze_DisableModelSkipsResolver(t *testing.T) {
	resolver := workingResolver()
	caller := &fakeCaller{text: `{"summary":"never used"}`}
	engine := newEngine(newFakeStore(), resolver, caller)

	engine.DisableModel()
	analysis, err := engine.Analyze(context.Background(), domain.ContentItem{
		Title: "Anything",
		URL:   "https://example.com/disabled",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resolver.resolves)
	assert.Equal(t, 0, caller.callCount())
	assert.True(t, analysis.Analyzed)
}

func TestAnalyzeBatch_ProgressAndResults(t *testing.T) {
	resolver := &fakeResolver{err: domain.ErrNoEndpoint, lastErr: "down"}
	engine := newEngine(newFakeStore(), resolver, &fakeCaller{})

	items := make([]domain.ContentItem, 7)
	for i := range items {
		items[i] = domain.ContentItem{
			Title: fmt.Sprintf("Item %d", i),
			URL:   fmt.Sprintf("https://example.com/item-%d", i),
		}
	}

	var progress [][2]int
	results, err := engine.AnalyzeBatch(context.Background(), items, func(processed, total int) {
		progress = append(progress, [2]int{processed, total})
	})
	require.NoError(t, err)

	assert.Len(t, results, 7)
	assert.Equal(t, [][2]int{{3, 7}, {6, 7}, {7, 7}}, progress)
	for _, item := range items {
		require.Contains(t, results, item.URL)
		assert.True(t, results[item.URL].Analyzed)
	}
}

func TestAnalyzeBatch_Empty(t *testing.T) {
	engine := newEngine(newFakeStore(), workingResolver(), &fakeCaller{})

	called := false
	results, err := engine.AnalyzeBatch(context.Background(), nil, func(int, int) { called = true })
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, called)
}

func TestAnalyzeBatch_NilProgressCallback(t *testing.T) {
	resolver := &fakeResolver{err: domain.ErrNoEndpoint}
	engine := newEngine(newFakeStore(), resolver, &fakeCaller{})

	results, err := engine.AnalyzeBatch(context.Background(), []domain.ContentItem{
		{Title: "One", URL: "https://example.com/1"},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCheckConnection(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		engine := newEngine(newFakeStore(), workingResolver(), &fakeCaller{})
		status := engine.CheckConnection(context.Background())
		assert.True(t, status.Connected)
		assert.Contains(t, status.Message, "http://localhost:1234")
	})

	t.Run("unreachable", func(t *testing.T) {
		resolver := &fakeResolver{err: domain.ErrNoEndpoint, lastErr: "model server unreachable: connection refused"}
		engine := newEngine(newFakeStore(), resolver, &fakeCaller{})
		status := engine.CheckConnection(context.Background())
		assert.False(t, status.Connected)
		assert.Contains(t, status.Message, "unreachable")
	})

	t.Run("disabled", func(t *testing.T) {
		engine := newEngine(newFakeStore(), workingResolver(), &fakeCaller{})
		engine.DisableModel()
		status := engine.CheckConnection(context.Background())
		assert.False(t, status.Connected)
	})
}

func TestRefreshConnection_Invalidates(t *testing.T) {
	resolver := workingResolver()
	engine := newEngine(newFakeStore(), resolver, &fakeCaller{})

	status := engine.RefreshConnection(context.Background())
	assert.True(t, status.Connected)
	assert.Equal(t, 1, resolver.invalidated)
}

func TestClearCache(t *testing.T) {
	store := newFakeStore()
	engine := newEngine(store, workingResolver(), &fakeCaller{text: `{"summary":"x"}`})

	_, err := engine.Analyze(context.Background(), domain.ContentItem{Title: "T", URL: "https://example.com/c"})
	require.NoError(t, err)
	require.NotEmpty(t, store.entries)

	require.NoError(t, engine.ClearCache(context.Background()))
	assert.Empty(t, store.entries)
}
