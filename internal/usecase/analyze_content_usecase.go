package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"bookmark-analyzer/internal/domain"
)

// ConnectionStatus is the answer to a connection check.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// AnalyzeContentUsecase is the engine's public entry point.
type AnalyzeContentUsecase interface {
	Analyze(ctx context.Context, item domain.ContentItem) (*domain.ContentAnalysis, error)
	AnalyzeBatch(ctx context.Context, items []domain.ContentItem, onProgress func(processed, total int)) (map[string]*domain.ContentAnalysis, error)
	CheckConnection(ctx context.Context) ConnectionStatus
	RefreshConnection(ctx context.Context) ConnectionStatus
	DisableModel()
	ClearCache(ctx context.Context) error
}

// AnalyzeConfig bounds the model call loop and batch pacing.
type AnalyzeConfig struct {
	MaxAttempts    int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
	BatchSize      int
	BatchPause     time.Duration
}

// DefaultAnalyzeConfig returns the stock retry and batch policy.
func DefaultAnalyzeConfig() AnalyzeConfig {
	return AnalyzeConfig{
		MaxAttempts:    3,
		RetryDelay:     time.Second,
		AttemptTimeout: 30 * time.Second,
		BatchSize:      3,
		BatchPause:     time.Second,
	}
}

func (c AnalyzeConfig) withDefaults() AnalyzeConfig {
	d := DefaultAnalyzeConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.BatchPause <= 0 {
		c.BatchPause = d.BatchPause
	}
	return c
}

type analyzeContentUsecase struct {
	cache         *AnalysisCache
	resolver      domain.EndpointSource
	caller        domain.ModelCaller
	promptBuilder PromptBuilder
	parser        ResponseParser
	merger        ResultMerger
	classifier    domain.KeywordClassifier
	cfg           AnalyzeConfig
	logger        *slog.Logger

	modelDisabled atomic.Bool
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewAnalyzeContentUsecase wires the orchestrator. Every failure path inside
// Analyze degrades to the rule-based classifier; the returned error is
// reserved for caller mistakes such as an empty URL.
func NewAnalyzeContentUsecase(
	cache *AnalysisCache,
	resolver domain.EndpointSource,
	caller domain.ModelCaller,
	promptBuilder PromptBuilder,
	cfg AnalyzeConfig,
	logger *slog.Logger,
) AnalyzeContentUsecase {
	return &analyzeContentUsecase{
		cache:         cache,
		resolver:      resolver,
		caller:        caller,
		promptBuilder: promptBuilder,
		parser:        NewResponseParser(),
		merger:        NewResultMerger(),
		classifier:    domain.NewKeywordClassifier(),
		cfg:           cfg.withDefaults(),
		logger:        logger,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

func (u *analyzeContentUsecase) Analyze(ctx context.Context, item domain.ContentItem) (*domain.ContentAnalysis, error) {
	if strings.TrimSpace(item.URL) == "" {
		return nil, fmt.Errorf("content url is required")
	}

	if cached := u.cache.Get(ctx, item.URL); cached != nil {
		u.logger.Debug("analysis_cache_hit", slog.String("url", item.URL))
		return cached, nil
	}

	analysis := u.classify(ctx, item)
	analysis.ProducedAt = u.now()
	u.cache.Put(ctx, item.URL, *analysis)
	return analysis, nil
}

// classify runs the model path and falls back to rules on any failure.
func (u *analyzeContentUsecase) classify(ctx context.Context, item domain.ContentItem) *domain.ContentAnalysis {
	if u.modelDisabled.Load() {
		analysis := u.classifier.Classify(item)
		return &analysis
	}

	endpoint, err := u.resolver.Resolve(ctx)
	if err != nil || endpoint == nil {
		u.logger.Info("analysis_rule_fallback",
			slog.String("url", item.URL),
			slog.String("reason", u.resolver.LastError()))
		analysis := u.classifier.Classify(item)
		return &analysis
	}

	prompt := u.promptBuilder.Build(ctx, item)

	raw, callErr := u.callWithRetry(ctx, *endpoint, prompt)
	if callErr != nil {
		if errors.Is(callErr, domain.ErrNoModelLoaded) {
			u.resolver.Invalidate()
		}
		u.logger.Warn("model_call_failed",
			slog.String("url", item.URL),
			slog.String("endpoint", endpoint.BaseURL),
			slog.String("error", callErr.Error()))
		analysis := u.classifier.Classify(item)
		return &analysis
	}

	parsed := u.parser.Parse(raw)
	switch {
	case parsed.HasPayload():
		analysis := u.mergeModelResult(item, parsed)
		return analysis
	case parsed.HasReasoning():
		// The model thought out loud but never produced usable JSON:
		// keep the trace, fill every field from rules.
		analysis := u.classifier.Classify(item)
		analysis.Reasoning = reasoningTrace(parsed.Reasoning)
		u.logger.Warn("model_response_unparsable",
			slog.String("url", item.URL),
			slog.Bool("reasoning_kept", true))
		return &analysis
	default:
		u.logger.Warn("model_response_unparsable", slog.String("url", item.URL))
		analysis := u.classifier.Classify(item)
		return &analysis
	}
}

func (u *analyzeContentUsecase) mergeModelResult(item domain.ContentItem, parsed ParsedResponse) *domain.ContentAnalysis {
	analysis := &domain.ContentAnalysis{
		Sentiment:     domain.SentimentNeutral,
		SuggestedTags: domain.DedupTags(item.ExistingTags),
		Analyzed:      true,
	}
	u.merger.Merge(analysis, parsed.Payload)

	if analysis.Summary == "" {
		analysis.Summary = item.Title
	}
	if len(analysis.KeyPoints) == 0 {
		analysis.KeyPoints = []string{item.Description}
	}
	if len(analysis.Categories) == 0 {
		analysis.Categories = []domain.Category{domain.CategoryOther}
	}
	if analysis.MainTopic == "" {
		analysis.MainTopic = string(analysis.Categories[0])
	}
	if parsed.HasReasoning() {
		analysis.Reasoning = reasoningTrace(parsed.Reasoning)
	}
	return analysis
}

func reasoningTrace(reasoning string) *domain.ReasoningTrace {
	return &domain.ReasoningTrace{
		Initial: reasoning,
		Refined: strings.Join(strings.Fields(reasoning), " "),
	}
}

// callWithRetry makes up to MaxAttempts calls with a fixed delay between
// them. A no-model-loaded answer aborts immediately: retrying cannot load a
// model. A cancelled attempt counts as a failed attempt.
func (u *analyzeContentUsecase) callWithRetry(ctx context.Context, endpoint domain.EndpointCandidate, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= u.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, u.cfg.AttemptTimeout)
		raw, err := u.caller.Generate(attemptCtx, endpoint, prompt)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if errors.Is(err, domain.ErrNoModelLoaded) {
			return "", err
		}
		u.logger.Debug("model_call_retry",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt < u.cfg.MaxAttempts {
			if sleepErr := u.sleep(ctx, u.cfg.RetryDelay); sleepErr != nil {
				return "", lastErr
			}
		}
	}
	return "", lastErr
}

func (u *analyzeContentUsecase) AnalyzeBatch(ctx context.Context, items []domain.ContentItem, onProgress func(processed, total int)) (map[string]*domain.ContentAnalysis, error) {
	total := len(items)
	results := make(map[string]*domain.ContentAnalysis, total)
	if total == 0 {
		return results, nil
	}

	// One token per group; the first Wait passes immediately, later groups
	// are paced BatchPause apart so a local model server is not swamped.
	limiter := rate.NewLimiter(rate.Every(u.cfg.BatchPause), 1)

	var mu sync.Mutex
	processed := 0

	for start := 0; start < total; start += u.cfg.BatchSize {
		if err := limiter.Wait(ctx); err != nil {
			return results, err
		}

		end := min(start+u.cfg.BatchSize, total)
		g, gctx := errgroup.WithContext(ctx)
		for _, item := range items[start:end] {
			g.Go(func() error {
				analysis, err := u.Analyze(gctx, item)
				if err != nil {
					u.logger.Warn("batch_item_skipped",
						slog.String("url", item.URL),
						slog.String("error", err.Error()))
					return nil
				}
				mu.Lock()
				results[item.URL] = analysis
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, err
		}

		processed += end - start
		if onProgress != nil {
			onProgress(processed, total)
		}
	}
	return results, nil
}

func (u *analyzeContentUsecase) CheckConnection(ctx context.Context) ConnectionStatus {
	if u.modelDisabled.Load() {
		return ConnectionStatus{Connected: false, Message: "model disabled, rule-based analysis only"}
	}
	endpoint, err := u.resolver.Resolve(ctx)
	if err != nil || endpoint == nil {
		msg := u.resolver.LastError()
		if msg == "" {
			msg = domain.ErrNoEndpoint.Error()
		}
		return ConnectionStatus{Connected: false, Message: msg}
	}
	return ConnectionStatus{
		Connected: true,
		Message:   fmt.Sprintf("connected to %s (%s dialect)", endpoint.BaseURL, endpoint.Dialect),
	}
}

// RefreshConnection drops the remembered endpoint and probes again. This is
// the explicit reconnect action; routine analyses never re-probe on their own.
func (u *analyzeContentUsecase) RefreshConnection(ctx context.Context) ConnectionStatus {
	u.resolver.Invalidate()
	return u.CheckConnection(ctx)
}

// DisableModel forces rule-only analysis until the process restarts.
func (u *analyzeContentUsecase) DisableModel() {
	u.modelDisabled.Store(true)
	u.logger.Info("model_disabled")
}

func (u *analyzeContentUsecase) ClearCache(ctx context.Context) error {
	return u.cache.Clear(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
