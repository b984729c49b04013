package di

import (
	"log/slog"
	"time"

	"bookmark-analyzer/internal/adapter/metadata"
	"bookmark-analyzer/internal/adapter/modelhttp"
	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/infra/config"
	"bookmark-analyzer/internal/infra/httpclient"
	"bookmark-analyzer/internal/usecase"
	"bookmark-analyzer/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Cache          *usecase.AnalysisCache
	Resolver       *modelhttp.EndpointResolver
	AnalyzeUsecase usecase.AnalyzeContentUsecase
	Janitor        *worker.CacheJanitor
}

// NewApplicationComponents wires all dependencies from config and the chosen
// cache store.
func NewApplicationComponents(cfg *config.Config, store domain.CacheStore, log *slog.Logger) *ApplicationComponents {
	// Shared HTTP clients with connection pooling
	modelHTTP := httpclient.NewPooledClient(time.Duration(cfg.Model.Timeout) * time.Second)
	enrichHTTP := httpclient.NewPooledClient(time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second)

	// Model path
	modelClient := modelhttp.NewClient(modelHTTP, log)
	resolver := modelhttp.NewEndpointResolver(endpointCandidates(cfg), modelClient, log)

	// Optional enrichment collaborators
	var repoMeta domain.RepoMetadataFetcher
	var videoMeta domain.VideoMetadataFetcher
	if cfg.Enrich.Enabled {
		enrichTimeout := time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second
		repoMeta = metadata.NewGitHubClient(cfg.Enrich.GitHubAPIURL, enrichTimeout, log, enrichHTTP)
		videoMeta = metadata.NewOEmbedClient(cfg.Enrich.OEmbedURL, enrichTimeout, log, enrichHTTP)
		log.Info("prompt_enrichment_enabled")
	}
	promptBuilder := usecase.NewContentPromptBuilder(repoMeta, videoMeta, log)

	// Cache
	ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	cache := usecase.NewAnalysisCache(store, ttl, log)

	// Orchestrator
	analyzeUsecase := usecase.NewAnalyzeContentUsecase(
		cache, resolver, modelClient, promptBuilder,
		usecase.DefaultAnalyzeConfig(), log,
	)

	// Janitor
	janitor := worker.NewCacheJanitor(
		store,
		time.Duration(cfg.Cache.JanitorIntervalHours)*time.Hour,
		ttl,
		log,
	)

	return &ApplicationComponents{
		Cache:          cache,
		Resolver:       resolver,
		AnalyzeUsecase: analyzeUsecase,
		Janitor:        janitor,
	}
}

func endpointCandidates(cfg *config.Config) []domain.EndpointCandidate {
	candidates := make([]domain.EndpointCandidate, 0, len(cfg.Model.Endpoints))
	for _, ep := range cfg.Model.Endpoints {
		candidates = append(candidates, domain.EndpointCandidate{
			BaseURL: ep.URL,
			Dialect: domain.Dialect(ep.Dialect),
			Model:   cfg.Model.Name,
		})
	}
	return candidates
}
