// Package analysishttp exposes the analysis engine over HTTP.
package analysishttp

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/infra/logger"
	"bookmark-analyzer/internal/usecase"
)

// Handler adapts the analyze usecase to echo routes.
type Handler struct {
	analyze usecase.AnalyzeContentUsecase
	logger  *slog.Logger
	ctxLog  *logger.ContextLogger
}

// NewHandler builds the HTTP handler.
func NewHandler(analyze usecase.AnalyzeContentUsecase, log *slog.Logger) *Handler {
	return &Handler{
		analyze: analyze,
		logger:  log,
		ctxLog:  logger.NewContextLogger("bookmark-analyzer"),
	}
}

// Register attaches all routes to the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/analyze", h.Analyze)
	e.POST("/v1/analyze/batch", h.AnalyzeBatch)
	e.GET("/v1/connection", h.Connection)
	e.POST("/v1/connection/refresh", h.RefreshConnection)
	e.POST("/v1/model/disable", h.DisableModel)
	e.DELETE("/v1/cache", h.ClearCache)
}

type analyzeRequest struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Description  string   `json:"description"`
	ExistingTags []string `json:"existing_tags"`
}

func (r analyzeRequest) item() domain.ContentItem {
	return domain.ContentItem{
		Title:        r.Title,
		URL:          r.URL,
		Description:  r.Description,
		ExistingTags: r.ExistingTags,
	}
}

// Analyze runs one analysis. The response is always a schema-complete
// ContentAnalysis; only malformed requests produce an HTTP error.
func (h *Handler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())
	ctx = logger.WithContentURL(ctx, req.URL)
	ctx = logger.WithContentKind(ctx, string(domain.KindOfURL(req.URL)))

	analysis, err := h.analyze.Analyze(ctx, req.item())
	if err != nil {
		h.ctxLog.WithContext(ctx).Warn("analyze_request_rejected",
			slog.String("error", err.Error()))
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	h.ctxLog.WithContext(ctx).Info("analyze_request_completed",
		slog.Bool("analyzed", analysis.Analyzed))
	return c.JSON(http.StatusOK, analysis)
}

type batchRequest struct {
	Items []analyzeRequest `json:"items"`
}

type batchResponse struct {
	Results   map[string]*domain.ContentAnalysis `json:"results"`
	Processed int                                `json:"processed"`
	Total     int                                `json:"total"`
}

// AnalyzeBatch analyzes a list of items in bounded concurrent groups.
// Progress is logged; the final counts come back in the response.
func (h *Handler) AnalyzeBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "items is required"})
	}

	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())
	ctx = logger.WithPipeline(ctx, "batch")

	items := make([]domain.ContentItem, len(req.Items))
	for i, r := range req.Items {
		items[i] = r.item()
	}

	results, err := h.analyze.AnalyzeBatch(ctx, items, func(processed, total int) {
		h.ctxLog.WithContext(ctx).Info("batch_progress",
			slog.Int("processed", processed),
			slog.Int("total", total))
	})
	if err != nil {
		// Context cancellation mid-batch still returns what completed.
		h.ctxLog.WithContext(ctx).Warn("batch_interrupted",
			slog.String("error", err.Error()))
	}

	return c.JSON(http.StatusOK, batchResponse{
		Results:   results,
		Processed: len(results),
		Total:     len(items),
	})
}

// Connection reports the current model connection status.
func (h *Handler) Connection(c echo.Context) error {
	return c.JSON(http.StatusOK, h.analyze.CheckConnection(c.Request().Context()))
}

// RefreshConnection is the explicit reconnect action: it drops the remembered
// endpoint and re-probes.
func (h *Handler) RefreshConnection(c echo.Context) error {
	return c.JSON(http.StatusOK, h.analyze.RefreshConnection(c.Request().Context()))
}

// DisableModel switches the engine to rule-only analysis.
func (h *Handler) DisableModel(c echo.Context) error {
	h.analyze.DisableModel()
	h.logger.Info("model_disable_requested")
	return c.JSON(http.StatusOK, map[string]string{"status": "model disabled"})
}

// ClearCache drops all cached analyses.
func (h *Handler) ClearCache(c echo.Context) error {
	if err := h.analyze.ClearCache(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	h.logger.Info("cache_cleared")
	return c.NoContent(http.StatusNoContent)
}
