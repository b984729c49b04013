package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	// Business context keys for analysis observability.
	RequestIDKey   ContextKey = "analysis.request.id"
	ContentURLKey  ContextKey = "analysis.content.url"
	ContentKindKey ContextKey = "analysis.content.kind"
	PipelineKey    ContextKey = "analysis.pipeline"
)

// ContextLogger provides context-aware logging for the analysis pipeline.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger.
func NewContextLogger(serviceName string) *ContextLogger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)

	return &ContextLogger{
		logger:      slog.New(handler),
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, string(RequestIDKey), requestID)
	}
	if url := ctx.Value(ContentURLKey); url != nil {
		fields = append(fields, string(ContentURLKey), url)
	}
	if kind := ctx.Value(ContentKindKey); kind != nil {
		fields = append(fields, string(ContentKindKey), kind)
	}
	if pipeline := ctx.Value(PipelineKey); pipeline != nil {
		fields = append(fields, string(PipelineKey), pipeline)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithRequestID adds the request id to context for observability.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithContentURL adds the analyzed URL to context for observability.
func WithContentURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, ContentURLKey, url)
}

// WithContentKind adds the content kind to context for observability.
func WithContentKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, ContentKindKey, kind)
}

// WithPipeline marks which analysis path (model or rules) produced the log.
func WithPipeline(ctx context.Context, pipeline string) context.Context {
	return context.WithValue(ctx, PipelineKey, pipeline)
}
