package myhttp

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

// Router is a ServeMux whose *WithMiddleware registrations are traced,
// measured and given a request scoped logger.
type Router struct {
	*http.ServeMux
	logger                           *slog.Logger
	httpRequestsDurationMicroSeconds metric.Int64Histogram
}

func NewServerMux(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) *Router {
	return &Router{
		ServeMux:                         http.NewServeMux(),
		logger:                           logger,
		httpRequestsDurationMicroSeconds: httpRequestsDurationMicroSeconds,
	}
}

type loggerContextKey struct{}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// Logger returns the request logger carried by ctx, or the default logger.
func Logger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
