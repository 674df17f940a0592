package observability

import (
	"context"
	"log/slog"
)

// LogContext holds the request-scoped values attached to every render log line.
type LogContext struct {
	RenderID    string
	Kind        string
	RequestPath string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRenderID adds a render ID to the context.
func WithRenderID(ctx context.Context, renderID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RenderID = renderID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithKind adds a content kind to the context.
func WithKind(ctx context.Context, kind string) context.Context {
	lc := extractLogContext(ctx)
	lc.Kind = kind
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRequestPath adds the inbound request path to the context.
func WithRequestPath(ctx context.Context, path string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestPath = path
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RenderID != "" {
		attrs = append(attrs, slog.String("render.id", lc.RenderID))
	}
	if lc.Kind != "" {
		attrs = append(attrs, slog.String("kind", lc.Kind))
	}
	if lc.RequestPath != "" {
		attrs = append(attrs, slog.String("request.path", lc.RequestPath))
	}
	return attrs
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

// Logger returns logger enriched with the attributes carried by ctx.
func Logger(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := getLogAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return logger.With(args...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelInfo, msg, append(getLogAttrs(ctx), attrs...)...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelWarn, msg, append(getLogAttrs(ctx), attrs...)...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	slog.LogAttrs(ctx, slog.LevelError, msg, append(getLogAttrs(ctx), attrs...)...)
}
