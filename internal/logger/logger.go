package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"familytree/internal/config"
	"familytree/internal/telemetry"
)

// New builds the application logger and installs it as the slog default.
// Records go to the console and to the OpenTelemetry log bridge; the
// bridge is a no-op until telemetry installs a provider.
func New(cfg config.Config) *slog.Logger {
	return slog.New(newHandler(cfg, os.Stdout)).With(
		"service", cfg.Telemetry.ServiceName,
		"version", cfg.Telemetry.ServiceVersion,
		"environment", cfg.Server.Environment,
	)
}

func newHandler(cfg config.Config, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}

	var console slog.Handler
	if cfg.Server.IsProduction() {
		opts.Level = slog.LevelInfo
		console = slog.NewJSONHandler(w, opts)
	} else {
		console = slog.NewTextHandler(w, opts)
	}

	if !cfg.Telemetry.Enabled {
		return console
	}
	return NewMultiHandler(telemetry.NewOTelHandler(opts), console)
}

// SetDefault installs l as the process-wide logger.
func SetDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// MultiHandler sends every record to all handlers that accept its level.
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		next = append(next, handler.WithAttrs(attrs))
	}
	return &MultiHandler{handlers: next}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(h.handlers))
	for _, handler := range h.handlers {
		next = append(next, handler.WithGroup(name))
	}
	return &MultiHandler{handlers: next}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
