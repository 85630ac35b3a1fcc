package main

import (
	"context"
	"os"

	"github.com/lmittmann/tint"

	log "log/slog"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// setupLogging sends records to the terminal (tint) and, when the file can
// be opened, to an append-only diagnostic log. Returns a close func for
// the file sink.
func setupLogging(level, path string) func() {
	lvl := logLevelMap[level]
	handlers := []log.Handler{
		tint.NewHandler(os.Stdout, &tint.Options{Level: lvl}),
	}

	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			handlers = append(handlers, log.NewTextHandler(f, &log.HandlerOptions{Level: lvl}))
			closeFn = func() { f.Close() }
		}
	}

	log.SetDefault(log.New(teeHandler{handlers: handlers}))
	return closeFn
}

// teeHandler fans one record out to every sink.
type teeHandler struct {
	handlers []log.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level log.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r log.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []log.Attr) log.Handler {
	next := make([]log.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return teeHandler{handlers: next}
}

func (t teeHandler) WithGroup(name string) log.Handler {
	next := make([]log.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return teeHandler{handlers: next}
}
