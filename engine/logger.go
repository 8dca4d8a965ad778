package engine

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Logger is the structured logger the engine uses for warnings and
// lifecycle events (C11). It is a thin wrapper over logiface.Logger: build
// a concrete *Logger[*Event] once, then use the fluent Info()/Warning()/...
// builder chain at every call site.
type Logger = logiface.Logger[*islog.Event]

// NewLogger builds a Logger backed by handler, e.g. slog.NewJSONHandler or
// slog.NewTextHandler, at the given minimum level.
func NewLogger(handler slog.Handler, level logiface.Level) *Logger {
	return logiface.New[*islog.Event](islog.NewLogger(handler, islog.WithLevel(level)))
}

// NewNopLogger builds a Logger that discards everything, for callers that
// don't want engine diagnostics.
func NewNopLogger() *Logger {
	return logiface.New[*islog.Event]()
}
