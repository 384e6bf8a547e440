package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/user/threadshot/pkg/ports"
)

// StructuredLogger adapts ports.Logger onto log/slog with a tint handler.
// Messages are translated and formatted first; the component becomes an
// attribute instead of a prefix. Used by the HTTP server.
type StructuredLogger struct {
	slog *slog.Logger
}

// NewStructured writes colored, timestamped records to os.Stderr.
func NewStructured(level ports.LogLevel) *StructuredLogger {
	noColor := !isatty.IsTerminal(os.Stderr.Fd())
	return NewStructuredTo(os.Stderr, level, noColor)
}

// NewStructuredTo writes records to w.
func NewStructuredTo(w io.Writer, level ports.LogLevel, noColor bool) *StructuredLogger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      slogLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    noColor,
	})
	return &StructuredLogger{slog: slog.New(handler)}
}

// Slog exposes the underlying logger for request logging middleware.
func (l *StructuredLogger) Slog() *slog.Logger {
	return l.slog
}

func (l *StructuredLogger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *StructuredLogger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *StructuredLogger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *StructuredLogger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, msg, args...)
}

// WithComponent returns a logger tagging records with component.
func (l *StructuredLogger) WithComponent(component string) ports.Logger {
	return &StructuredLogger{slog: l.slog.With("component", component)}
}

func (l *StructuredLogger) log(level slog.Level, msg string, args ...interface{}) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	l.slog.Log(ctx, level, l10n.F(msg, args...))
}

// slogLevel maps LevelQuiet above every slog level.
func slogLevel(level ports.LogLevel) slog.Level {
	switch level {
	case ports.LevelDebug:
		return slog.LevelDebug
	case ports.LevelWarn:
		return slog.LevelWarn
	case ports.LevelError:
		return slog.LevelError
	case ports.LevelQuiet:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Ensure StructuredLogger implements ports.Logger
var _ ports.Logger = (*StructuredLogger)(nil)
