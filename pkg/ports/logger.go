package ports

import "strings"

// LogLevel orders log output by severity.
type LogLevel int

const (
	// LevelDebug adds per-stage detail such as page lifecycle and retries.
	LevelDebug LogLevel = iota
	// LevelInfo reports the progress of each run.
	LevelInfo
	LevelWarn
	LevelError
	// LevelQuiet prints nothing.
	LevelQuiet
)

// ParseLogLevel maps a config or flag value to a LogLevel. Unknown values
// fall back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "quiet", "off":
		return LevelQuiet
	default:
		return LevelInfo
	}
}

// Logger writes printf-style messages. msg is a go-l10n key, translated
// before the arguments are applied.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger tagging every line with component.
	WithComponent(component string) Logger
}
