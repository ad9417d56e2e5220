package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with the name of the component emitting records.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	// File duplicates output to a plain text log when set.
	File    string
	Output  io.Writer
	Handler slog.Handler
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stderr,
	}
}

// New creates a logger from config. The returned closer releases the log
// file, if any.
func New(config Config) (*Logger, io.Closer, error) {
	handler := config.Handler
	var closer io.Closer = nopCloser{}
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		noColor := false
		if config.File != "" {
			f, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open log file: %w", err)
			}
			out = io.MultiWriter(out, f)
			closer = f
			noColor = true
		}
		handler = tint.NewHandler(out, &tint.Options{
			Level:      config.Level,
			TimeFormat: time.DateTime,
			NoColor:    noColor,
		})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}, closer, nil
}

// ParseLevel maps debug, info, warn and error to a slog level. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new logger with the given attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// WithComponent returns a new logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Op logs the outcome of an operation: Info on success, Error otherwise.
func (l *Logger) Op(ctx context.Context, op string, err error, args ...any) {
	args = append([]any{FieldOperation, op}, args...)
	if err != nil {
		l.ErrorContext(ctx, op+" failed", append(args, FieldError, err)...)
		return
	}
	l.InfoContext(ctx, op+" done", args...)
}

// SetDefault sets the default logger for the application
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// Component returns the logger's component name
func (l *Logger) Component() string {
	return l.component
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
