package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging interface used across textfeat. Library packages
// take one through options and default to Discard.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// SlogLogger is a Logger implementation that wraps slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) Logger {
	return &SlogLogger{logger: slog.New(handler)}
}

// FromSlog adapts an existing *slog.Logger. A nil logger discards.
func FromSlog(l *slog.Logger) Logger {
	if l == nil {
		return Discard()
	}
	return &SlogLogger{logger: l}
}

// Discard drops every record.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

// Default writes text records at info level to stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Pretty writes aligned, optionally colored lines meant for a terminal.
func Pretty(w io.Writer, level slog.Level, color bool) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{Level: level}, color))
}

// Format selects the record layout for ForCLI.
type Format string

const (
	FormatAuto   Format = "auto"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatText   Format = "text"
)

// ForCLI builds the logger used by commands. FormatAuto picks pretty output
// on a terminal and JSON otherwise.
func ForCLI(w io.Writer, format Format, level slog.Level, terminal bool) (Logger, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatAuto, "":
		if terminal {
			return Pretty(w, level, true), nil
		}
		return JSON(w, level), nil
	case FormatPretty:
		return Pretty(w, level, terminal), nil
	case FormatJSON:
		return JSON(w, level), nil
	case FormatText:
		return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (expected auto, pretty, json, text)", format)
	}
}

// FromContext retrieves a Logger from the context, or Default when unset.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return Default()
}

func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

type loggerKey struct{}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

func (l *SlogLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

func (l *SlogLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Slog returns the wrapped *slog.Logger.
func (l *SlogLogger) Slog() *slog.Logger { return l.logger }

// AsSlog unwraps l for APIs that take a *slog.Logger. Loggers that do not
// wrap slog are replaced by a discarding one.
func AsSlog(l Logger) *slog.Logger {
	if s, ok := l.(interface{ Slog() *slog.Logger }); ok {
		return s.Slog()
	}
	return slog.New(slog.DiscardHandler)
}

func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

func (l *SlogLogger) WithGroup(name string) Logger {
	return &SlogLogger{logger: l.logger.WithGroup(name)}
}

// ParseLevel accepts debug, info, warn/warning and error in any case.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
