package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// LoggerConfig selects the level and sinks of a Logger.
type LoggerConfig struct {
	Level      string
	Writer     io.Writer
	NoColor    bool
	FluentHost string
	FluentPort int
}

// Logger provides leveled, printf-style logging on top of slog.
type Logger struct {
	log    *slog.Logger
	fluent *fluent.Fluent
}

// NewLogger creates an info-level Logger writing colored output to stdout.
func NewLogger() *Logger {
	return &Logger{log: slog.New(consoleHandler(os.Stdout, slog.LevelInfo, false))}
}

// NewLoggerWithConfig builds a Logger from cfg. When a Fluentd host is set,
// records are also shipped there; a Fluentd setup error falls back to the
// console only and is reported through the returned logger.
func NewLoggerWithConfig(cfg LoggerConfig) *Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	level := ParseLevel(cfg.Level)
	console := consoleHandler(w, level, cfg.NoColor)

	if cfg.FluentHost == "" {
		return &Logger{log: slog.New(console)}
	}

	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
		TagPrefix:  "warsaw-property",
		Async:      true,
	})
	if err != nil {
		l := &Logger{log: slog.New(console)}
		l.Warn("[logger] Fluentd unavailable at %s:%d: %v", cfg.FluentHost, cfg.FluentPort, err)
		return l
	}

	handler := &multiHandler{handlers: []slog.Handler{
		console,
		&fluentHandler{client: client, level: level},
	}}
	return &Logger{log: slog.New(handler), fluent: client}
}

// ParseLevel maps debug|info|warn|error to a slog level; unknown values mean info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

func consoleHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    noColor,
	})
}

// With returns a child logger that adds the given key/value attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{log: l.log.With(args...), fluent: l.fluent}
}

func (l *Logger) Info(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.log.Debug(fmt.Sprintf(format, args...))
}

// Close flushes the Fluentd client, if any.
func (l *Logger) Close() error {
	if l.fluent == nil {
		return nil
	}
	return l.fluent.Close()
}
