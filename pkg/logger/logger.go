// Package logger wraps zerolog with context-carried sub-loggers. Handlers
// and middleware enrich the context once; everything downstream logs with
// those fields attached.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stickerlandia/print-service/pkg/env"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
}

type Logger struct {
	root      *zerolog.Logger
	warnStack bool
}

type entryKey struct{}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	root := zerolog.New(newWriter(opts.Output)).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(level)

	return &Logger{root: &root, warnStack: opts.WarnStack}
}

// newWriter honors LOG_FORMAT=console for local runs; production stays json.
func newWriter(out io.Writer) io.Writer {
	if out == nil {
		out = os.Stdout
	}
	if env.Get("LOG_FORMAT", "json") == "console" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	return out
}

// ParseLevel maps a config string to a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(v)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if sub, ok := ctx.Value(entryKey{}).(*zerolog.Logger); ok {
			return sub
		}
	}
	return l.root
}

func (l *Logger) stash(ctx context.Context, sub zerolog.Logger) context.Context {
	return context.WithValue(ctx, entryKey{}, &sub)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.stash(ctx, l.entry(ctx).With().Interface(key, value).Logger())
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	builder := l.entry(ctx).With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}
	return l.stash(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithPrinterID(ctx context.Context, printerID string) context.Context {
	return l.WithField(ctx, "printer_id", printerID)
}

func (l *Logger) WithEventName(ctx context.Context, eventName string) context.Context {
	return l.WithField(ctx, "event_name", eventName)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	evt := l.entry(ctx).Warn()
	if l.warnStack {
		evt = evt.Str("stack", stackTrace())
	}
	evt.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	evt := l.entry(ctx).Error().Str("stack", stackTrace())
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
