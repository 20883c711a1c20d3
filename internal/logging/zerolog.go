package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts zerolog.Logger to Logger.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger writes human-readable console output to w.
func NewZerologLogger(w io.Writer, level slog.Level) *ZerologLogger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(zerologLevel(level)).
		With().Timestamp().Logger()
	return &ZerologLogger{l: l}
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level <= slog.LevelDebug:
		return zerolog.DebugLevel
	case level <= slog.LevelInfo:
		return zerolog.InfoLevel
	case level <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

func (z *ZerologLogger) log(e *zerolog.Event, msg string, args []any) {
	pairs(args, func(k string, v any) { e = e.Interface(k, v) })
	e.Msg(msg)
}

func (z *ZerologLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.log(z.l.Debug().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, args ...any) {
	z.log(z.l.Info().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.log(z.l.Warn().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, args ...any) {
	z.log(z.l.Error().Ctx(ctx), msg, args)
}

func (z *ZerologLogger) With(args ...any) Logger {
	c := z.l.With()
	pairs(args, func(k string, v any) { c = c.Interface(k, v) })
	return &ZerologLogger{l: c.Logger()}
}
