package logx

import (
	"context"
	"io"
	"os"

	"github.com/aura-core/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default (debug, info, warn, error).
	Level string
	// Output defaults to stdout in production and a console writer otherwise.
	Output io.Writer
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)

	level := zerolog.DebugLevel
	if o.Environment.IsProduction() {
		level = zerolog.InfoLevel
	}
	if o.Level != "" {
		if parsed, err := zerolog.ParseLevel(o.Level); err == nil {
			level = parsed
		}
	}

	out := o.Output
	switch {
	case out != nil:
	case o.Environment.IsProduction():
		out = os.Stdout
	default:
		out = zerolog.NewConsoleWriter()
	}

	ctx := zerolog.New(out).With().Timestamp().Str("env", o.Environment.String())
	if !o.Environment.IsProduction() {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger().Level(level)
}

// WithContext attaches a child logger carrying fields to ctx. Ctx retrieves it.
func WithContext(ctx context.Context, fields map[string]any) context.Context {
	return log.Logger.With().Fields(fields).Logger().WithContext(ctx)
}

// Ctx returns the logger stored in ctx, falling back to the global logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
