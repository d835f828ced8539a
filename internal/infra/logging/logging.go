// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"lexbrief/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger. Unknown levels fall back to info; dev mode
// forces console output, adds callers and disables sampling.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return newLogger(os.Stdout, cfg, dev)
}

func newLogger(w io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if dev && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	if dev || strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	ctx := zerolog.New(w).Level(level).With().Timestamp().Str("service", "lexbrief")
	if dev {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()

	if cfg.Sampling && !dev {
		// first 100 lines per second, then every 100th; warnings and errors are never sampled
		l = l.Sample(zerolog.LevelSampler{
			TraceSampler: &zerolog.BurstSampler{Burst: 100, Period: time.Second, NextSampler: &zerolog.BasicSampler{N: 100}},
			DebugSampler: &zerolog.BurstSampler{Burst: 100, Period: time.Second, NextSampler: &zerolog.BasicSampler{N: 100}},
			InfoSampler:  &zerolog.BurstSampler{Burst: 100, Period: time.Second, NextSampler: &zerolog.BasicSampler{N: 100}},
		})
	}
	return &l
}

type ctxKey struct{}

// fields is stored by value; every With* helper copies it.
type fields struct {
	traceID   string
	userID    string
	sessionID string
	step      string
}

func fromContext(ctx context.Context) fields {
	f, _ := ctx.Value(ctxKey{}).(fields)
	return f
}

func update(ctx context.Context, fn func(*fields)) context.Context {
	f := fromContext(ctx)
	fn(&f)
	return context.WithValue(ctx, ctxKey{}, f)
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return update(ctx, func(f *fields) { f.traceID = id })
}

func WithUserID(ctx context.Context, id string) context.Context {
	return update(ctx, func(f *fields) { f.userID = id })
}

func WithSessID(ctx context.Context, id string) context.Context {
	return update(ctx, func(f *fields) { f.sessionID = id })
}

func WithStep(ctx context.Context, step string) context.Context {
	return update(ctx, func(f *fields) { f.step = step })
}

// With returns base enriched with whatever request fields ctx carries.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	f := fromContext(ctx)
	lc := base.With()
	for _, kv := range [...][2]string{
		{"trace_id", f.traceID},
		{"user_id", f.userID},
		{"session_id", f.sessionID},
		{"step", f.step},
	} {
		if kv[1] != "" {
			lc = lc.Str(kv[0], kv[1])
		}
	}
	l := lc.Logger()
	return &l
}

// TraceDuration logs entry and exit of name at trace level.
//
//	defer logging.TraceDuration(u.log, "StepController.Submit")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact masks identifiers such as call numbers outside dev mode, keeping the
// first four and last two characters.
func Redact(s string, dev bool) string {
	switch {
	case dev:
		return s
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "..." + s[len(s)-2:]
	}
}
