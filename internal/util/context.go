package util

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogFromContext returns the logger embedded in ctx, falling back to the
// global logger if none is present.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}
	return l
}

// LogToContext embeds the given logger into a child of ctx.
func LogToContext(ctx context.Context, l *zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}
