// Package logger configures the process-wide zerolog logger and carries
// request-scoped child loggers through context.Context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init replaces the base logger. Development environments get the console
// writer; everything else writes JSON lines to stdout.
func Init(level, environment string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return InitWithWriter(out, level)
}

func InitWithWriter(out io.Writer, level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	base = zerolog.New(out).Level(parsed).With().Timestamp().Logger()
	log.Logger = base
	return base
}

func Base() *zerolog.Logger {
	return &base
}

// WithRequestID stores a child logger tagged with the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := base.With().Str("requestId", requestID).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, falling back to the base logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &base
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &base
	}
	return l
}
