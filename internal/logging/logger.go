// Package logging carries a *log.Logger through contexts. Process logs go to stderr, stdout
// belongs to the price line.
package logging

import (
	"context"
	"io"
	"log"
	"os"
	"sync"
)

type contextKey string

const loggerKey = contextKey("logger")

const DefaultPrefix = "Ratewatch: "

var (
	defaultLogger     *log.Logger
	defaultLoggerOnce sync.Once
)

func DefaultLogger() *log.Logger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = New(os.Stderr, DefaultPrefix)
	})
	return defaultLogger
}

// New returns a logger writing to w. The timestamp goes first, the prefix sits right before the
// message
func New(w io.Writer, prefix string) *log.Logger {
	return log.New(w, prefix, log.LstdFlags|log.Lmsgprefix)
}

func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func FromContext(ctx context.Context) *log.Logger {
	if logger, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// WithTask stores a logger which marks every message with the task name, e.g.
// "Ratewatch: task fiat tick #3: ...". The destination and flags of the current logger are kept
func WithTask(ctx context.Context, name string) context.Context {
	parent := FromContext(ctx)
	logger := log.New(parent.Writer(), parent.Prefix()+"task "+name+" ", parent.Flags())

	return WithLogger(ctx, logger)
}
