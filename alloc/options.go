package alloc

import (
	"io"
	"log/slog"
	"os"

	"github.com/joshuapare/orderly/internal/freeset"
)

// logAllocEnv enables stderr debug logging when no logger is configured.
const logAllocEnv = "ORDERLY_LOG_ALLOC"

type config struct {
	logger       *slog.Logger
	liveTracking bool
	degree       int
}

// Option configures an Allocator.
type Option func(*config)

// WithLogger routes debug records (failed allocations, growth, resets) to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithLiveTracking keeps a table of live allocations so that Free and
// TryReallocate can reject any handle that is not currently live, instead of
// only those whose start collides with a free region. Each Alloc and Free
// pays one extra map update.
func WithLiveTracking() Option {
	return func(c *config) {
		c.liveTracking = true
	}
}

// WithBTreeDegree sets the degree of the free-region B-trees. Values below
// 2 select the default.
func WithBTreeDegree(degree int) Option {
	return func(c *config) {
		c.degree = degree
	}
}

func newConfig(opts []Option) config {
	c := config{degree: freeset.DefaultDegree}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = defaultLogger()
	}
	return c
}

func defaultLogger() *slog.Logger {
	if os.Getenv(logAllocEnv) != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
