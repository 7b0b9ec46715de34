package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gifterm/internal/metrics"
)

// Option configures a Controller
type Option func(*Controller)

// WithDebounce sets the quiet period before a query executes
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithPageSize sets how many results each request asks for
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithContext sets the parent context for all requests. Cancelling it
// aborts in-flight requests the same way Close does.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}
