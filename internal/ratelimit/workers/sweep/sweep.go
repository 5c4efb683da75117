// Package sweep runs the background cleanup of expired rate limit windows.
//
// The window store only drops stale entries when asked; without this worker
// one-off clients would accumulate for the life of the process.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"arq/internal/ratelimit/config"
	"arq/internal/ratelimit/metrics"
)

// SweepResult contains the results of one sweep run.
type SweepResult struct {
	Removed   int           // expired windows deleted
	Remaining int           // windows still tracked afterwards
	Duration  time.Duration // time taken
}

// Sweeper drops expired windows.
type Sweeper interface {
	Sweep() (removed, remaining int)
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the logger for sweep summaries. Nil keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithInterval sets the time between sweeps. Non-positive values keep the
// configured default.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithMetrics records swept and tracked window counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// Worker periodically sweeps the window store. It runs only between Start
// and cancellation of the context passed to it.
type Worker struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	metrics  *metrics.Metrics
}

// New creates a Worker for sweeper using config.DefaultSweepInterval unless
// WithInterval overrides it.
func New(sweeper Sweeper, opts ...Option) *Worker {
	w := &Worker{
		sweeper:  sweeper,
		logger:   slog.Default(),
		interval: config.DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start blocks, sweeping every interval until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("rate limit sweep worker started", "interval", w.interval.String())
	for {
		select {
		case <-ticker.C:
			res := w.RunOnce()
			if res.Removed > 0 {
				w.logger.Debug("rate_limit_sweep_completed",
					"removed", res.Removed,
					"remaining", res.Remaining,
					"duration_ms", res.Duration.Milliseconds(),
				)
			}
		case <-ctx.Done():
			w.logger.Info("rate limit sweep worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce executes a single sweep and records metrics.
func (w *Worker) RunOnce() *SweepResult {
	start := time.Now()
	removed, remaining := w.sweeper.Sweep()
	res := &SweepResult{Removed: removed, Remaining: remaining, Duration: time.Since(start)}
	if w.metrics != nil {
		w.metrics.ObserveSweep(res.Removed, res.Remaining, res.Duration.Seconds())
	}
	return res
}
