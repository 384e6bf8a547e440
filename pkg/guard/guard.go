// Package guard bounds how many renders run at once, gives each attempt a
// deadline, and retries attempts that failed because the engine went away.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/threadshot/pkg/ports"
)

// Config configures a Guard.
type Config struct {
	Concurrency int           // renders admitted at once (default 10)
	Retries     int           // total attempts on ports.ErrEngineClosed, at least 1
	RetryDelay  time.Duration // pause between attempts
	Timeout     time.Duration // deadline of a single admitted attempt (0 = none)
}

// DefaultConfig returns the default guard settings.
func DefaultConfig() Config {
	return Config{
		Concurrency: 10,
		Retries:     3,
		Timeout:     60 * time.Second,
	}
}

// Guard applies admission control, a per-attempt timeout and retry.
type Guard struct {
	cfg    Config
	sem    *semaphore.Weighted
	logger ports.Logger
}

// New creates a Guard.
func New(cfg Config, logger ports.Logger) *Guard {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Guard{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger: logger.WithComponent("guard"),
	}
}

// Config returns the effective configuration.
func (g *Guard) Config() Config {
	return g.cfg
}

// Run is Do for operations without a result.
func (g *Guard) Run(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Do(ctx, g, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op under g. Only ports.ErrEngineClosed is retried; the error of
// the last attempt is returned as is.
func Do[T any](ctx context.Context, g *Guard, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := g.cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	for attempt := 1; ; attempt++ {
		out, err := attemptOnce(ctx, g, op)
		if err == nil {
			return out, nil
		}
		if attempt >= attempts || !ports.IsEngineClosed(err) {
			return zero, err
		}

		g.logger.Warn("Engine closed during render, retrying (%d/%d)", attempt+1, attempts)
		if err := sleep(ctx, g.cfg.RetryDelay); err != nil {
			return zero, err
		}
	}
}

// attemptOnce admits op and runs it under the attempt deadline.
func attemptOnce[T any](ctx context.Context, g *Guard, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer g.sem.Release(1)

	if g.cfg.Timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	out, err := op(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return zero, fmt.Errorf("%w after %s: %w", ports.ErrRenderTimeout, g.cfg.Timeout, context.DeadlineExceeded)
	}
	return out, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
