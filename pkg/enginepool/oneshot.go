package enginepool

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/threadshot/pkg/ports"
)

// Oneshot launches a dedicated engine for every Use and closes it afterwards.
// It suits sequential callers such as the CLI where sharing buys nothing.
type Oneshot struct {
	launcher ports.Launcher
	opts     ports.BrowserOptions
	logger   ports.Logger

	mu     sync.Mutex
	closed bool
}

// NewOneshot creates a Oneshot provider.
func NewOneshot(launcher ports.Launcher, opts ports.BrowserOptions, logger ports.Logger) *Oneshot {
	return &Oneshot{
		launcher: launcher,
		opts:     opts,
		logger:   logger.WithComponent("browser"),
	}
}

// Use launches an engine, runs fn with it and closes it.
func (o *Oneshot) Use(ctx context.Context, fn func(ctx context.Context, engine ports.Engine) error) error {
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return ports.ErrPoolClosed
	}

	o.logger.Debug("Launching browser")
	engine, err := o.launcher.Launch(ctx, o.opts)
	if err != nil {
		return fmt.Errorf("launch engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			o.logger.Debug("Failed to close engine: %s", err)
		}
		o.logger.Debug("Browser closed")
	}()

	return fn(ctx, engine)
}

// Shutdown rejects further use. Engines are already closed after each Use.
func (o *Oneshot) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

var _ Provider = (*Oneshot)(nil)
