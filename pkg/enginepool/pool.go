// Package enginepool shares one browser engine between concurrent renders.
//
// Renders hold the engine under a read lock. Creating, replacing and closing
// the engine happen under the write lock, so no render ever sees an engine
// that is being launched or torn down. The engine is replaced wholesale when
// it expires, dies, or reports a crash.
package enginepool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/threadshot/pkg/ports"
)

// DefaultLifetime is how long an engine is reused before it is replaced.
const DefaultLifetime = 30 * time.Minute

// acquireAttempts bounds the loop that re-runs acquisition when the slot is
// emptied between creation and the read lock.
const acquireAttempts = 2

// Provider runs functions against an engine.
type Provider interface {
	// Use runs fn with an engine that stays valid until fn returns.
	Use(ctx context.Context, fn func(ctx context.Context, engine ports.Engine) error) error

	// Shutdown releases every engine held by the provider.
	Shutdown(ctx context.Context) error
}

// Options configures a Pool.
type Options struct {
	Lifetime          time.Duration        // default DefaultLifetime
	Browser           ports.BrowserOptions // passed to every launch
	ProactiveTeardown bool                 // close the engine when its lifetime elapses even if idle
	Now               func() time.Time     // clock, for tests
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Created   int           `json:"created"`
	Expired   int           `json:"expired"`
	Discarded int           `json:"discarded"`
	Active    bool          `json:"active"`
	Age       time.Duration `json:"age"`
	Closed    bool          `json:"closed"`
}

// resource is one engine together with its lifetime bookkeeping.
// It is never mutated after being stored in the slot.
type resource struct {
	engine    ports.Engine
	createdAt time.Time
	expiresAt time.Time
	timer     *time.Timer
}

func (r *resource) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
	}
}

// Pool holds at most one shared engine.
type Pool struct {
	launcher ports.Launcher
	opts     Options
	logger   ports.Logger
	lock     *rwLock

	mu      sync.Mutex // guards the fields below
	current *resource
	closed  bool
	stats   Stats
}

// New creates a Pool. No engine is launched until the first Acquire.
func New(launcher ports.Launcher, opts Options, logger ports.Logger) *Pool {
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pool{
		launcher: launcher,
		opts:     opts,
		logger:   logger.WithComponent("pool"),
		lock:     newRWLock(),
	}
}

// Handle is a read-locked reference to the shared engine.
// Release must be called once the caller is done with the engine.
type Handle struct {
	pool *Pool
	res  *resource
	age  time.Duration
	once sync.Once
}

// Engine returns the shared engine.
func (h *Handle) Engine() ports.Engine {
	return h.res.engine
}

// Age returns how old the engine was when the handle was acquired.
func (h *Handle) Age() time.Duration {
	return h.age
}

// Release gives the read lock back. Extra calls do nothing.
func (h *Handle) Release() {
	h.once.Do(h.pool.lock.RUnlock)
}

// Acquire returns a handle on the shared engine, launching a new one when
// the slot is empty, expired, or holds a dead engine.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	for attempt := 0; attempt < acquireAttempts; attempt++ {
		if p.isClosed() {
			return nil, ports.ErrPoolClosed
		}

		if p.needsEngine(p.snapshot()) {
			if err := p.create(ctx); err != nil {
				return nil, err
			}
		}

		if err := p.lock.RLock(ctx); err != nil {
			return nil, err
		}
		p.mu.Lock()
		res, closed := p.current, p.closed
		p.mu.Unlock()

		if closed {
			p.lock.RUnlock()
			return nil, ports.ErrPoolClosed
		}
		if res == nil {
			// Torn down between creation and the read lock.
			p.lock.RUnlock()
			p.logger.Debug("Engine slot emptied before use, retrying")
			continue
		}

		age := p.opts.Now().Sub(res.createdAt)
		p.logger.Debug("Engine acquired (age %s)", age.Round(time.Millisecond))
		return &Handle{pool: p, res: res, age: age}, nil
	}
	return nil, ports.ErrEngineUnavailable
}

// Use acquires the engine, runs fn and releases it. When fn fails with
// ports.ErrEngineClosed the engine is discarded before the error is
// returned unchanged.
func (p *Pool) Use(ctx context.Context, fn func(ctx context.Context, engine ports.Engine) error) error {
	h, err := p.Acquire(ctx)
	if err != nil {
		return err
	}

	err = func() error {
		defer h.Release()
		return fn(ctx, h.Engine())
	}()

	if ports.IsEngineClosed(err) {
		p.discard(h.res)
	}
	return err
}

// Shutdown closes the current engine. The pool cannot be used afterwards.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.stats.Closed = true
	res := p.current
	p.mu.Unlock()

	if res != nil {
		res.stopTimer()
	}

	if err := p.lock.Lock(ctx); err != nil {
		return fmt.Errorf("shutdown pool: %w", err)
	}
	defer p.lock.Unlock()

	p.mu.Lock()
	res = p.current
	p.current = nil
	p.mu.Unlock()

	if res == nil {
		return nil
	}
	p.logger.Debug("Closing engine on shutdown")
	if err := res.engine.Close(); err != nil {
		return fmt.Errorf("close engine: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	if p.current != nil {
		s.Active = true
		s.Age = p.opts.Now().Sub(p.current.createdAt)
	}
	return s
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) snapshot() *resource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Pool) needsEngine(res *resource) bool {
	return res == nil || !p.opts.Now().Before(res.expiresAt) || !res.engine.Alive()
}

// create launches a new engine under the write lock. When another caller
// already replaced the engine while this one waited, it does nothing.
func (p *Pool) create(ctx context.Context) error {
	if err := p.lock.Lock(ctx); err != nil {
		return err
	}
	defer p.lock.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ports.ErrPoolClosed
	}
	old := p.current
	if !p.needsEngine(old) {
		p.mu.Unlock()
		p.logger.Debug("Engine already created by another caller")
		return nil
	}
	p.current = nil
	if old != nil {
		p.stats.Expired++
	}
	p.mu.Unlock()

	if old != nil {
		old.stopTimer()
		p.logger.Debug("Replacing engine created %s ago", p.opts.Now().Sub(old.createdAt).Round(time.Second))
		if err := old.engine.Close(); err != nil {
			p.logger.Warn("Failed to close engine: %s", err)
		}
	}

	if p.opts.Browser.Headless {
		p.logger.Debug("Launching browser in headless mode")
	} else {
		p.logger.Debug("Launching browser in visible mode")
	}
	engine, err := p.launcher.Launch(ctx, p.opts.Browser)
	if err != nil {
		return fmt.Errorf("launch engine: %w", err)
	}

	now := p.opts.Now()
	res := &resource{
		engine:    engine,
		createdAt: now,
		expiresAt: now.Add(p.opts.Lifetime),
	}
	if p.opts.ProactiveTeardown {
		res.timer = time.AfterFunc(p.opts.Lifetime, func() { p.expire(res) })
	}

	p.mu.Lock()
	p.current = res
	p.stats.Created++
	p.mu.Unlock()
	return nil
}

// discard closes res after a crash, if it still occupies the slot.
func (p *Pool) discard(res *resource) {
	res.stopTimer()

	if err := p.lock.Lock(context.Background()); err != nil {
		return
	}
	defer p.lock.Unlock()

	p.mu.Lock()
	if p.current != res {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.stats.Discarded++
	p.mu.Unlock()

	p.logger.Warn("Engine crashed, discarding it")
	if err := res.engine.Close(); err != nil {
		p.logger.Debug("Failed to close crashed engine: %s", err)
	}
}

// expire is the deferred teardown run by the lifetime timer.
func (p *Pool) expire(res *resource) {
	if err := p.lock.Lock(context.Background()); err != nil {
		return
	}
	defer p.lock.Unlock()

	p.mu.Lock()
	if p.current != res {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.stats.Expired++
	p.mu.Unlock()

	p.logger.Debug("Engine lifetime elapsed, closing it")
	if err := res.engine.Close(); err != nil {
		p.logger.Warn("Failed to close engine: %s", err)
	}
}

var _ Provider = (*Pool)(nil)
