// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/user/threadshot/pkg/ports"
)

// Launcher is a mock implementation of ports.Launcher.
// Without LaunchFunc it hands out a fresh *Engine per call.
type Launcher struct {
	LaunchFunc func(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error)

	mu       sync.Mutex
	launched []*Engine
}

func (m *Launcher) Launch(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, opts)
	}
	e := &Engine{}
	m.mu.Lock()
	m.launched = append(m.launched, e)
	m.mu.Unlock()
	return e, nil
}

// Launched returns the engines created by the default launch path.
func (m *Launcher) Launched() []*Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Engine, len(m.launched))
	copy(out, m.launched)
	return out
}

var _ ports.Launcher = (*Launcher)(nil)

// Engine is a mock implementation of ports.Engine.
type Engine struct {
	NewPageFunc func(ctx context.Context, opts ports.PageOptions) (ports.Page, error)
	CloseFunc   func() error

	closed atomic.Int32
}

func (m *Engine) NewPage(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
	if m.NewPageFunc != nil {
		return m.NewPageFunc(ctx, opts)
	}
	return &Page{}, nil
}

func (m *Engine) Alive() bool {
	return m.closed.Load() == 0
}

func (m *Engine) Close() error {
	m.closed.Add(1)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// CloseCount returns how many times Close was called.
func (m *Engine) CloseCount() int {
	return int(m.closed.Load())
}

var _ ports.Engine = (*Engine)(nil)

// Page is a mock implementation of ports.Page.
type Page struct {
	SetContentFunc func(ctx context.Context, markup string) error
	WaitReadyFunc  func(ctx context.Context, selector string) error
	CaptureFunc    func(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error)
	CloseFunc      func() error

	closed atomic.Int32
}

func (m *Page) SetContent(ctx context.Context, markup string) error {
	if m.SetContentFunc != nil {
		return m.SetContentFunc(ctx, markup)
	}
	return nil
}

func (m *Page) WaitReady(ctx context.Context, selector string) error {
	if m.WaitReadyFunc != nil {
		return m.WaitReadyFunc(ctx, selector)
	}
	return nil
}

func (m *Page) Capture(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, container, item)
	}
	return []byte{}, nil, nil
}

func (m *Page) Close() error {
	m.closed.Add(1)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// CloseCount returns how many times Close was called.
func (m *Page) CloseCount() int {
	return int(m.closed.Load())
}

var _ ports.Page = (*Page)(nil)
