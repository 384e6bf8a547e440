// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// Launcher starts browser engines.
type Launcher interface {
	// Launch starts a new engine process with the given options.
	// The returned engine outlives ctx; it stays up until Close is called.
	Launch(ctx context.Context, opts BrowserOptions) (Engine, error)
}

// Engine is a running headless browser shared by many renders.
type Engine interface {
	// NewPage opens an isolated page (its own browser context) emulating opts.
	NewPage(ctx context.Context, opts PageOptions) (Page, error)

	// Alive reports whether the engine process is still usable.
	Alive() bool

	// Close shuts the engine down. Safe to call more than once.
	Close() error
}

// Page is a single rendering surface opened from an Engine.
type Page interface {
	// SetContent replaces the document with the given markup.
	SetContent(ctx context.Context, markup string) error

	// WaitReady blocks until an element matching selector exists.
	WaitReady(ctx context.Context, selector string) error

	// Capture screenshots the element matching container and returns
	// the PNG bytes together with the rects of elements matching item,
	// measured in CSS pixels relative to the container.
	Capture(ctx context.Context, container, item string) ([]byte, []RawRect, error)

	// Close releases the page and its browser context.
	Close() error
}

// BrowserOptions configures browser launch settings.
type BrowserOptions struct {
	Headless          bool
	ChromePath        string
	UserAgent         string
	IgnoreHTTPSErrors bool   // Ignore HTTPS certificate errors
	ProxyServer       string // HTTP proxy server (e.g., "http://proxy:8080")
	InstallIfMissing  bool   // Download a Chromium build when none is found
}

// PageOptions holds the emulation applied to a new page.
// Zero values leave the engine default untouched.
type PageOptions struct {
	ViewportWidth     int
	ViewportHeight    int
	ScreenWidth       int
	ScreenHeight      int
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
	ColorScheme       string // dark, light, no-preference
	Contrast          string // more, no-preference
	ForcedColors      string // active, none
	Locale            string
	TimezoneID        string
}

// RawRect is an element box in CSS pixels as reported by the page.
type RawRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
