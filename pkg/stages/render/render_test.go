package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/guard"
	"github.com/user/threadshot/pkg/mocks"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

func capturingPage(raw []ports.RawRect) *mocks.Page {
	return &mocks.Page{
		CaptureFunc: func(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
			return []byte("png"), raw, nil
		},
	}
}

func TestExecutor_Render(t *testing.T) {
	page := capturingPage([]ports.RawRect{
		{X: 0, Y: 0, Width: 100.4, Height: 50.6},
		{X: 0, Y: 50.6, Width: 100.4, Height: 30.1},
	})

	var gotOpts ports.PageOptions
	engine := &mocks.Engine{
		NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
			gotOpts = opts
			return page, nil
		},
	}

	var loaded, waited, container, item string
	page.SetContentFunc = func(ctx context.Context, markup string) error {
		loaded = markup
		return nil
	}
	page.WaitReadyFunc = func(ctx context.Context, selector string) error {
		waited = selector
		return nil
	}
	capture := page.CaptureFunc
	page.CaptureFunc = func(ctx context.Context, c, i string) ([]byte, []ports.RawRect, error) {
		container, item = c, i
		return capture(ctx, c, i)
	}

	renderer := &mocks.Renderer{
		DecodeImageFunc: func(data []byte, format ports.ImageFormat) (image.Image, error) {
			if format != ports.FormatPNG {
				t.Errorf("expected PNG decode, got %v", format)
			}
			return image.NewRGBA(image.Rect(0, 0, 301, 243)), nil
		},
	}

	cfg := pipeline.RenderConfig{
		ViewportWidth:     pipeline.Int(500),
		IsMobile:          pipeline.Bool(true),
		HasTouch:          pipeline.Bool(true),
		DeviceScaleFactor: pipeline.Float(3),
		ColorScheme:       pipeline.String("dark"),
	}

	exec := NewExecutor(renderer, logger.NewNoop())
	result, err := exec.Render(context.Background(), engine, "<div class=\"thread-container\"></div>", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loaded == "" || waited != DefaultContainerSelector {
		t.Errorf("expected content loaded and container awaited, got %q / %q", loaded, waited)
	}
	if container != DefaultContainerSelector || item != DefaultItemSelector {
		t.Errorf("unexpected selectors %q %q", container, item)
	}
	if !gotOpts.IsMobile || !gotOpts.HasTouch || gotOpts.DeviceScaleFactor != 3 || gotOpts.ColorScheme != "dark" {
		t.Errorf("unexpected page options: %+v", gotOpts)
	}

	if result.Scale != 3 {
		t.Errorf("expected scale 3, got %v", result.Scale)
	}
	want := []pipeline.BoundingRect{
		{X: 0, Y: 0, Width: 301, Height: 151, Top: 0, Left: 0, Right: 301, Bottom: 151},
		{X: 0, Y: 151, Width: 301, Height: 90, Top: 151, Left: 0, Right: 301, Bottom: 242},
	}
	if len(result.Rects) != len(want) {
		t.Fatalf("expected %d rects, got %d", len(want), len(result.Rects))
	}
	for i := range want {
		if result.Rects[i] != want[i] {
			t.Errorf("rect %d: expected %+v, got %+v", i, want[i], result.Rects[i])
		}
	}

	if page.CloseCount() != 1 {
		t.Errorf("expected page closed once, got %d", page.CloseCount())
	}
	if engine.CloseCount() != 0 {
		t.Error("executor must not close the engine")
	}
}

func TestExecutor_DesktopIgnoresScaleFactor(t *testing.T) {
	page := capturingPage([]ports.RawRect{{X: 1.9, Y: 2.9, Width: 10.5, Height: 20.5}})
	var gotOpts ports.PageOptions
	engine := &mocks.Engine{
		NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
			gotOpts = opts
			return page, nil
		},
	}

	cfg := pipeline.RenderConfig{
		IsMobile:          pipeline.Bool(false),
		HasTouch:          pipeline.Bool(true),
		DeviceScaleFactor: pipeline.Float(3),
	}
	result, err := NewExecutor(&mocks.Renderer{}, logger.NewNoop()).Render(context.Background(), engine, "<p>x</p>", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOpts.DeviceScaleFactor != 0 || gotOpts.HasTouch || gotOpts.IsMobile {
		t.Errorf("expected mobile-only options omitted, got %+v", gotOpts)
	}
	if result.Scale != 1 {
		t.Errorf("expected scale 1, got %v", result.Scale)
	}
	want := pipeline.BoundingRect{X: 1, Y: 2, Width: 10, Height: 20, Top: 2, Left: 1, Right: 12, Bottom: 23}
	if result.Rects[0] != want {
		t.Errorf("expected %+v, got %+v", want, result.Rects[0])
	}
}

func TestExecutor_ClosesPageOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		page    *mocks.Page
		wantErr error
	}{
		{
			name: "content fails",
			page: &mocks.Page{SetContentFunc: func(ctx context.Context, markup string) error {
				return ports.ErrEngineClosed
			}},
			wantErr: ports.ErrEngineClosed,
		},
		{
			name: "container missing",
			page: &mocks.Page{WaitReadyFunc: func(ctx context.Context, selector string) error {
				return fmt.Errorf("%w: no element matches %s", ports.ErrInvalidMarkup, selector)
			}},
			wantErr: ports.ErrInvalidMarkup,
		},
		{
			name: "capture crashes",
			page: &mocks.Page{CaptureFunc: func(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
				return nil, nil, fmt.Errorf("target crashed: %w", ports.ErrEngineClosed)
			}},
			wantErr: ports.ErrEngineClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mocks.Engine{
				NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
					return tt.page, nil
				},
			}
			_, err := NewExecutor(&mocks.Renderer{}, logger.NewNoop()).Render(context.Background(), engine, "<p>x</p>", pipeline.RenderConfig{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.page.CloseCount() != 1 {
				t.Errorf("expected page closed once, got %d", tt.page.CloseCount())
			}
			if engine.CloseCount() != 0 {
				t.Error("executor must not close the engine")
			}
		})
	}
}

func TestExecutor_RejectsInvalidInput(t *testing.T) {
	engine := &mocks.Engine{
		NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
			t.Error("no page should be opened for invalid input")
			return &mocks.Page{}, nil
		},
	}
	exec := NewExecutor(&mocks.Renderer{}, logger.NewNoop())

	if _, err := exec.Render(context.Background(), engine, "  \n", pipeline.RenderConfig{}); !errors.Is(err, ports.ErrInvalidMarkup) {
		t.Errorf("expected ErrInvalidMarkup, got %v", err)
	}

	bad := pipeline.RenderConfig{ViewportWidth: pipeline.Int(5000)}
	if _, err := exec.Render(context.Background(), engine, "<p>x</p>", bad); !errors.Is(err, ports.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

// crashOnceLauncher hands out engines whose pages crash on capture for the
// first engine only.
type crashOnceLauncher struct {
	mu      sync.Mutex
	engines []*mocks.Engine
}

func (l *crashOnceLauncher) Launch(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	first := len(l.engines) == 0
	engine := &mocks.Engine{
		NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
			if first {
				return &mocks.Page{CaptureFunc: func(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
					return nil, nil, fmt.Errorf("target crashed: %w", ports.ErrEngineClosed)
				}}, nil
			}
			return capturingPage([]ports.RawRect{{Width: 10, Height: 10}}), nil
		},
	}
	l.engines = append(l.engines, engine)
	return engine, nil
}

func TestStage_RetriesOnFreshEngineAfterCrash(t *testing.T) {
	launcher := &crashOnceLauncher{}
	pool := enginepool.New(launcher, enginepool.Options{}, logger.NewNoop())
	defer pool.Shutdown(context.Background())

	g := guard.New(guard.Config{Concurrency: 2, Retries: 3}, logger.NewNoop())
	stage := NewStage(pool, g, NewExecutor(&mocks.Renderer{}, logger.NewNoop()), pipeline.RenderConfig{}, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.RenderInput{Markup: "<p>x</p>"})
	if err != nil {
		t.Fatalf("expected success on the second attempt, got %v", err)
	}
	if len(result.Rects) != 1 {
		t.Errorf("expected 1 rect, got %d", len(result.Rects))
	}

	if len(launcher.engines) != 2 {
		t.Fatalf("expected 2 engines, got %d", len(launcher.engines))
	}
	first := launcher.engines[0]
	if first.CloseCount() != 1 {
		t.Errorf("expected crashed engine discarded, got %d closes", first.CloseCount())
	}

	h, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer h.Release()
	if h.Engine() == ports.Engine(first) {
		t.Error("expected the pool to hold a different engine after recovery")
	}
}

func TestStage_SurfacesCrashAfterRetries(t *testing.T) {
	launches := 0
	launcher := &mocks.Launcher{
		LaunchFunc: func(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
			launches++
			return &mocks.Engine{
				NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
					return nil, ports.ErrEngineClosed
				},
			}, nil
		},
	}
	pool := enginepool.New(launcher, enginepool.Options{}, logger.NewNoop())
	defer pool.Shutdown(context.Background())

	g := guard.New(guard.Config{Concurrency: 1, Retries: 3}, logger.NewNoop())
	stage := NewStage(pool, g, NewExecutor(&mocks.Renderer{}, logger.NewNoop()), pipeline.RenderConfig{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.RenderInput{Markup: "<p>x</p>"})
	if !errors.Is(err, ports.ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
	if launches != 3 {
		t.Errorf("expected one engine per attempt (3), got %d", launches)
	}
	if pool.Stats().Active {
		t.Error("expected the slot to be empty after the last crash")
	}
}

func TestStage_MergesDefaults(t *testing.T) {
	var gotOpts ports.PageOptions
	launcher := &mocks.Launcher{
		LaunchFunc: func(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
			return &mocks.Engine{
				NewPageFunc: func(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
					gotOpts = opts
					return capturingPage(nil), nil
				},
			}, nil
		},
	}
	provider := enginepool.NewOneshot(launcher, ports.BrowserOptions{}, logger.NewNoop())
	g := guard.New(guard.DefaultConfig(), logger.NewNoop())

	defaults := pipeline.RenderConfig{
		ViewportWidth:     pipeline.Int(500),
		IsMobile:          pipeline.Bool(true),
		HasTouch:          pipeline.Bool(true),
		DeviceScaleFactor: pipeline.Float(3),
		ColorScheme:       pipeline.String("dark"),
	}
	stage := NewStage(provider, g, NewExecutor(&mocks.Renderer{}, logger.NewNoop()), defaults, logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.RenderInput{
		Markup: "<p>x</p>",
		Config: pipeline.RenderConfig{IsMobile: pipeline.Bool(false), ColorScheme: pipeline.String("light")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOpts.ViewportWidth != 500 || gotOpts.ColorScheme != "light" {
		t.Errorf("expected defaults merged with overrides, got %+v", gotOpts)
	}
	if gotOpts.IsMobile || gotOpts.HasTouch || gotOpts.DeviceScaleFactor != 0 {
		t.Errorf("expected mobile-only fields omitted, got %+v", gotOpts)
	}
	if result.Scale != 1 {
		t.Errorf("expected scale 1, got %v", result.Scale)
	}
}
