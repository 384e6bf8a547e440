package threadshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/mocks"
	"github.com/user/threadshot/pkg/orchestrator"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// pngOf encodes a blank image of the given size.
func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeBrowser serves a 100x300 CSS pixel page holding three 100px items,
// rasterized at the requested scale factor.
type fakeBrowser struct {
	t *testing.T

	mu      sync.Mutex
	markups []string
	opts    []ports.PageOptions
}

func (b *fakeBrowser) launcher() *mocks.Launcher {
	return &mocks.Launcher{
		LaunchFunc: func(ctx context.Context, opts ports.BrowserOptions) (ports.Engine, error) {
			return &mocks.Engine{NewPageFunc: b.newPage}, nil
		},
	}
}

func (b *fakeBrowser) newPage(ctx context.Context, opts ports.PageOptions) (ports.Page, error) {
	b.mu.Lock()
	b.opts = append(b.opts, opts)
	b.mu.Unlock()

	scale := opts.DeviceScaleFactor
	if scale == 0 {
		scale = 1
	}
	return &mocks.Page{
		SetContentFunc: func(ctx context.Context, markup string) error {
			b.mu.Lock()
			b.markups = append(b.markups, markup)
			b.mu.Unlock()
			return nil
		},
		CaptureFunc: func(ctx context.Context, container, item string) ([]byte, []ports.RawRect, error) {
			return pngOf(b.t, int(100*scale), int(300*scale)), []ports.RawRect{
				{Y: 0, Width: 100, Height: 100},
				{Y: 100, Width: 100, Height: 100},
				{Y: 200, Width: 100, Height: 100},
			}, nil
		},
	}, nil
}

func newTestService(t *testing.T, mutate func(*Options)) (*Service, *fakeBrowser) {
	t.Helper()
	browser := &fakeBrowser{t: t}
	opts := DefaultOptions()
	opts.Launcher = browser.launcher()
	opts.Logger = logger.NewNoop()
	opts.FileSystem = mocks.NewFileSystem()
	opts.Fetcher = &mocks.MediaFetcher{Bodies: map[string][]byte{"https://cdn/a.png": pngOf(t, 2, 2)}}
	if mutate != nil {
		mutate(&opts)
	}
	svc := New(opts)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc, browser
}

func TestService_RenderAndSegment(t *testing.T) {
	svc, browser := newTestService(t, nil)

	cfg, err := NewMobileConfigBuilder().Build()
	if err != nil {
		t.Fatal(err)
	}
	result, err := svc.Render(context.Background(), "<div class=\"thread-container\"></div>", cfg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if result.Scale != 3 {
		t.Errorf("expected scale 3, got %v", result.Scale)
	}
	if result.Rects[2].Top != 600 || result.Rects[2].Bottom != 900 {
		t.Errorf("expected rects in raster pixels, got %+v", result.Rects[2])
	}
	if browser.opts[0].ColorScheme != "dark" || !browser.opts[0].IsMobile {
		t.Errorf("expected mobile preset emulation, got %+v", browser.opts[0])
	}

	// 150 CSS px at 3x is 450 raster px: one item per chunk.
	images, err := svc.Segment(context.Background(), result, pipeline.SplitPolicy{MaxHeight: 150})
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if len(images) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(images))
	}

	if stats := svc.Stats(); stats.Created != 1 || !stats.Active {
		t.Errorf("expected one shared engine, got %+v", stats)
	}
}

func TestService_DefaultsApply(t *testing.T) {
	svc, browser := newTestService(t, func(o *Options) {
		o.Defaults = pipeline.RenderConfig{ColorScheme: pipeline.String("dark"), Locale: pipeline.String("ja-JP")}
	})

	_, err := svc.Render(context.Background(), "<p>x</p>", pipeline.RenderConfig{ColorScheme: pipeline.String("light")})
	if err != nil {
		t.Fatal(err)
	}
	if browser.opts[0].ColorScheme != "light" || browser.opts[0].Locale != "ja-JP" {
		t.Errorf("expected request override over defaults, got %+v", browser.opts[0])
	}
}

func TestService_RenderThread(t *testing.T) {
	avatar := &ports.Media{URL: "https://cdn/a.png"}
	source := &mocks.PostSource{
		FetchThreadFunc: func(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
			return []ports.Post{
				{ID: "1", Text: "hello", Author: ports.User{Name: "A", Avatar: avatar}},
				{ID: leafID, ParentID: "1", Text: "world", Author: ports.User{Name: "A"}},
			}, nil
		},
	}
	svc, browser := newTestService(t, func(o *Options) { o.Source = source })

	out, err := svc.RenderThread(context.Background(), orchestrator.Config{
		LeafID:     "2",
		Policy:     pipeline.SplitPolicy{ItemsPerChunk: 2},
		OutputPath: "ignored.png",
	})
	if err != nil {
		t.Fatalf("RenderThread failed: %v", err)
	}

	if len(out.Images) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(out.Images))
	}
	if out.Prefetch.Downloaded != 1 {
		t.Errorf("expected avatar to be downloaded, got %+v", out.Prefetch)
	}
	if !strings.Contains(browser.markups[0], "data:image/png;base64,") {
		t.Error("expected downloaded avatar to be inlined")
	}
}

func TestService_Run(t *testing.T) {
	fs := mocks.NewFileSystem()
	svc, _ := newTestService(t, func(o *Options) { o.FileSystem = fs })

	result, err := svc.Run(context.Background(), orchestrator.Config{
		Markup:     "<p>ready</p>",
		Policy:     pipeline.SplitPolicy{ItemsPerChunk: 1},
		OutputPath: "out.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %v", result.Outputs)
	}
	data, ok := fs.GetFile("out_2.png")
	if !ok {
		t.Fatal("expected out_2.png")
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("output is not a PNG: %v", err)
	}
}

func TestService_Oneshot(t *testing.T) {
	svc, browser := newTestService(t, func(o *Options) { o.Oneshot = true })

	for i := 0; i < 2; i++ {
		if _, err := svc.Render(context.Background(), "<p>x</p>", pipeline.RenderConfig{}); err != nil {
			t.Fatal(err)
		}
	}
	if len(browser.opts) != 2 {
		t.Errorf("expected two renders, got %d", len(browser.opts))
	}
	if stats := svc.Stats(); stats.Created != 0 {
		t.Errorf("oneshot mode has no pool stats, got %+v", stats)
	}
}

func TestService_Close(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.Render(context.Background(), "<p>x</p>", pipeline.RenderConfig{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := svc.Render(context.Background(), "<p>x</p>", pipeline.RenderConfig{}); !errors.Is(err, ports.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed after Close, got %v", err)
	}
}

func TestService_InvalidConfig(t *testing.T) {
	svc, browser := newTestService(t, nil)

	_, err := svc.Render(context.Background(), "<p>x</p>", pipeline.RenderConfig{ViewportWidth: pipeline.Int(5000)})
	if !errors.Is(err, ports.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if len(browser.opts) != 0 {
		t.Error("invalid config must not reach the browser")
	}
}

func TestService_Markup(t *testing.T) {
	source := &mocks.PostSource{
		FetchThreadFunc: func(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
			return []ports.Post{{ID: leafID, Text: "only markup"}}, nil
		},
	}
	svc, browser := newTestService(t, func(o *Options) { o.Source = source })

	out, err := svc.Markup(context.Background(), orchestrator.Config{LeafID: "9", SkipMedia: true})
	if err != nil {
		t.Fatalf("Markup failed: %v", err)
	}

	if !strings.Contains(out.Markup, "only markup") {
		t.Errorf("unexpected markup: %q", out.Markup)
	}
	if len(browser.markups) != 0 {
		t.Error("markup generation must not open a page")
	}
}

func TestService_Thread(t *testing.T) {
	source := &mocks.PostSource{
		FetchThreadFunc: func(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
			return []ports.Post{{ID: "1"}, {ID: leafID, ParentID: "1"}}, nil
		},
	}
	fetcher := &mocks.MediaFetcher{}
	svc, browser := newTestService(t, func(o *Options) {
		o.Source = source
		o.Fetcher = fetcher
	})

	posts, err := svc.Thread(context.Background(), "2", 10)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}

	if len(posts) != 2 || posts[1].ID != "2" {
		t.Errorf("unexpected posts: %+v", posts)
	}
	if len(browser.markups) != 0 {
		t.Error("listing a thread must not open a page")
	}
	if len(fetcher.Calls()) != 0 {
		t.Errorf("listing a thread must not download previews, got %v", fetcher.Calls())
	}
}
