package chromebrowser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/emulation"

	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/ports"
)

func TestEmulate(t *testing.T) {
	t.Run("desktop defaults", func(t *testing.T) {
		actions := emulate(ports.PageOptions{})
		if len(actions) != 1 {
			t.Fatalf("expected only the metrics override, got %d actions", len(actions))
		}
		m, ok := actions[0].(*emulation.SetDeviceMetricsOverrideParams)
		if !ok {
			t.Fatalf("expected metrics override, got %T", actions[0])
		}
		if m.Width != defaultViewportWidth || m.Height != defaultViewportHeight || m.DeviceScaleFactor != 0 || m.Mobile {
			t.Errorf("unexpected metrics: %+v", m)
		}
	})

	t.Run("mobile dark", func(t *testing.T) {
		actions := emulate(ports.PageOptions{
			ViewportWidth:     500,
			ViewportHeight:    400,
			ScreenWidth:       500,
			ScreenHeight:      900,
			DeviceScaleFactor: 3,
			IsMobile:          true,
			HasTouch:          true,
			ColorScheme:       "dark",
			Contrast:          "more",
			Locale:            "ja-JP",
			TimezoneID:        "Asia/Tokyo",
		})
		if len(actions) != 5 {
			t.Fatalf("expected 5 actions, got %d", len(actions))
		}
		m := actions[0].(*emulation.SetDeviceMetricsOverrideParams)
		if m.Width != 500 || m.Height != 400 || m.DeviceScaleFactor != 3 || !m.Mobile || m.ScreenHeight != 900 {
			t.Errorf("unexpected metrics: %+v", m)
		}
		media, ok := actions[2].(*emulation.SetEmulatedMediaParams)
		if !ok {
			t.Fatalf("expected media emulation, got %T", actions[2])
		}
		if len(media.Features) != 2 || media.Features[0].Value != "dark" || media.Features[1].Name != "prefers-contrast" {
			t.Errorf("unexpected media features: %+v", media.Features)
		}
	})
}

func TestLauncher_Render(t *testing.T) {
	chromePath := ResolveChromePath("")
	if chromePath == "" {
		t.Skip("Chrome not installed, skipping browser test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	engine, err := NewLauncher(logger.NewNoop()).Launch(ctx, ports.BrowserOptions{
		ChromePath: chromePath,
		Headless:   true,
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	defer engine.Close()

	page, err := engine.NewPage(ctx, ports.PageOptions{ViewportWidth: 400, ViewportHeight: 300, DeviceScaleFactor: 2, IsMobile: true})
	if err != nil {
		t.Fatalf("failed to open page: %v", err)
	}
	defer page.Close()

	markup := `<html><body style="margin:0">
<div class="thread-container" style="width:200px">
<div class="thread-item" style="height:50px"></div>
<div class="thread-item" style="height:70px"></div>
</div></body></html>`
	if err := page.SetContent(ctx, markup); err != nil {
		t.Fatalf("set content: %v", err)
	}
	if err := page.WaitReady(ctx, ".thread-container"); err != nil {
		t.Fatalf("wait ready: %v", err)
	}
	if err := page.WaitReady(ctx, ".missing"); !errors.Is(err, ports.ErrInvalidMarkup) {
		t.Errorf("expected ErrInvalidMarkup for a missing element, got %v", err)
	}

	png, rects, err := page.Capture(ctx, ".thread-container", ".thread-item")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(png) == 0 {
		t.Error("expected screenshot bytes")
	}
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(rects))
	}
	if rects[1].Y != 50 || rects[1].Height != 70 {
		t.Errorf("unexpected second rect: %+v", rects[1])
	}
}

func TestEngine_ClosedEngineRejectsPages(t *testing.T) {
	chromePath := ResolveChromePath("")
	if chromePath == "" {
		t.Skip("Chrome not installed, skipping browser test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	engine, err := NewLauncher(logger.NewNoop()).Launch(ctx, ports.BrowserOptions{ChromePath: chromePath, Headless: true})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	engine.Close()

	if engine.Alive() {
		t.Error("expected engine to report closed")
	}
	if _, err := engine.NewPage(ctx, ports.PageOptions{}); !errors.Is(err, ports.ErrEngineClosed) {
		t.Errorf("expected ErrEngineClosed, got %v", err)
	}
}
