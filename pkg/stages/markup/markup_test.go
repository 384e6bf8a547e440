package markup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/threadshot/pkg/adapters/logger"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func thread() []ports.Post {
	views := 12500
	return []ports.Post{
		{
			ID:        "1",
			Text:      "first <b>post</b>",
			Author:    ports.User{Name: "Alice", Username: "alice", Verified: true},
			CreatedAt: time.Date(2024, 5, 1, 15, 4, 0, 0, time.UTC),
			Likes:     1500,
			Views:     &views,
			Media:     []ports.Media{{Type: "image", URL: "https://cdn/m.png", Preview: pngHeader}},
		},
		{
			ID:     "2",
			Text:   "second",
			Author: ports.User{Name: "Bob", Username: "bob", Avatar: &ports.Media{URL: "https://cdn/bob.png"}},
			Quoted: &ports.Post{
				ID:     "q",
				Text:   "quoted text",
				Author: ports.User{Name: "Carol", Username: "carol"},
				Media:  []ports.Media{{Type: "video", URL: "https://cdn/v.mp4", PreviewURL: "https://cdn/v.jpg"}},
			},
		},
	}
}

func TestGenerate_Thread(t *testing.T) {
	html, err := Generate(thread(), Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if strings.Count(html, `class="`+ItemClass+`"`) != 2 {
		t.Errorf("expected 2 items")
	}
	if !strings.Contains(html, `class="`+ContainerClass+`"`) {
		t.Error("expected container element")
	}
	if strings.Count(html, `class="connector"`) != 1 {
		t.Errorf("expected a connector on all but the last post, got %d", strings.Count(html, `class="connector"`))
	}
	if !strings.Contains(html, "first &lt;b&gt;post&lt;/b&gt;") {
		t.Error("post text must be escaped")
	}
	if !strings.Contains(html, "data:image/png;base64,") {
		t.Error("downloaded preview should be inlined")
	}
	if !strings.Contains(html, `src="https://cdn/bob.png"`) {
		t.Error("avatar without bytes should use its URL")
	}
	if !strings.Contains(html, `src="https://cdn/v.jpg"`) {
		t.Error("video should show its preview image")
	}
	if !strings.Contains(html, "quoted text") || !strings.Contains(html, "@carol") {
		t.Error("quoted post should be rendered")
	}
	if !strings.Contains(html, "1.5K likes") || !strings.Contains(html, "12.5K views") {
		t.Error("counts should be abbreviated")
	}
	if !strings.Contains(html, "3:04 PM · May 1, 2024") {
		t.Error("expected formatted timestamp")
	}
}

func TestGenerate_Options(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		items      int
		connectors int
	}{
		{name: "default", opts: Options{}, items: 2, connectors: 1},
		{name: "connector on last", opts: Options{ShowConnectorOnLast: true}, items: 2, connectors: 2},
		{name: "single", opts: Options{IsSingle: true, ShowConnectorOnLast: true}, items: 1, connectors: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := Generate(thread(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Count(html, `class="thread-item"`); got != tt.items {
				t.Errorf("expected %d items, got %d", tt.items, got)
			}
			if got := strings.Count(html, `class="connector"`); got != tt.connectors {
				t.Errorf("expected %d connectors, got %d", tt.connectors, got)
			}
		})
	}
}

func TestGenerate_NoPosts(t *testing.T) {
	if _, err := Generate(nil, Options{}); !errors.Is(err, ErrNoPosts) {
		t.Errorf("expected ErrNoPosts, got %v", err)
	}
}

func TestPreviewURI_RejectsOtherSchemes(t *testing.T) {
	if got := previewURI(&ports.Media{URL: "javascript:alert(1)"}); got != "" {
		t.Errorf("expected empty URI, got %q", got)
	}
	if got := previewURI(nil); got != "" {
		t.Errorf("expected empty URI for nil media, got %q", got)
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{
		0:         "0",
		999:       "999",
		1000:      "1K",
		1250:      "1.2K",
		999_999:   "999.9K",
		2_000_000: "2M",
		3_450_000: "3.4M",
	}
	for in, want := range tests {
		if got := formatCount(in); got != want {
			t.Errorf("formatCount(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage(logger.NewNoop())

	result, err := stage.Execute(context.Background(), pipeline.MarkupInput{Posts: thread(), IsSingle: true})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(result.HTML, "thread-container single") {
		t.Error("single mode should mark the container")
	}
}
