package summarizer

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/user/threadshot/pkg/mocks"
	"github.com/user/threadshot/pkg/orchestrator"
)

func sampleRun() orchestrator.RunResult {
	return orchestrator.RunResult{
		LeafID:             "42",
		PostCount:          3,
		PreviewsRequested:  4,
		PreviewsDownloaded: 3,
		PreviewsFailed:     1,
		MarkupBytes:        2048,
		ImageWidth:         1500,
		ImageHeight:        3000,
		Scale:              3,
		ItemCount:          3,
		Chunks:             []image.Point{{1500, 1800}, {1500, 1200}},
		Outputs:            []string{"t_1.png", "t_2.png"},
		TotalDuration:      1234 * time.Millisecond,
	}
}

func TestNewSummary(t *testing.T) {
	a, b := NewSummary(), NewSummary()

	if _, err := uuid.Parse(a.RunID); err != nil {
		t.Errorf("expected a UUID run ID, got %q", a.RunID)
	}
	if a.RunID == b.RunID {
		t.Error("run IDs must be unique")
	}
	if time.Since(a.GeneratedAt) > time.Minute {
		t.Error("expected current timestamp")
	}
}

func TestBuilder_WithRunResult(t *testing.T) {
	s := NewBuilder().
		WithSettings(Settings{Preset: "mobile", ItemsPerChunk: 2}).
		WithRunResult(sampleRun()).
		Build()

	if s.Thread.LeafID != "42" || s.Thread.PreviewsFailed != 1 {
		t.Errorf("unexpected thread info: %+v", s.Thread)
	}
	if s.Render.Width != 1500 || s.Render.DurationMs != 1234 {
		t.Errorf("unexpected render info: %+v", s.Render)
	}
	if len(s.Outputs) != 2 || s.Outputs[1].Path != "t_2.png" || s.Outputs[1].Height != 1200 {
		t.Errorf("unexpected outputs: %+v", s.Outputs)
	}
}

func TestBuilder_InMemoryRun(t *testing.T) {
	run := sampleRun()
	run.Outputs = nil

	s := NewBuilder().WithRunResult(run).Build()

	if len(s.Outputs) != 2 || s.Outputs[0].Path != "" {
		t.Errorf("chunks without paths should still be listed: %+v", s.Outputs)
	}
}

func TestBuilder_WithOutputs(t *testing.T) {
	s := NewBuilder().WithOutputs([]string{"a.png"}, []image.Point{{10, 20}}).Build()
	if len(s.Outputs) != 1 || s.Outputs[0].Width != 10 || s.Outputs[0].Height != 20 {
		t.Errorf("unexpected outputs: %+v", s.Outputs)
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	s := NewBuilder().
		WithSettings(Settings{Preset: "mobile", ViewportWidth: 500, ViewportHeight: 400, ColorScheme: "dark", MaxHeight: 600}).
		WithRunResult(sampleRun()).
		Build()

	result := NewMarkdownFormatter().Format(s)

	checks := []string{
		"# Render Summary",
		s.RunID,
		"**Leaf Post**: 42",
		"3 / 4 (1 failed)",
		"500x400",
		"max height 600 px",
		"1500x3000",
		"3.00",
		"2.00 KB",
		"1234 ms",
		"| 2 | t_2.png | 1500x1200 |",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_MarkupOnly(t *testing.T) {
	s := &Summary{RunID: "x", GeneratedAt: time.Now()}

	result := NewMarkdownFormatter().Format(s)

	if strings.Contains(result, "## Thread") {
		t.Error("thread section should be omitted without a leaf post")
	}
	if !strings.Contains(result, "**Split**: none") {
		t.Error("expected unsplit policy")
	}
}

func TestMarkdownFormatter_WithTranslatorAndVersion(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Render Summary": "レンダリングサマリー",
			"Settings":       "設定",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator), WithVersion("v1.2.0")).Format(NewSummary())

	for _, want := range []string{"レンダリングサマリー", "## 設定", "v1.2.0"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatBytes(tt.bytes); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return "summary " + s.RunID }), fs)

	if err := w.Write("out/summary.md", &Summary{RunID: "abc"}); err != nil {
		t.Fatal(err)
	}
	data, ok := fs.GetFile("out/summary.md")
	if !ok || string(data) != "summary abc" {
		t.Errorf("unexpected file: %q", data)
	}

	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("disk full") }
	if err := w.Write("x.md", &Summary{}); err == nil {
		t.Error("expected write error")
	}
}
