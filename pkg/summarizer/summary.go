package summarizer

import (
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/user/threadshot/pkg/orchestrator"
)

// Summary describes one render run.
type Summary struct {
	RunID       string
	GeneratedAt time.Time

	Thread   ThreadInfo
	Settings Settings
	Render   RenderInfo
	Outputs  []OutputInfo
}

// ThreadInfo describes the rendered thread.
type ThreadInfo struct {
	LeafID             string
	PostCount          int
	PreviewsRequested  int
	PreviewsDownloaded int
	PreviewsFailed     int
}

// Settings is the configuration the run used.
type Settings struct {
	Preset         string
	ViewportWidth  int
	ViewportHeight int
	ColorScheme    string
	ItemsPerChunk  int
	MaxHeight      int
}

// RenderInfo describes the raw render.
type RenderInfo struct {
	Width       int
	Height      int
	Scale       float64
	ItemCount   int
	MarkupBytes int
	DurationMs  int64
}

// OutputInfo is one written image.
type OutputInfo struct {
	Path   string
	Width  int
	Height int
}

// NewSummary creates a Summary with a fresh run ID and the current time.
func NewSummary() *Summary {
	return &Summary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{summary: NewSummary()}
}

// WithSettings sets the run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithRunResult copies the thread, render and output details of a run.
func (b *Builder) WithRunResult(r orchestrator.RunResult) *Builder {
	b.summary.Thread = ThreadInfo{
		LeafID:             r.LeafID,
		PostCount:          r.PostCount,
		PreviewsRequested:  r.PreviewsRequested,
		PreviewsDownloaded: r.PreviewsDownloaded,
		PreviewsFailed:     r.PreviewsFailed,
	}
	b.summary.Render = RenderInfo{
		Width:       r.ImageWidth,
		Height:      r.ImageHeight,
		Scale:       r.Scale,
		ItemCount:   r.ItemCount,
		MarkupBytes: r.MarkupBytes,
		DurationMs:  r.TotalDuration.Milliseconds(),
	}
	b.summary.Outputs = nil
	for i, size := range r.Chunks {
		out := OutputInfo{Width: size.X, Height: size.Y}
		if i < len(r.Outputs) {
			out.Path = r.Outputs[i]
		}
		b.summary.Outputs = append(b.summary.Outputs, out)
	}
	return b
}

// WithOutputs sets the output list directly.
func (b *Builder) WithOutputs(paths []string, sizes []image.Point) *Builder {
	b.summary.Outputs = nil
	for i, p := range paths {
		out := OutputInfo{Path: p}
		if i < len(sizes) {
			out.Width, out.Height = sizes[i].X, sizes[i].Y
		}
		b.summary.Outputs = append(b.summary.Outputs, out)
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
