// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

var (
	// ErrNoInput is returned when a Config names neither a thread nor markup.
	ErrNoInput = errors.New("no thread id or markup given")

	// ErrNoSource is returned when a thread is requested without a post source.
	ErrNoSource = errors.New("no post source configured")
)

// Config describes one run.
type Config struct {
	// Input: a thread leaf looked up in the post source, or ready markup.
	LeafID string
	Limit  int
	Markup string

	// Markup generation
	IsSingle            bool
	ShowConnectorOnLast bool
	SkipMedia           bool // do not download previews

	// Rendering
	Render pipeline.RenderConfig // overrides on top of the render stage defaults
	Policy pipeline.SplitPolicy

	// Output; empty keeps the images in memory only
	OutputPath string
}

// Orchestrator runs thread -> prefetch -> markup -> render -> segment.
type Orchestrator struct {
	source        ports.PostSource
	prefetchStage pipeline.Stage[pipeline.PrefetchInput, pipeline.PrefetchResult]
	markupStage   pipeline.Stage[pipeline.MarkupInput, pipeline.MarkupResult]
	renderStage   pipeline.Stage[pipeline.RenderInput, pipeline.RenderResult]
	segmentStage  pipeline.Stage[pipeline.SegmentInput, pipeline.SegmentResult]
	renderer      ports.Renderer
	fs            ports.FileSystem
	sink          ports.DebugSink
	logger        ports.Logger
}

// New creates a new Orchestrator.
func New(
	source ports.PostSource,
	prefetchStage pipeline.Stage[pipeline.PrefetchInput, pipeline.PrefetchResult],
	markupStage pipeline.Stage[pipeline.MarkupInput, pipeline.MarkupResult],
	renderStage pipeline.Stage[pipeline.RenderInput, pipeline.RenderResult],
	segmentStage pipeline.Stage[pipeline.SegmentInput, pipeline.SegmentResult],
	renderer ports.Renderer,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:        source,
		prefetchStage: prefetchStage,
		markupStage:   markupStage,
		renderStage:   renderStage,
		segmentStage:  segmentStage,
		renderer:      renderer,
		fs:            fs,
		sink:          sink,
		logger:        logger,
	}
}

// Output is everything a run produced before anything is written.
type Output struct {
	Posts    []ports.Post
	Prefetch pipeline.PrefetchResult
	Markup   string
	Render   pipeline.RenderResult
	Images   []image.Image
}

// Fetch returns the thread ending at leafID, root first.
func (o *Orchestrator) Fetch(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
	if leafID == "" {
		return nil, ErrNoInput
	}
	if o.source == nil {
		return nil, ErrNoSource
	}

	posts, err := o.source.FetchThread(ctx, leafID, limit)
	if err != nil {
		o.logger.Error("Failed to fetch thread: %s", err)
		return nil, fmt.Errorf("fetch thread: %w", err)
	}
	o.logger.Info("Fetched %d posts ending at %s", len(posts), leafID)
	return posts, nil
}

// Prepare fetches the thread, downloads previews and generates markup.
// Ready markup in config is passed through untouched.
func (o *Orchestrator) Prepare(ctx context.Context, config Config) (Output, error) {
	var out Output

	markup := config.Markup
	if markup == "" {
		posts, err := o.Fetch(ctx, config.LeafID, config.Limit)
		if err != nil {
			return out, err
		}
		out.Posts = posts

		if !config.SkipMedia {
			out.Prefetch, err = o.prefetchStage.Execute(ctx, pipeline.PrefetchInput{Posts: posts})
			if err != nil {
				return out, fmt.Errorf("prefetch stage: %w", err)
			}
			if out.Prefetch.Failed > 0 {
				o.logger.Warn("%d of %d previews could not be downloaded", out.Prefetch.Failed, out.Prefetch.Requested)
			}
		}

		m, err := o.markupStage.Execute(ctx, pipeline.MarkupInput{
			Posts:               posts,
			IsSingle:            config.IsSingle,
			ShowConnectorOnLast: config.ShowConnectorOnLast,
		})
		if err != nil {
			return out, fmt.Errorf("markup stage: %w", err)
		}
		markup = m.HTML
	}
	out.Markup = markup
	return out, nil
}

// Produce runs the stages and keeps the results in memory.
func (o *Orchestrator) Produce(ctx context.Context, config Config) (Output, error) {
	out, err := o.Prepare(ctx, config)
	if err != nil {
		return out, err
	}
	markup := out.Markup

	if o.sink.Enabled() {
		if err := o.sink.SaveMarkup([]byte(markup)); err != nil {
			o.logger.Warn("Failed to save debug output: %s", err)
		}
	}

	o.logger.Info("Rendering markup")
	start := time.Now()
	rendered, err := o.renderStage.Execute(ctx, pipeline.RenderInput{Markup: markup, Config: config.Render})
	if err != nil {
		o.logger.Error("Failed to render: %s", err)
		return out, fmt.Errorf("render stage: %w", err)
	}
	out.Render = rendered
	b := rendered.Image.Bounds()
	o.logger.Info("Rendered %dx%d with %d items in %d ms", b.Dx(), b.Dy(), len(rendered.Rects), time.Since(start).Milliseconds())

	o.saveRenderDebug(rendered)

	segmented, err := o.segmentStage.Execute(ctx, pipeline.SegmentInput{Result: rendered, Policy: config.Policy})
	if err != nil {
		return out, fmt.Errorf("segment stage: %w", err)
	}
	out.Images = segmented.Images

	if o.sink.Enabled() {
		for i, img := range out.Images {
			if err := o.sink.SaveChunk(i, img); err != nil {
				o.logger.Warn("Failed to save debug output: %s", err)
			}
		}
	}

	return out, nil
}

// Run produces the images and writes them next to config.OutputPath.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.logger.Info("Starting pipeline")
	start := time.Now()

	out, err := o.Produce(ctx, config)
	if err != nil {
		return RunResult{}, err
	}

	var paths []string
	if config.OutputPath != "" {
		paths = OutputPaths(config.OutputPath, len(out.Images))
		for i, img := range out.Images {
			data, err := o.renderer.EncodeImage(img, ports.FormatPNG, 0)
			if err != nil {
				return RunResult{}, fmt.Errorf("encode image %d: %w", i+1, err)
			}
			if err := o.fs.WriteFile(paths[i], data); err != nil {
				o.logger.Error("Failed to write output: %s", err)
				return RunResult{}, fmt.Errorf("write output: %w", err)
			}
			o.logger.Info("Output saved to %s", paths[i])
		}
	}

	o.logger.Info("Pipeline completed successfully")
	return newRunResult(config, out, paths, time.Since(start)), nil
}

func (o *Orchestrator) saveRenderDebug(rendered pipeline.RenderResult) {
	if !o.sink.Enabled() {
		return
	}
	if err := o.sink.SaveRaw(rendered.Image); err != nil {
		o.logger.Warn("Failed to save debug output: %s", err)
	}
	if data, err := json.MarshalIndent(rendered.Rects, "", "  "); err == nil {
		if err := o.sink.SaveRectsJSON(data); err != nil {
			o.logger.Warn("Failed to save debug output: %s", err)
		}
	}
	boxes := make([]image.Rectangle, len(rendered.Rects))
	for i, r := range rendered.Rects {
		boxes[i] = r.Rectangle()
	}
	if err := o.sink.SaveAnnotated(o.renderer.Annotate(rendered.Image, boxes)); err != nil {
		o.logger.Warn("Failed to save debug output: %s", err)
	}
}

// OutputPaths names n output files after path: the path itself for a single
// image, otherwise stem_1.ext, stem_2.ext and so on.
func OutputPaths(path string, n int) []string {
	if n == 1 {
		return []string{path}
	}
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".png"
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s_%d%s", stem, i+1, ext)
	}
	return paths
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	LeafID    string
	PostCount int

	PreviewsRequested  int
	PreviewsDownloaded int
	PreviewsFailed     int

	MarkupBytes int

	ImageWidth  int
	ImageHeight int
	Scale       float64
	ItemCount   int

	Chunks  []image.Point // chunk sizes in order
	Outputs []string

	TotalDuration time.Duration
}

func newRunResult(config Config, out Output, paths []string, elapsed time.Duration) RunResult {
	b := out.Render.Image.Bounds()
	r := RunResult{
		LeafID:             config.LeafID,
		PostCount:          len(out.Posts),
		PreviewsRequested:  out.Prefetch.Requested,
		PreviewsDownloaded: out.Prefetch.Downloaded,
		PreviewsFailed:     out.Prefetch.Failed,
		MarkupBytes:        len(out.Markup),
		ImageWidth:         b.Dx(),
		ImageHeight:        b.Dy(),
		Scale:              out.Render.Scale,
		ItemCount:          len(out.Render.Rects),
		Outputs:            paths,
		TotalDuration:      elapsed,
	}
	for _, img := range out.Images {
		r.Chunks = append(r.Chunks, img.Bounds().Size())
	}
	return r
}
