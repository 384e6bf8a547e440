// Package segment implements the image segmentation stage.
package segment

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// Stage splits a render into item-aligned chunks.
// This is a pure function with no external dependencies besides the
// optional resize.
type Stage struct {
	renderer    ports.Renderer
	logger      ports.Logger
	outputScale float64
}

// NewStage creates a new segment stage. outputScale resizes every chunk
// when it is positive and not 1.
func NewStage(renderer ports.Renderer, logger ports.Logger, outputScale float64) *Stage {
	return &Stage{
		renderer:    renderer,
		logger:      logger.WithComponent("segment"),
		outputScale: outputScale,
	}
}

// Execute cuts input.Result according to input.Policy.
func (s *Stage) Execute(ctx context.Context, input pipeline.SegmentInput) (pipeline.SegmentResult, error) {
	images, err := Split(input.Result, input.Policy)
	if err != nil {
		return pipeline.SegmentResult{}, err
	}
	s.logger.Debug("Split %d items into %d images", len(input.Result.Rects), len(images))

	if s.outputScale > 0 && s.outputScale != 1 {
		for i, img := range images {
			b := img.Bounds()
			w := int(float64(b.Dx()) * s.outputScale)
			h := int(float64(b.Dy()) * s.outputScale)
			if w < 1 || h < 1 {
				continue
			}
			images[i] = s.renderer.ResizeImage(img, w, h)
		}
	}

	return pipeline.SegmentResult{Images: images}, nil
}

// Split applies policy to a render result.
func Split(result pipeline.RenderResult, policy pipeline.SplitPolicy) ([]image.Image, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	maxHeight, ok := MaxChunkHeight(result.Rects, policy, result.Scale)
	if !ok {
		return []image.Image{result.Image}, nil
	}
	return Segment(result.Image, result.Rects, maxHeight), nil
}

// MaxChunkHeight computes the chunk height bound in raster pixels.
// The count policy uses the floored average item height times the count.
// The height policy scales CSS pixels by scale. ok is false when no
// policy is set.
func MaxChunkHeight(rects []pipeline.BoundingRect, policy pipeline.SplitPolicy, scale float64) (int, bool) {
	switch {
	case policy.ItemsPerChunk > 0:
		if len(rects) == 0 {
			return 0, false
		}
		total := 0
		for _, r := range rects {
			total += r.Height
		}
		return total / len(rects) * policy.ItemsPerChunk, true
	case policy.MaxHeight > 0:
		if scale <= 0 {
			scale = 1
		}
		return int(float64(policy.MaxHeight) * scale), true
	default:
		return 0, false
	}
}

// Segment splits img into chunks of consecutive rects whose span from the
// first top to the last bottom stays within maxChunkHeight. A single item
// taller than the bound forms its own chunk. Chunks span the full width.
func Segment(img image.Image, rects []pipeline.BoundingRect, maxChunkHeight int) []image.Image {
	if len(rects) < 2 {
		return []image.Image{img}
	}

	var chunks []image.Image
	first, last := rects[0], rects[0]
	for _, r := range rects[1:] {
		if r.Bottom-first.Top > maxChunkHeight {
			chunks = append(chunks, crop(img, first.Top, last.Bottom))
			first = r
		}
		last = r
	}
	chunks = append(chunks, crop(img, first.Top, last.Bottom))
	return chunks
}

// crop copies the rows [top, bottom) of img, clamped to its bounds.
func crop(img image.Image, top, bottom int) image.Image {
	b := img.Bounds()
	area := image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+bottom).Intersect(b)
	dst := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	draw.Draw(dst, dst.Bounds(), img, area.Min, draw.Src)
	return dst
}
