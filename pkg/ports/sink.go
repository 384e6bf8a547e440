package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveMarkup saves the generated thread markup.
	SaveMarkup(data []byte) error

	// SaveRaw saves the unsplit render.
	SaveRaw(img image.Image) error

	// SaveRectsJSON saves the normalized item rects as JSON.
	SaveRectsJSON(data []byte) error

	// SaveAnnotated saves the render with item outlines drawn on it.
	SaveAnnotated(img image.Image) error

	// SaveChunk saves one segmented image.
	SaveChunk(index int, img image.Image) error
}
