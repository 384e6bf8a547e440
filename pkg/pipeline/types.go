package pipeline

import (
	"fmt"
	"image"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/user/threadshot/pkg/ports"
)

// =============================================================================
// Render configuration
// =============================================================================

// RenderConfig is a set of optional render parameters. A nil field is unset.
// Values are never mutated in place; Merge and Resolve return copies.
type RenderConfig struct {
	ViewportWidth     *int     `yaml:"viewport_width,omitempty" json:"viewport_width,omitempty" validate:"omitempty,min=1,max=2000"`
	ViewportHeight    *int     `yaml:"viewport_height,omitempty" json:"viewport_height,omitempty" validate:"omitempty,min=1,max=2000"`
	ScreenWidth       *int     `yaml:"screen_width,omitempty" json:"screen_width,omitempty" validate:"omitempty,min=1,max=2000"`
	ScreenHeight      *int     `yaml:"screen_height,omitempty" json:"screen_height,omitempty" validate:"omitempty,min=1,max=2000"`
	DeviceScaleFactor *float64 `yaml:"device_scale_factor,omitempty" json:"device_scale_factor,omitempty" validate:"omitempty,min=0.1,max=5"`
	IsMobile          *bool    `yaml:"is_mobile,omitempty" json:"is_mobile,omitempty"`
	HasTouch          *bool    `yaml:"has_touch,omitempty" json:"has_touch,omitempty"`
	ColorScheme       *string  `yaml:"color_scheme,omitempty" json:"color_scheme,omitempty" validate:"omitempty,oneof=dark light no-preference null"`
	Contrast          *string  `yaml:"contrast,omitempty" json:"contrast,omitempty" validate:"omitempty,oneof=more no-preference null"`
	ForcedColors      *string  `yaml:"forced_colors,omitempty" json:"forced_colors,omitempty" validate:"omitempty,oneof=active none null"`
	Locale            *string  `yaml:"locale,omitempty" json:"locale,omitempty"`
	TimezoneID        *string  `yaml:"timezone_id,omitempty" json:"timezone_id,omitempty"`
}

// mediaUnset is the media feature value meaning "do not emulate".
const mediaUnset = "null"

var validate = validator.New()

// Merge returns c with every non-nil field of override applied on top.
func (c RenderConfig) Merge(override RenderConfig) RenderConfig {
	out := c
	if override.ViewportWidth != nil {
		out.ViewportWidth = override.ViewportWidth
	}
	if override.ViewportHeight != nil {
		out.ViewportHeight = override.ViewportHeight
	}
	if override.ScreenWidth != nil {
		out.ScreenWidth = override.ScreenWidth
	}
	if override.ScreenHeight != nil {
		out.ScreenHeight = override.ScreenHeight
	}
	if override.DeviceScaleFactor != nil {
		out.DeviceScaleFactor = override.DeviceScaleFactor
	}
	if override.IsMobile != nil {
		out.IsMobile = override.IsMobile
	}
	if override.HasTouch != nil {
		out.HasTouch = override.HasTouch
	}
	if override.ColorScheme != nil {
		out.ColorScheme = override.ColorScheme
	}
	if override.Contrast != nil {
		out.Contrast = override.Contrast
	}
	if override.ForcedColors != nil {
		out.ForcedColors = override.ForcedColors
	}
	if override.Locale != nil {
		out.Locale = override.Locale
	}
	if override.TimezoneID != nil {
		out.TimezoneID = override.TimezoneID
	}
	return out
}

// Resolve drops the mobile-only fields unless mobile emulation is on.
// Chrome rejects touch or a scale factor paired with a desktop profile,
// so they are omitted rather than set to neutral values.
func (c RenderConfig) Resolve() RenderConfig {
	out := c
	if out.IsMobile == nil || !*out.IsMobile {
		out.IsMobile = nil
		out.HasTouch = nil
		out.DeviceScaleFactor = nil
	}
	return out
}

// Scale returns the effective device scale factor of the resolved config.
func (c RenderConfig) Scale() float64 {
	r := c.Resolve()
	if r.DeviceScaleFactor == nil {
		return 1.0
	}
	return *r.DeviceScaleFactor
}

// Validate checks field ranges.
func (c RenderConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrInvalidConfig, err)
	}
	return nil
}

// PageOptions converts the resolved config into engine page options.
func (c RenderConfig) PageOptions() ports.PageOptions {
	r := c.Resolve()
	opts := ports.PageOptions{
		ViewportWidth:  derefInt(r.ViewportWidth),
		ViewportHeight: derefInt(r.ViewportHeight),
		ScreenWidth:    derefInt(r.ScreenWidth),
		ScreenHeight:   derefInt(r.ScreenHeight),
		ColorScheme:    mediaValue(r.ColorScheme),
		Contrast:       mediaValue(r.Contrast),
		ForcedColors:   mediaValue(r.ForcedColors),
		Locale:         derefString(r.Locale),
		TimezoneID:     derefString(r.TimezoneID),
	}
	if r.IsMobile != nil {
		opts.IsMobile = *r.IsMobile
	}
	if r.HasTouch != nil {
		opts.HasTouch = *r.HasTouch
	}
	if r.DeviceScaleFactor != nil {
		opts.DeviceScaleFactor = *r.DeviceScaleFactor
	}
	return opts
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func mediaValue(v *string) string {
	if v == nil || *v == mediaUnset {
		return ""
	}
	return *v
}

// Int returns a pointer to v, for building RenderConfig literals.
func Int(v int) *int { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// =============================================================================
// Render geometry
// =============================================================================

// BoundingRect is an item box in output raster pixels.
type BoundingRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Rectangle returns the rect as an image.Rectangle.
func (r BoundingRect) Rectangle() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// NormalizeRects converts CSS pixel boxes into raster pixel boxes by
// multiplying with scale and flooring. It is the only place scaling happens.
func NormalizeRects(raw []ports.RawRect, scale float64) []BoundingRect {
	rects := make([]BoundingRect, len(raw))
	for i, r := range raw {
		x := int(math.Floor(r.X * scale))
		y := int(math.Floor(r.Y * scale))
		w := int(math.Floor(r.Width * scale))
		h := int(math.Floor(r.Height * scale))
		rects[i] = BoundingRect{
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
			Top:    y,
			Left:   x,
			Right:  int(math.Floor((r.X + r.Width) * scale)),
			Bottom: int(math.Floor((r.Y + r.Height) * scale)),
		}
	}
	return rects
}

// =============================================================================
// Render Stage Types
// =============================================================================

// RenderInput is one markup document to rasterize.
type RenderInput struct {
	Markup string
	Config RenderConfig // overrides applied on top of the process defaults
}

// RenderResult is a rendered document with its item geometry.
type RenderResult struct {
	Image image.Image
	Rects []BoundingRect
	Scale float64
}

// =============================================================================
// Segment Stage Types
// =============================================================================

// SplitPolicy selects how a render is cut into chunks. At most one field
// may be set; with neither the image is returned whole.
type SplitPolicy struct {
	ItemsPerChunk int `json:"items_per_chunk,omitempty" validate:"omitempty,min=1,max=10"`
	MaxHeight     int `json:"max_height,omitempty" validate:"omitempty,min=1,max=10000"` // CSS pixels
}

// Validate checks ranges and that at most one policy is chosen.
func (p SplitPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrInvalidConfig, err)
	}
	if p.ItemsPerChunk > 0 && p.MaxHeight > 0 {
		return fmt.Errorf("%w: items per chunk and max height are mutually exclusive", ports.ErrInvalidConfig)
	}
	return nil
}

// SegmentInput is a render to cut with a policy.
type SegmentInput struct {
	Result RenderResult
	Policy SplitPolicy
}

// SegmentResult holds the chunks in document order.
type SegmentResult struct {
	Images []image.Image
}

// =============================================================================
// Thread Stage Types
// =============================================================================

// ThreadInput selects a thread from a post source.
type ThreadInput struct {
	LeafID string
	Limit  int
}

// MarkupInput is a thread to turn into markup.
type MarkupInput struct {
	Posts               []ports.Post
	IsSingle            bool // render only the first post without thread connectors
	ShowConnectorOnLast bool
}

// MarkupResult is a generated document.
type MarkupResult struct {
	HTML string
}

// PrefetchInput lists posts whose previews should be downloaded.
type PrefetchInput struct {
	Posts []ports.Post
}

// PrefetchResult reports download counts. Posts are filled in place.
type PrefetchResult struct {
	Requested  int
	Downloaded int
	Failed     int
}
