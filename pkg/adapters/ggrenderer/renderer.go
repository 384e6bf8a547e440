// Package ggrenderer implements ports.Renderer with the gg drawing library
// and x/image scaling.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/threadshot/pkg/ports"
)

// Annotation style for debug overlays.
var (
	boxColor   = color.RGBA{R: 255, G: 0, B: 80, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	labelFill  = color.RGBA{R: 255, G: 0, B: 80, A: 200}
)

const boxStroke = 2.0

// Renderer implements ports.Renderer.
type Renderer struct {
	pngEncoder png.Encoder
}

// New creates a Renderer using default PNG compression.
func New() *Renderer {
	return &Renderer{}
}

// NewWithCompression creates a Renderer encoding PNG at the given level.
func NewWithCompression(level png.CompressionLevel) *Renderer {
	return &Renderer{pngEncoder: png.Encoder{CompressionLevel: level}}
}

// DecodeImage decodes data as format; FormatAuto sniffs the header.
func (r *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	reader := bytes.NewReader(data)

	var (
		img image.Image
		err error
	)
	switch format {
	case ports.FormatJPEG:
		img, err = jpeg.Decode(reader)
	case ports.FormatPNG:
		img, err = png.Decode(reader)
	default:
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeImage encodes img. quality applies to JPEG only.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatPNG, ports.FormatAuto:
		if err := r.pngEncoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage scales img to width x height with Catmull-Rom resampling.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Annotate outlines each box on a copy of img and tags it with its index.
func (r *Renderer) Annotate(img image.Image, boxes []image.Rectangle) image.Image {
	dc := gg.NewContextForImage(img)
	origin := img.Bounds().Min

	dc.SetLineWidth(boxStroke)
	for i, box := range boxes {
		box = box.Sub(origin)
		x, y := float64(box.Min.X), float64(box.Min.Y)
		w, h := float64(box.Dx()), float64(box.Dy())

		dc.SetColor(boxColor)
		dc.DrawRectangle(x+boxStroke/2, y+boxStroke/2, w-boxStroke, h-boxStroke)
		dc.Stroke()

		label := strconv.Itoa(i)
		lw, lh := dc.MeasureString(label)
		dc.SetColor(labelFill)
		dc.DrawRectangle(x, y, lw+8, lh+8)
		dc.Fill()
		dc.SetColor(labelColor)
		dc.DrawStringAnchored(label, x+4, y+4, 0, 1)
	}

	return dc.Image()
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
