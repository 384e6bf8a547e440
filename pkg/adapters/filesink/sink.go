// Package filesink writes debug artifacts of a render into a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/threadshot/pkg/ports"
)

// Artifact names inside the debug directory.
const (
	MarkupFile    = "markup.html"
	RawFile       = "raw.png"
	RectsFile     = "rects.json"
	AnnotatedFile = "annotated.png"
	ChunksDir     = "chunks"
)

// Sink saves debug output below baseDir.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a Sink. Images are encoded as PNG with renderer.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveMarkup writes markup.html.
func (s *Sink) SaveMarkup(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, MarkupFile), data)
}

// SaveRaw writes the unsplit render to raw.png.
func (s *Sink) SaveRaw(img image.Image) error {
	return s.saveImage(filepath.Join(s.baseDir, RawFile), img)
}

// SaveRectsJSON writes rects.json.
func (s *Sink) SaveRectsJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, RectsFile), data)
}

// SaveAnnotated writes annotated.png.
func (s *Sink) SaveAnnotated(img image.Image) error {
	return s.saveImage(filepath.Join(s.baseDir, AnnotatedFile), img)
}

// SaveChunk writes chunks/chunk-NN.png.
func (s *Sink) SaveChunk(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, ChunksDir)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.saveImage(filepath.Join(dir, fmt.Sprintf("chunk-%02d.png", index)), img)
}

func (s *Sink) saveImage(path string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
