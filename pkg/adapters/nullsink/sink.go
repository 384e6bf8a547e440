// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/threadshot/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip building debug artifacts.
func (s *Sink) Enabled() bool {
	return false
}

// SaveMarkup does nothing.
func (s *Sink) SaveMarkup(data []byte) error {
	return nil
}

// SaveRaw does nothing.
func (s *Sink) SaveRaw(img image.Image) error {
	return nil
}

// SaveRectsJSON does nothing.
func (s *Sink) SaveRectsJSON(data []byte) error {
	return nil
}

// SaveAnnotated does nothing.
func (s *Sink) SaveAnnotated(img image.Image) error {
	return nil
}

// SaveChunk does nothing.
func (s *Sink) SaveChunk(index int, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
