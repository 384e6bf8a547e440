package mocks

import (
	"image"
	"sync"

	"github.com/user/threadshot/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Markup    []byte
	Raw       image.Image
	RectsJSON []byte
	Annotated image.Image
	Chunks    map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Chunks:  make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveMarkup(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Markup = data
	return nil
}

func (m *DebugSink) SaveRaw(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Raw = img
	return nil
}

func (m *DebugSink) SaveRectsJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RectsJSON = data
	return nil
}

func (m *DebugSink) SaveAnnotated(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Annotated = img
	return nil
}

func (m *DebugSink) SaveChunk(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Chunks[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
