package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/threadshot/pkg/mocks"
	"github.com/user/threadshot/pkg/ports"
)

func newTestSink() (*Sink, *mocks.FileSystem) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return []byte("png"), nil
		},
	}
	return New("/debug", fs, renderer), fs
}

func TestSink_Enabled(t *testing.T) {
	sink, _ := newTestSink()
	if !sink.Enabled() {
		t.Error("expected file sink to be enabled")
	}
}

func TestSink_Artifacts(t *testing.T) {
	sink, fs := newTestSink()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	if err := sink.SaveMarkup([]byte("<html></html>")); err != nil {
		t.Fatal(err)
	}
	if err := sink.SaveRaw(img); err != nil {
		t.Fatal(err)
	}
	if err := sink.SaveRectsJSON([]byte("[]")); err != nil {
		t.Fatal(err)
	}
	if err := sink.SaveAnnotated(img); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		want string
	}{
		{filepath.Join("/debug", MarkupFile), "<html></html>"},
		{filepath.Join("/debug", RawFile), "png"},
		{filepath.Join("/debug", RectsFile), "[]"},
		{filepath.Join("/debug", AnnotatedFile), "png"},
	}
	for _, tt := range tests {
		data, ok := fs.GetFile(tt.path)
		if !ok {
			t.Errorf("expected %s to be written", tt.path)
			continue
		}
		if string(data) != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.want, data)
		}
	}
}

func TestSink_SaveChunks(t *testing.T) {
	sink, fs := newTestSink()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	for i := 0; i < 3; i++ {
		if err := sink.SaveChunk(i, img); err != nil {
			t.Fatalf("chunk %d: %v", i, err)
		}
	}

	if !fs.HasDir(filepath.Join("/debug", ChunksDir)) {
		t.Error("expected chunks directory to be created")
	}
	for _, name := range []string{"chunk-00.png", "chunk-01.png", "chunk-02.png"} {
		if _, ok := fs.GetFile(filepath.Join("/debug", ChunksDir, name)); !ok {
			t.Errorf("expected %s", name)
		}
	}
}

func TestSink_EncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	encodeErr := errors.New("boom")
	sink := New("/debug", fs, &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, encodeErr
		},
	})

	err := sink.SaveRaw(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, encodeErr) {
		t.Errorf("expected wrapped encode error, got %v", err)
	}
	if fs.FileCount() != 0 {
		t.Error("nothing should be written on encode failure")
	}
}
