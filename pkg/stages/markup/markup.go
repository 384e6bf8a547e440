// Package markup turns a thread of posts into a self-contained HTML document.
package markup

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// Class names the render stage looks for.
const (
	ContainerClass = "thread-container"
	ItemClass      = "thread-item"
)

// ErrNoPosts is returned when there is nothing to render.
var ErrNoPosts = errors.New("no posts to render")

// Options controls the document layout.
type Options struct {
	IsSingle            bool // render only the first post, without connectors
	ShowConnectorOnLast bool // draw the thread line below the last post
}

var tmpl = template.Must(template.New("thread").Funcs(template.FuncMap{
	"previewURI": previewURI,
	"count":      formatCount,
	"timestamp":  formatTimestamp,
	"initial":    initial,
}).Parse(threadTemplate))

type itemView struct {
	Post        ports.Post
	Media       []*ports.Media
	QuotedMedia []*ports.Media
	Connector   bool
}

type pageView struct {
	Single bool
	Items  []itemView
}

// Generate renders posts into a document. Previews with downloaded bytes
// are inlined as data URIs; others fall back to their remote URL.
func Generate(posts []ports.Post, opts Options) (string, error) {
	if len(posts) == 0 {
		return "", ErrNoPosts
	}
	if opts.IsSingle {
		posts = posts[:1]
	}

	view := pageView{Single: opts.IsSingle}
	for i := range posts {
		p := &posts[i]
		item := itemView{
			Post:      *p,
			Connector: !opts.IsSingle && (i < len(posts)-1 || opts.ShowConnectorOnLast),
		}
		for j := range p.Media {
			item.Media = append(item.Media, &p.Media[j])
		}
		if p.Quoted != nil {
			item.QuotedMedia = p.Quoted.AllMedia()
		}
		view.Items = append(view.Items, item)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Stage wraps Generate as a pipeline stage.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a markup stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger.WithComponent("markup")}
}

// Execute generates markup for input.Posts.
func (s *Stage) Execute(ctx context.Context, input pipeline.MarkupInput) (pipeline.MarkupResult, error) {
	html, err := Generate(input.Posts, Options{
		IsSingle:            input.IsSingle,
		ShowConnectorOnLast: input.ShowConnectorOnLast,
	})
	if err != nil {
		return pipeline.MarkupResult{}, err
	}
	s.logger.Debug("Generated markup for %d posts (%d bytes)", len(input.Posts), len(html))
	return pipeline.MarkupResult{HTML: html}, nil
}

// previewURI returns a data URI for downloaded bytes, or the remote preview.
func previewURI(m *ports.Media) template.URL {
	if m == nil {
		return ""
	}
	if len(m.Preview) > 0 {
		mime := http.DetectContentType(m.Preview)
		return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(m.Preview))
	}
	src := m.PreviewSource()
	if strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://") {
		return template.URL(src)
	}
	return ""
}

// formatCount abbreviates engagement numbers: 999, 1.2K, 3.4M.
func formatCount(n int) string {
	switch {
	case n < 1000:
		return strconv.Itoa(n)
	case n < 1_000_000:
		return trimZero(float64(n)/1000) + "K"
	default:
		return trimZero(float64(n)/1_000_000) + "M"
	}
}

func trimZero(v float64) string {
	s := strconv.FormatFloat(float64(int(v*10))/10, 'f', 1, 64)
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("3:04 PM · Jan 2, 2006")
}

func initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "?"
}
