package ports

import (
	"context"
	"time"
)

// PostSource looks up posts and walks reply chains.
type PostSource interface {
	// FetchThread returns the chain ending at leafID, root first, holding at
	// most limit posts counted from the leaf.
	FetchThread(ctx context.Context, leafID string, limit int) ([]Post, error)
}

// MediaFetcher downloads media bytes.
type MediaFetcher interface {
	// Fetch returns the body found at url.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Post is one item of a thread.
type Post struct {
	ID        string    `yaml:"id" json:"id"`
	ParentID  string    `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Text      string    `yaml:"text" json:"text"`
	Author    User      `yaml:"author" json:"author"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	Replies   int       `yaml:"replies" json:"replies"`
	Reposts   int       `yaml:"reposts" json:"reposts"`
	Quotes    int       `yaml:"quotes" json:"quotes"`
	Likes     int       `yaml:"likes" json:"likes"`
	Views     *int      `yaml:"views,omitempty" json:"views,omitempty"`
	Media     []Media   `yaml:"media,omitempty" json:"media,omitempty"`
	Quoted    *Post     `yaml:"quoted,omitempty" json:"quoted,omitempty"`
}

// User is the author of a post.
type User struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Username string `yaml:"username" json:"username"`
	Verified bool   `yaml:"verified" json:"verified"`
	Avatar   *Media `yaml:"avatar,omitempty" json:"avatar,omitempty"`
}

// Media is an attachment or avatar. Preview holds downloaded preview bytes.
type Media struct {
	Type       string `yaml:"type" json:"type"`
	URL        string `yaml:"url" json:"url"`
	PreviewURL string `yaml:"preview_url,omitempty" json:"preview_url,omitempty"`
	Preview    []byte `yaml:"-" json:"-"`
}

// PreviewSource returns the URL used for the inline preview.
func (m *Media) PreviewSource() string {
	if m.PreviewURL != "" {
		return m.PreviewURL
	}
	return m.URL
}

// AllMedia returns pointers to the post's attachments and those of the
// quoted post.
func (p *Post) AllMedia() []*Media {
	var out []*Media
	for i := range p.Media {
		out = append(out, &p.Media[i])
	}
	if p.Quoted != nil {
		out = append(out, p.Quoted.AllMedia()...)
	}
	return out
}

// AllPreviewMedia returns AllMedia plus author avatars.
func (p *Post) AllPreviewMedia() []*Media {
	out := p.AllMedia()
	if p.Author.Avatar != nil {
		out = append(out, p.Author.Avatar)
	}
	if p.Quoted != nil && p.Quoted.Author.Avatar != nil {
		out = append(out, p.Quoted.Author.Avatar)
	}
	return out
}
