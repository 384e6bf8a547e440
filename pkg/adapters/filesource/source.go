// Package filesource serves threads from a YAML or JSON file of posts.
package filesource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/threadshot/pkg/ports"
)

// DefaultLimit is the thread length used when the caller passes no limit.
const DefaultLimit = 20

// document is the file layout: a list of posts under "posts".
type document struct {
	Posts []ports.Post `yaml:"posts" json:"posts"`
}

// Source implements ports.PostSource over an in-memory post index.
// It is read-only after construction and safe for concurrent use.
type Source struct {
	posts map[string]ports.Post
}

// Open reads path through fs. Files ending in .json are decoded as JSON,
// anything else as YAML.
func Open(path string, fs ports.FileSystem) (*Source, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read posts file: %w", err)
	}

	var doc document
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse posts file %s: %w", path, err)
	}

	return FromPosts(doc.Posts)
}

// FromPosts indexes posts by ID. Duplicate or empty IDs are rejected.
func FromPosts(posts []ports.Post) (*Source, error) {
	index := make(map[string]ports.Post, len(posts))
	for i, p := range posts {
		if p.ID == "" {
			return nil, fmt.Errorf("post %d has no id", i)
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate post id %q", p.ID)
		}
		index[p.ID] = p
	}
	return &Source{posts: index}, nil
}

// Len returns the number of indexed posts.
func (s *Source) Len() int {
	return len(s.posts)
}

// FetchThread walks parent links up from leafID. The walk stops at the
// root, at a parent missing from the file, or after limit posts.
// Posts are returned root first as deep copies.
func (s *Source) FetchThread(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	leaf, ok := s.posts[leafID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrPostNotFound, leafID)
	}

	chain := []ports.Post{leaf}
	seen := map[string]bool{leafID: true}
	for cur := leaf; len(chain) < limit && cur.ParentID != ""; {
		if seen[cur.ParentID] {
			return nil, fmt.Errorf("reply cycle at post %s", cur.ParentID)
		}
		parent, ok := s.posts[cur.ParentID]
		if !ok {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		cur = parent
	}

	out := make([]ports.Post, len(chain))
	for i, p := range chain {
		out[len(chain)-1-i] = clonePost(p)
	}
	return out, nil
}

// clonePost copies the media slices so callers may fill previews in place.
func clonePost(p ports.Post) ports.Post {
	if p.Media != nil {
		p.Media = append([]ports.Media(nil), p.Media...)
	}
	if p.Author.Avatar != nil {
		avatar := *p.Author.Avatar
		p.Author.Avatar = &avatar
	}
	if p.Quoted != nil {
		q := clonePost(*p.Quoted)
		p.Quoted = &q
	}
	return p
}

// Ensure Source implements ports.PostSource
var _ ports.PostSource = (*Source)(nil)
