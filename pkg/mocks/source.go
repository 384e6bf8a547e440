package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/user/threadshot/pkg/ports"
)

// PostSource is a mock implementation of ports.PostSource.
type PostSource struct {
	FetchThreadFunc func(ctx context.Context, leafID string, limit int) ([]ports.Post, error)
}

func (m *PostSource) FetchThread(ctx context.Context, leafID string, limit int) ([]ports.Post, error) {
	if m.FetchThreadFunc != nil {
		return m.FetchThreadFunc(ctx, leafID, limit)
	}
	return nil, nil
}

var _ ports.PostSource = (*PostSource)(nil)

// MediaFetcher is a mock implementation of ports.MediaFetcher.
// Without FetchFunc it serves Bodies and records every requested URL.
type MediaFetcher struct {
	FetchFunc func(ctx context.Context, url string) ([]byte, error)
	Bodies    map[string][]byte

	mu    sync.Mutex
	calls []string
}

func (m *MediaFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}
	if body, ok := m.Bodies[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("not found: %s", url)
}

// Calls returns the requested URLs in call order.
func (m *MediaFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ ports.MediaFetcher = (*MediaFetcher)(nil)
