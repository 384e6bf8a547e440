// Package prefetch downloads media previews so markup can inline them.
package prefetch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// DefaultConcurrency bounds parallel downloads.
const DefaultConcurrency = 5

// Options tunes a Stage.
type Options struct {
	Concurrency int        // parallel downloads, DefaultConcurrency when <= 0
	Rate        rate.Limit // requests per second, unlimited when <= 0
	Burst       int
}

// Stage fills Media.Preview for every preview lacking bytes.
// Each distinct URL is fetched once and shared by every media using it.
// A failed download leaves the media empty and is counted, not returned.
type Stage struct {
	fetcher ports.MediaFetcher
	logger  ports.Logger
	opts    Options
	limiter *rate.Limiter
}

// NewStage creates a prefetch stage.
func NewStage(fetcher ports.MediaFetcher, logger ports.Logger, opts Options) *Stage {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.Rate, burst)
	}
	return &Stage{
		fetcher: fetcher,
		logger:  logger.WithComponent("prefetch"),
		opts:    opts,
		limiter: limiter,
	}
}

// Execute downloads previews for input.Posts in place.
// Only cancellation of ctx is reported as an error.
func (s *Stage) Execute(ctx context.Context, input pipeline.PrefetchInput) (pipeline.PrefetchResult, error) {
	byURL := collect(input.Posts)
	result := pipeline.PrefetchResult{Requested: len(byURL)}
	if len(byURL) == 0 {
		return result, nil
	}
	s.logger.Debug("Downloading %d previews with %d workers", len(byURL), s.opts.Concurrency)

	var downloaded, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for url, medias := range byURL {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			body, err := s.fetcher.Fetch(gctx, url)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				s.logger.Warn("Failed to download preview %s: %s", url, err)
				return nil
			}
			for _, m := range medias {
				m.Preview = body
			}
			downloaded.Add(1)
			return nil
		})
	}

	err := g.Wait()
	result.Downloaded = int(downloaded.Load())
	result.Failed = int(failed.Load())
	if err != nil {
		return result, err
	}
	s.logger.Debug("Downloaded %d previews, %d failed", result.Downloaded, result.Failed)
	return result, nil
}

// collect groups the empty preview media of posts by preview URL.
// The returned pointers alias the posts' backing arrays.
func collect(posts []ports.Post) map[string][]*ports.Media {
	byURL := make(map[string][]*ports.Media)
	for i := range posts {
		for _, m := range posts[i].AllPreviewMedia() {
			if len(m.Preview) > 0 {
				continue
			}
			url := m.PreviewSource()
			if url == "" {
				continue
			}
			byURL[url] = append(byURL[url], m)
		}
	}
	return byURL
}
