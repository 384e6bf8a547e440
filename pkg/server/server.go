// Package server exposes the render service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/time/rate"

	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/orchestrator"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
)

// Defaults for Options fields left zero.
const (
	DefaultAddr         = ":8000"
	DefaultMaxBodyBytes = 5 << 20
	DefaultThreadLimit  = 20
	shutdownTimeout     = 30 * time.Second
)

// Service is the render surface the handlers call.
type Service interface {
	Render(ctx context.Context, markup string, cfg pipeline.RenderConfig) (pipeline.RenderResult, error)
	Segment(ctx context.Context, result pipeline.RenderResult, policy pipeline.SplitPolicy) ([]image.Image, error)
	Markup(ctx context.Context, cfg orchestrator.Config) (orchestrator.Output, error)
	RenderThread(ctx context.Context, cfg orchestrator.Config) (orchestrator.Output, error)
	Thread(ctx context.Context, leafID string, limit int) ([]ports.Post, error)
	Stats() enginepool.Stats
}

// Options configures a Server.
type Options struct {
	Addr         string
	MaxBodyBytes int64
	Rate         rate.Limit // render requests per second, unlimited when zero
	Burst        int
}

// Server serves the HTTP API.
type Server struct {
	svc      Service
	renderer ports.Renderer
	opts     Options
	log      *slog.Logger
	limiter  *rate.Limiter
	router   *gin.Engine
}

// New builds the router. Nothing listens until Run.
func New(svc Service, renderer ports.Renderer, opts Options, log *slog.Logger) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{svc: svc, renderer: renderer, opts: opts, log: log}
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(opts.Rate, burst)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), s.accessLog())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", requestIDHeader}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", s.handleHealth)

	render := router.Group("/", s.rateLimit())
	render.POST("/render", s.handleRender)
	render.GET("/threads/:id/json", s.handleThreadJSON)
	render.GET("/threads/:id/html", s.handleThreadHTML)
	render.GET("/threads/:id/imgs", s.handleThreadImages)
	render.GET("/threads/:id/raw-img", s.handleThreadRaw)

	s.router = router
	return s
}

// Handler returns the router wrapped with response compression.
func (s *Server) Handler() http.Handler {
	return gzhttp.GzipHandler(s.router)
}

// Run listens on the configured address until ctx is done, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "address", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
