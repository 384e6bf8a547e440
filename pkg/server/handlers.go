package server

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/threadshot/pkg/enginepool"
	"github.com/user/threadshot/pkg/orchestrator"
	"github.com/user/threadshot/pkg/pipeline"
	"github.com/user/threadshot/pkg/ports"
	"github.com/user/threadshot/pkg/stages/markup"
)

// renderQuery holds the render overrides and split policy accepted as
// query parameters.
type renderQuery struct {
	ViewportWidth     *int     `form:"viewport_width" binding:"omitempty,min=1,max=2000"`
	ViewportHeight    *int     `form:"viewport_height" binding:"omitempty,min=1,max=2000"`
	ScreenWidth       *int     `form:"screen_width" binding:"omitempty,min=1,max=2000"`
	ScreenHeight      *int     `form:"screen_height" binding:"omitempty,min=1,max=2000"`
	DeviceScaleFactor *float64 `form:"device_scale_factor" binding:"omitempty,min=0.1,max=5"`
	IsMobile          *bool    `form:"is_mobile"`
	HasTouch          *bool    `form:"has_touch"`
	ColorScheme       *string  `form:"color_scheme" binding:"omitempty,oneof=dark light no-preference null"`
	Contrast          *string  `form:"contrast" binding:"omitempty,oneof=more no-preference null"`
	ForcedColors      *string  `form:"forced_colors" binding:"omitempty,oneof=active none null"`
	Locale            *string  `form:"locale"`
	TimezoneID        *string  `form:"timezone_id"`

	ItemsPerImage int `form:"items_per_image" binding:"omitempty,min=1,max=10"`
	MaxItemHeight int `form:"max_item_height" binding:"omitempty,min=1,max=10000"`
}

func (q renderQuery) config() pipeline.RenderConfig {
	return pipeline.RenderConfig{
		ViewportWidth:     q.ViewportWidth,
		ViewportHeight:    q.ViewportHeight,
		ScreenWidth:       q.ScreenWidth,
		ScreenHeight:      q.ScreenHeight,
		DeviceScaleFactor: q.DeviceScaleFactor,
		IsMobile:          q.IsMobile,
		HasTouch:          q.HasTouch,
		ColorScheme:       q.ColorScheme,
		Contrast:          q.Contrast,
		ForcedColors:      q.ForcedColors,
		Locale:            q.Locale,
		TimezoneID:        q.TimezoneID,
	}
}

func (q renderQuery) policy() pipeline.SplitPolicy {
	return pipeline.SplitPolicy{ItemsPerChunk: q.ItemsPerImage, MaxHeight: q.MaxItemHeight}
}

type threadQuery struct {
	renderQuery
	Limit               int   `form:"limit,default=20" binding:"min=1,max=40"`
	IncludeMedia        bool  `form:"include_media"`
	DownloadPreviews    *bool `form:"download_previews"`
	ShowConnectorOnLast bool  `form:"show_connector_on_last"`
	IsSingle            bool  `form:"is_single"`
}

func (q threadQuery) orchestratorConfig(leafID string) orchestrator.Config {
	return orchestrator.Config{
		LeafID:              leafID,
		Limit:               q.Limit,
		IsSingle:            q.IsSingle,
		ShowConnectorOnLast: q.ShowConnectorOnLast,
		SkipMedia:           q.DownloadPreviews != nil && !*q.DownloadPreviews,
		Render:              q.config(),
		Policy:              q.policy(),
	}
}

// Base64Image is one encoded PNG.
type Base64Image struct {
	Content string `json:"content"`
}

// MediaView describes an attachment of a rendered thread.
type MediaView struct {
	Type       string `json:"type"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// ImagesResponse is returned by the image endpoints.
type ImagesResponse struct {
	Images []Base64Image `json:"images"`
	Media  []MediaView   `json:"media,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string           `json:"status"`
	Engine enginepool.Stats `json:"engine"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Engine: s.svc.Stats()})
}

func (s *Server) handleRender(c *gin.Context) {
	var q renderQuery
	if !s.bindQuery(c, &q) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes))
	if err != nil {
		s.fail(c, http.StatusRequestEntityTooLarge, err)
		return
	}
	if err := q.policy().Validate(); err != nil {
		s.abort(c, err)
		return
	}

	result, err := s.svc.Render(c.Request.Context(), string(body), q.config())
	if err != nil {
		s.abort(c, err)
		return
	}
	imgs, err := s.svc.Segment(c.Request.Context(), result, q.policy())
	if err != nil {
		s.abort(c, err)
		return
	}
	s.respondImages(c, imgs, nil)
}

func (s *Server) handleThreadJSON(c *gin.Context) {
	var q threadQuery
	if !s.bindQuery(c, &q) {
		return
	}
	posts, err := s.svc.Thread(c.Request.Context(), c.Param("id"), q.Limit)
	if err != nil {
		s.abort(c, err)
		return
	}
	if posts == nil {
		posts = []ports.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) handleThreadHTML(c *gin.Context) {
	var q threadQuery
	if !s.bindQuery(c, &q) {
		return
	}
	out, err := s.svc.Markup(c.Request.Context(), q.orchestratorConfig(c.Param("id")))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out.Markup))
}

func (s *Server) handleThreadImages(c *gin.Context) {
	var q threadQuery
	if !s.bindQuery(c, &q) {
		return
	}
	cfg := q.orchestratorConfig(c.Param("id"))
	if err := cfg.Policy.Validate(); err != nil {
		s.abort(c, err)
		return
	}
	out, err := s.svc.RenderThread(c.Request.Context(), cfg)
	if err != nil {
		s.abort(c, err)
		return
	}

	var media []MediaView
	if q.IncludeMedia {
		for i := range out.Posts {
			for _, m := range out.Posts[i].AllMedia() {
				media = append(media, MediaView{Type: m.Type, URL: m.URL, PreviewURL: m.PreviewURL})
			}
		}
	}
	s.respondImages(c, out.Images, media)
}

func (s *Server) handleThreadRaw(c *gin.Context) {
	var q threadQuery
	if !s.bindQuery(c, &q) {
		return
	}
	cfg := q.orchestratorConfig(c.Param("id"))
	cfg.Policy = pipeline.SplitPolicy{}

	out, err := s.svc.RenderThread(c.Request.Context(), cfg)
	if err != nil {
		s.abort(c, err)
		return
	}
	data, err := s.renderer.EncodeImage(out.Render.Image, ports.FormatPNG, 0)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) respondImages(c *gin.Context, imgs []image.Image, media []MediaView) {
	resp := ImagesResponse{Images: make([]Base64Image, 0, len(imgs)), Media: media}
	for _, img := range imgs {
		data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		resp.Images = append(resp.Images, Base64Image{Content: base64.StdEncoding.EncodeToString(data)})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) bindQuery(c *gin.Context, q any) bool {
	if err := c.ShouldBindQuery(q); err != nil {
		s.fail(c, http.StatusUnprocessableEntity, err)
		return false
	}
	return true
}

// abort maps an error class to its status code.
func (s *Server) abort(c *gin.Context, err error) {
	s.fail(c, statusFor(err), err)
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrInvalidConfig),
		errors.Is(err, ports.ErrInvalidMarkup),
		errors.Is(err, markup.ErrNoPosts):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrRenderTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ports.ErrPoolClosed),
		errors.Is(err, ports.ErrEngineUnavailable),
		errors.Is(err, orchestrator.ErrNoSource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
