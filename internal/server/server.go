// Package server exposes the detection controller over HTTP.
//
// The API mirrors the browser workflow: upload an image, analyze it, toggle
// findings, and fetch the annotated canvas. Every mutating endpoint answers
// 200 with the resulting view; validation and prediction failures are
// reported on the view's status banner, not as HTTP errors. A websocket at
// /ws pushes the view after every change.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ironsheep/dental-detect/internal/controller"
	"github.com/ironsheep/dental-detect/internal/logger"
	"github.com/ironsheep/dental-detect/internal/render"
)

// Options holds the HTTP-specific settings.
type Options struct {
	// StaticDir is served under /static when set. An index.html in it is
	// also served at /.
	StaticDir string

	// AllowOrigins lists CORS origins; "*" allows all.
	AllowOrigins []string

	Version string
}

type Server struct {
	ctl      *controller.Controller
	renderer *render.Renderer
	surface  *render.Surface
	hub      *Hub
	opts     Options
	logger   *logger.Logger
}

// New creates the HTTP server. surface and hub must be registered as sinks
// of ctl.
func New(ctl *controller.Controller, renderer *render.Renderer, surface *render.Surface, hub *Hub, opts Options, logger *logger.Logger) *Server {
	return &Server{
		ctl:      ctl,
		renderer: renderer,
		surface:  surface,
		hub:      hub,
		opts:     opts,
		logger:   logger,
	}
}

// SetupRouter builds the gin engine with every route.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.Health)
	r.GET("/ws", s.hub.handleWebsocket)

	api := r.Group("/api")
	{
		api.GET("/state", s.State)
		api.POST("/upload", s.Upload)
		api.POST("/analyze", s.Analyze)
		api.POST("/labels/show-all", s.ShowAll)
		api.POST("/labels/hide-all", s.HideAll)
		api.POST("/labels/:id/toggle", s.Toggle)
		api.GET("/labels/:id/crop.png", s.Crop)
		api.GET("/canvas.png", s.Canvas)
		api.GET("/report", s.Report)
	}

	if s.opts.StaticDir != "" {
		r.Static("/static", s.opts.StaticDir)
		index := filepath.Join(s.opts.StaticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			r.StaticFile("/", index)
		}
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	config.ExposeHeaders = []string{"Content-Disposition"}

	allowAll := len(s.opts.AllowOrigins) == 0
	for _, o := range s.opts.AllowOrigins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.opts.AllowOrigins
	}
	return config
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. The hub is run alongside.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
