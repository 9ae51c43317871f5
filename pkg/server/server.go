package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/YungFritz/kyys-letters/pkg/blobs"
	"github.com/YungFritz/kyys-letters/pkg/library"
	"github.com/YungFritz/kyys-letters/pkg/remote"
	"github.com/labstack/echo/v4"
)

// Config holds the server settings.
type Config struct {
	Token     string  // Bearer token required on /series/*; empty makes them fail with 500
	RateLimit float64 // Requests per second per client on /series/* (default 10)
	Burst     int     // Burst allowance (default 2x rate)
}

func (c *Config) setDefaults() {
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.Burst <= 0 {
		c.Burst = int(2 * c.RateLimit)
	}
}

// Server exposes the snapshot proxy endpoints, object URLs and a read-only
// view of the library over HTTP.
type Server struct {
	Config Config
	Echo   *echo.Echo

	store  *library.Store
	bucket remote.Bucket
	urls   *blobs.ObjectURLs
	logger *slog.Logger
}

// New wires routes and middleware. store and urls may be nil, in which case
// the matching routes are not registered.
func New(cfg Config, store *library.Store, bucket remote.Bucket, urls *blobs.ObjectURLs, logger *slog.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Config: cfg,
		Echo:   echo.New(),
		store:  store,
		bucket: bucket,
		urls:   urls,
		logger: logger,
	}
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	e := s.Echo

	series := e.Group("/series", s.rateLimit(), s.requireServerToken, s.bearerAuth())
	series.POST("/save", s.handleSave)
	series.GET("/read", s.handleRead)
	series.GET("/list", s.handleList)
	series.POST("/delete", s.handleDelete)
	series.DELETE("/delete", s.handleDelete)

	if s.urls != nil {
		e.GET(blobs.ObjectPath+":token", s.handleObject)
	}

	if s.store != nil {
		api := e.Group("/api")
		api.GET("/series", s.handleListSeries)
		api.GET("/series/:slug", s.handleGetSeries)
		api.POST("/series/:slug/view", s.handleView)
		api.GET("/popular", s.handlePopular)
		api.GET("/latest", s.handleLatest)
		api.GET("/search", s.handleSearch)
		api.GET("/stats", s.handleStats)
		api.GET("/images/:key", s.handleImage)
	}
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
