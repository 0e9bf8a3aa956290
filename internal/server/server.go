// Package server serves the newsverdict web UI and JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/newsverdict/internal/history"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/telemetry"
)

const defaultShutdownTimeout = 10 * time.Second

// Checker is the pipeline every page and endpoint uses
type Checker interface {
	CheckHeadlines(ctx context.Context) (model.BatchResult, error)
	CheckKeyword(ctx context.Context, query string) (model.BatchResult, error)
	CheckURL(ctx context.Context, rawURL string) (model.CheckResult, error)
	CheckText(ctx context.Context, text string) (model.CheckResult, error)
}

// HistoryReader reads recorded checks
type HistoryReader interface {
	Recent(n int) ([]history.Entry, error)
	Stats() (history.Stats, error)
}

// Options are the optional collaborators of a Server
type Options struct {
	History   HistoryReader
	Ready     func(ctx context.Context) error
	Telemetry *telemetry.Provider
	Logger    logging.Logger
	Version   string
}

// Server is the HTTP server with its gin router
type Server struct {
	router    *gin.Engine
	server    *http.Server
	checker   Checker
	history   HistoryReader
	ready     func(ctx context.Context) error
	telemetry *telemetry.Provider
	pages     *pages
	log       logging.Logger
	cfg       model.ServerConfig
	version   string
	started   time.Time
}

// New builds the server and registers every route
func New(cfg model.ServerConfig, checker Checker, opts Options) (*Server, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	p, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		checker:   checker,
		history:   opts.History,
		ready:     opts.Ready,
		telemetry: opts.Telemetry,
		pages:     p,
		log:       logging.OrNop(opts.Logger),
		cfg:       cfg,
		version:   opts.Version,
		started:   time.Now(),
	}

	s.router.Use(RecoveryMiddleware(s.log))
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggerMiddleware(s.log))
	if s.telemetry != nil {
		s.router.Use(MetricsMiddleware(s.telemetry))
	}
	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.GET("/health", s.health)
	r.GET("/ready", s.readiness)
	if s.telemetry != nil {
		r.GET("/metrics", gin.WrapH(s.telemetry.Handler()))
	}

	// Pages
	r.GET("/", s.homePage)
	r.GET("/headlines", s.headlinesPage)
	r.POST("/url", s.urlPage)
	r.GET("/keyword", s.keywordPage)
	r.POST("/keyword", s.keywordPage)
	r.GET("/text", s.textPage)
	r.POST("/text", s.textPage)
	r.GET("/history", s.historyPage)

	// API
	v1 := r.Group("/api/v1")
	{
		v1.GET("/headlines", s.apiHeadlines)
		v1.GET("/search", s.apiSearch)
		v1.POST("/check/url", s.apiCheckURL)
		v1.POST("/check/text", s.apiCheckText)
		v1.GET("/history", s.apiHistory)
		v1.GET("/stats", s.apiStats)
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server",
			logging.String("address", s.server.Addr),
			logging.Duration("read_timeout", s.server.ReadTimeout),
			logging.Duration("write_timeout", s.server.WriteTimeout))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server", logging.Duration("timeout", s.cfg.ShutdownTimeout))

	// The parent context is already cancelled
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "newsverdict",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) readiness(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
