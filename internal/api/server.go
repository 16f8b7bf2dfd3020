package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/engine"
	"github.com/IshaanNene/napwatch/internal/observability"
	"github.com/IshaanNene/napwatch/internal/types"
)

const welcomeText = "Welcome to the napwatch NAP scraper for geo.tv"

// Scheduler is the interface the API uses to start runs and report state.
type Scheduler interface {
	Trigger(ctx context.Context, trigger types.Trigger) (*types.RunResult, bool, error)
	Status() engine.Status
}

// Reader returns the current dataset.
type Reader interface {
	FindAll(ctx context.Context) ([]types.ArticleRecord, error)
}

// Server exposes the dataset and manual refresh over HTTP.
type Server struct {
	router    *gin.Engine
	server    *http.Server
	scheduler Scheduler
	reader    Reader
	limiter   *rate.Limiter
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewServer creates the API server and registers every route.
func NewServer(cfg *config.Config, scheduler Scheduler, reader Reader, metrics *observability.Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	}

	limit := rate.Inf
	if cfg.Server.TriggerRate > 0 {
		limit = rate.Every(cfg.Server.TriggerRate)
	}
	burst := cfg.Server.TriggerBurst
	if burst <= 0 {
		burst = 1
	}

	s := &Server{
		router:    gin.New(),
		scheduler: scheduler,
		reader:    reader,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   metrics,
		logger:    logger.With("component", "api_server"),
	}

	s.router.Use(s.recovery(), s.requestLogger(), corsHeaders())
	s.registerRoutes(cfg.Metrics)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(mc config.MetricsConfig) {
	s.router.GET("/", s.handleHome)

	s.router.GET("/api/health", s.handleHealth)
	s.router.GET("/api/status", s.handleStatus)
	s.router.GET("/api/articles", s.handleArticles)
	s.router.GET("/api/summary", s.handleSummary)
	s.router.POST("/api/scrape", s.handleScrape)

	s.router.GET("/dashboard", s.handleDashboard)

	// Legacy paths served by earlier releases.
	s.router.GET("/get_nap", s.handleArticles)
	s.router.GET("/scrape_now", s.handleScrape)
	s.router.GET("/visualize_nap", s.handleDashboard)

	if mc.Enabled && s.metrics != nil {
		s.router.GET(mc.Path, gin.WrapH(s.metrics.Handler()))
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("handler panicked", "path", c.Request.URL.Path, "panic", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.HTTPRequest(route, status)
		s.logger.Debug("request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	}
}

func corsHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	}
}
