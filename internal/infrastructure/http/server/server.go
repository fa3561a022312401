// Package server provides the JSON API HTTP server
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/alchemorsel/pantrychef/internal/infrastructure/config"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/security"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/pkg/errors"
	"github.com/alchemorsel/pantrychef/pkg/healthcheck"
)

const maxBodyBytes = 1 << 20

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	engine     *gin.Engine
	server     *http.Server
	limiters   []*middleware.RateLimiter
	service    inbound.RecipeService
	validation *security.ValidationService
	health     *healthcheck.HealthCheck
	metrics    *monitoring.MetricsCollector
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	service inbound.RecipeService,
	validation *security.ValidationService,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (*Server, error) {
	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:     cfg,
		logger:     logger.Named("server"),
		service:    service,
		validation: validation,
		health:     health,
		metrics:    metrics,
	}

	engine, err := s.setupRouter()
	if err != nil {
		return nil, err
	}
	s.engine = engine

	var handler http.Handler = engine
	if cfg.Server.EnableHTTP2 {
		handler = h2c.NewHandler(engine, &http2.Server{})
	}

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	return s, nil
}

// setupRouter configures the gin engine with middleware and routes
func (s *Server) setupRouter() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	m := middleware.New(s.config, s.logger)

	// Global middleware
	r.Use(m.RequestID())
	r.Use(m.Recovery())
	r.Use(m.Logger())
	if s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.HTTPMiddleware())
	}
	if s.config.Monitoring.EnableTracing {
		r.Use(m.Tracing())
	}
	r.Use(m.Security())
	if s.config.Server.EnableCORS {
		r.Use(m.CORS())
	}
	r.Use(m.Compression())
	r.Use(m.ErrorHandler())
	r.Use(m.BodySizeLimit(maxBodyBytes))

	// Health endpoints
	r.GET("/health", s.health.Handler())
	r.GET("/live", s.health.LivenessHandler())
	r.GET("/ready", s.health.ReadinessHandler())
	if s.config.Monitoring.EnableMetrics {
		r.GET(s.config.Monitoring.MetricsPath, gin.WrapH(s.metrics.Handler()))
	}

	docs := NewOpenAPIHandler(s.config.App.Version, s.logger)
	r.GET("/api/v1/openapi.yaml", docs.ServeSpec)
	r.GET("/api/v1/openapi.json", docs.ServeIndex)

	s.setupRecipeRoutes(r.Group("/api/v1/recipes"))

	r.NoRoute(func(c *gin.Context) {
		appErr := errors.NewNotFoundError("Route")
		c.JSON(appErr.StatusCode(), errors.ToErrorResponse(appErr, c.GetString(middleware.RequestIDKey)))
	})

	return r, nil
}

// setupRecipeRoutes configures the recipe API
func (s *Server) setupRecipeRoutes(api *gin.RouterGroup) {
	h := handlers.NewRecipeHandlers(s.service, s.validation, s.logger)
	stream := handlers.NewStreamHandler(s.service, s.validation, s.checkOrigin(), s.logger)

	generateLimit := s.limiter("generate", s.config.RateLimit.GeneratePerMin)
	feedbackLimit := s.limiter("feedback", s.config.RateLimit.FeedbackPerMin)

	api.GET("/stream", append(generateLimit, stream.Serve)...)

	api.Use(s.validation.ContentTypeJSON())
	api.POST("/generate", append(generateLimit, h.Generate)...)
	api.POST("/modify", append(generateLimit, h.Modify)...)
	api.POST("/feedback", append(feedbackLimit, h.Feedback)...)
}

// limiter returns the rate limiting chain for one route family
func (s *Server) limiter(name string, perMinute int) []gin.HandlerFunc {
	if !s.config.RateLimit.Enable || perMinute <= 0 {
		return nil
	}
	rl := middleware.NewRateLimiter(name, perMinute, s.config.RateLimit.BurstSize, s.config.RateLimit.CleanupInterval, s.logger)
	s.limiters = append(s.limiters, rl)
	return []gin.HandlerFunc{rl.Handler()}
}

// checkOrigin restricts websocket upgrades to the CORS allow-list
func (s *Server) checkOrigin() func(r *http.Request) bool {
	if !s.config.Server.EnableCORS {
		return nil
	}
	allowed := make(map[string]struct{}, len(s.config.Server.AllowedOrigins))
	for _, origin := range s.config.Server.AllowedOrigins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[origin] = struct{}{}
	}
	if s.config.IsDevelopment() {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Handler exposes the routed handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
		zap.Bool("h2c", s.config.Server.EnableHTTP2),
	)

	if err := s.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	for _, rl := range s.limiters {
		rl.Close()
	}
	return s.server.Shutdown(ctx)
}
