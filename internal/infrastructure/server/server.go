package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/viortio/core/internal/adapters/http"
	"github.com/viortio/core/internal/adapters/repository"
	"github.com/viortio/core/internal/application/services"
	"github.com/viortio/core/internal/domain/entities"
	"github.com/viortio/core/internal/infrastructure/config"
	"github.com/viortio/core/internal/infrastructure/database"
	"github.com/viortio/core/internal/infrastructure/logger"
	"github.com/viortio/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
}

// New creates a server backed by Postgres repositories.
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	userRepo := repository.NewUserRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)

	srv, err := NewWithStores(cfg, userRepo, taskRepo, appLogger)
	if err != nil {
		return nil, err
	}
	srv.db = db
	return srv, nil
}

// NewWithStores creates a server over injected repositories, so the whole
// surface can run against the in-memory store.
func NewWithStores(cfg *config.Config, userRepo ports.UserRepository, taskRepo ports.TaskRepository, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpHandlers.NewValidator()

	renderer, err := httpHandlers.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("initialize renderer: %w", err)
	}
	e.Renderer = renderer

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.Session, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, appLogger)

	// Initialize handlers
	webHandler := httpHandlers.NewWebHandler(authService, userService, taskService, cfg.Session, appLogger)
	apiHandler := httpHandlers.NewAPIHandler(authService, userService, taskService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
	}

	e.HTTPErrorHandler = server.httpErrorHandler

	server.setupMiddleware()
	server.setupRoutes(webHandler, apiHandler)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(webHandler *httpHandlers.WebHandler, apiHandler *httpHandlers.APIHandler) {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	webHandler.Register(s.echo)
	apiHandler.Register(s.echo.Group(httpHandlers.BasePath))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "database_not_ready",
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Handler exposes the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// httpErrorHandler maps errors to a JSON body on API paths and to the
// rendered error pages everywhere else.
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	case errors.Is(err, entities.ErrTaskNotFound) || errors.Is(err, entities.ErrUserNotFound):
		code = http.StatusNotFound
		message = err.Error()
	}

	if code >= http.StatusInternalServerError {
		s.logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
	}

	if c.Response().Committed {
		return
	}

	path := c.Request().URL.Path
	isAPI := strings.HasPrefix(path, httpHandlers.BasePath) ||
		path == "/health" || path == "/ready" || path == "/metrics"

	if isAPI {
		if jsonErr := c.JSON(code, map[string]string{"message": message}); jsonErr != nil {
			s.logger.Errorw("Error sending response", "error", jsonErr)
		}
		return
	}

	page := "500"
	if code == http.StatusNotFound {
		page = "404"
	}
	if renderErr := c.Render(code, page, echo.Map{}); renderErr != nil {
		s.logger.Errorw("Error rendering error page", "error", renderErr)
		_ = c.NoContent(code)
	}
}
