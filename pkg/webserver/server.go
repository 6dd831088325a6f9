package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	db         *db.DB
	logger     *log.Logger
	router     *gin.Engine
	httpServer *http.Server
	jwtManager *utils.JWTManager
	validator  *utils.Validator
	services   *service.Services
	limiter    RateLimiter
}

// New creates a new HTTP server instance
func New(cfg *config.Config, database *db.DB, logger *log.Logger) (*Server, error) {
	// Initialize utilities
	jwtManager := utils.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpirationHours)
	hasher := utils.NewPasswordHasher(cfg.Security.BcryptCost)
	services := service.New(db.NewRepository(database), hasher, logger)

	var limiter RateLimiter
	if cfg.Security.RateLimitEnabled {
		var err error
		limiter, err = newRateLimiter(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
	}

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Create server
	server := &Server{
		config:     cfg,
		db:         database,
		logger:     logger,
		router:     router,
		jwtManager: jwtManager,
		validator:  utils.NewValidator(),
		services:   services,
		limiter:    limiter,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.httpServer = &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return server, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithField("panic", recovered).Error("Panic recovered")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		c.Abort()
	}))

	// Logging and metrics middleware
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	if len(s.config.Server.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Session middleware
	store := cookie.NewStore([]byte(s.config.Security.JWTSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * s.config.Security.JWTExpirationHours,
		HttpOnly: true,
		Secure:   s.config.Security.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.router.Use(sessions.Sessions(s.config.Security.SessionCookieName, store))

	// Rate limiting middleware
	if s.limiter != nil {
		s.router.Use(s.rateLimitMiddleware())
	}

	// Security headers middleware
	s.router.Use(s.securityHeadersMiddleware())
}

// loggingMiddleware logs HTTP requests and records request metrics
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.NewTimer()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := timer.ObserveDuration(metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route))
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

		s.logger.LogRequest(
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			status,
			latency.Milliseconds(),
		)

		// Log slow requests
		if latency > 1*time.Second {
			s.logger.LogPerformance("http_request", latency.Milliseconds(), map[string]interface{}{
				"method": c.Request.Method,
				"path":   path,
				"query":  raw,
				"status": status,
			})
		}
	}
}

// rateLimitMiddleware throttles each client IP. Limiter failures let the
// request through.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			s.logger.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitedTotal.Inc()
			s.logger.LogSecurity("rate_limit_exceeded", "", c.ClientIP(), map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse("Rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("Starting server on %s", s.config.Server.GetServerAddr()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if closer, ok := s.limiter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close rate limiter")
		}
	}

	s.logger.Info("Server stopped")
	return nil
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	// Check database connection
	if err := s.db.HealthCheck(c.Request.Context()); err != nil {
		s.logger.WithError(err).Error("Health check failed")
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse("Database unavailable"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}, "Service is healthy"))
}

// clientConfig hands polling intervals to browser and CLI clients.
func (s *Server) clientConfig(c *gin.Context) {
	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{
		"conversationPollSeconds": s.config.Polling.ConversationSeconds,
		"badgePollSeconds":        s.config.Polling.BadgeSeconds,
	}, "Client configuration retrieved successfully"))
}
