// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authHttp "github.com/pixelgrid/authcore/internal/auth/http"
	"github.com/pixelgrid/authcore/internal/config"
)

// Server represents the main HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
	db     *sql.DB
}

// NewServer creates a new HTTP server. The router must be configured via
// SetupRouter before Start is called.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		db:     db,
	}
}

// RouterConfig holds the handlers and middlewares wired into the main router.
type RouterConfig struct {
	Config                   *config.Config
	ApiKeyHandler            *authHttp.ApiKeyHandler
	SessionHandler           *authHttp.SessionHandler
	PermissionHandler        *authHttp.PermissionHandler
	AuthenticationMiddleware gin.HandlerFunc
	MetricsMiddleware        gin.HandlerFunc
}

// SetupRouter configures the Gin router with all routes and middlewares.
func (s *Server) SetupRouter(rc RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if rc.MetricsMiddleware != nil {
		router.Use(rc.MetricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(
		rc.Config.CORSEnabled,
		rc.Config.CORSAllowOrigins,
		s.logger,
	); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	// Public permission catalog
	router.GET("/auth/v1/permissions", rc.PermissionHandler.ListPermissionsHandler)

	// Token exchange: per-IP rate limited before authentication since it
	// receives arbitrary credentials
	tokenHandlers := []gin.HandlerFunc{}
	if rc.Config.RateLimitTokenEnabled {
		tokenHandlers = append(tokenHandlers, authHttp.TokenRateLimitMiddleware(
			rc.Config.RateLimitTokenRequestsPerSec,
			rc.Config.RateLimitTokenBurst,
			s.logger,
		))
	}
	tokenHandlers = append(tokenHandlers,
		rc.AuthenticationMiddleware,
		rc.SessionHandler.AuthTokenHandler,
	)
	router.POST("/auth/v1/auth-token", tokenHandlers...)
	router.GET("/auth/v1/auth-token", tokenHandlers...)

	// Authenticated routes
	authenticated := []gin.HandlerFunc{rc.AuthenticationMiddleware}
	if rc.Config.RateLimitEnabled {
		authenticated = append(authenticated, authHttp.RateLimitMiddleware(
			rc.Config.RateLimitRequestsPerSec,
			rc.Config.RateLimitBurst,
			s.logger,
		))
	}

	me := router.Group("/api/v1", authenticated...)
	me.GET("/me/", rc.SessionHandler.MeHandler)

	apiKeys := router.Group("/auth/v1/apikey", authenticated...)
	apiKeys.Use(authHttp.AuthorizationMiddleware(
		s.logger,
		authDomain.AllCapabilities,
		authDomain.ApiKeyManage,
	))
	apiKeys.POST("", rc.ApiKeyHandler.CreateApiKeyHandler)
	apiKeys.GET("", rc.ApiKeyHandler.ListApiKeysHandler)
	apiKeys.GET("/:id", rc.ApiKeyHandler.GetApiKeyHandler)
	apiKeys.PUT("/:id", rc.ApiKeyHandler.UpdateApiKeyHandler)
	apiKeys.DELETE("/:id", rc.ApiKeyHandler.DeleteApiKeyHandler)

	s.router = router
}

// healthHandler responds to liveness checks.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler responds to readiness checks, verifying database connectivity.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("readiness check failed", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter first")
	}

	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
