// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authHttp "github.com/pixelgrid/authcore/internal/auth/http"
	"github.com/pixelgrid/authcore/internal/auth/http/mocks"
	"github.com/pixelgrid/authcore/internal/config"
	"github.com/pixelgrid/authcore/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// createTestServer creates a test server with a discarding logger.
func createTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(nil, "localhost", 8080, logger)
}

// setupTestRouter configures the full route table against mock dependencies.
// When actor is non-nil the authentication middleware resolves to it;
// otherwise every authenticated route answers 401.
func setupTestRouter(server *Server, signer *mocks.MockTokenSigner, actor *authDomain.Actor) {
	logger := server.logger

	authMiddleware := func(c *gin.Context) {
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(authHttp.WithActor(c.Request.Context(), actor))
		c.Next()
	}

	server.SetupRouter(RouterConfig{
		Config:                   &config.Config{},
		ApiKeyHandler:            authHttp.NewApiKeyHandler(&mocks.MockApiKeyUseCase{}, logger),
		SessionHandler:           authHttp.NewSessionHandler(signer, 4*time.Hour, logger),
		PermissionHandler:        authHttp.NewPermissionHandler(logger),
		AuthenticationMiddleware: authMiddleware,
	})
}

// TestHealthHandler tests the health check endpoint handler.
func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

// TestReadinessHandler_NotReady_NilDB tests the readiness endpoint when DB is nil.
func TestReadinessHandler_NotReady_NilDB(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "not_ready", response["status"])

	components, ok := response["components"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "error", components["database"])
}

// TestRouter_PermissionCatalogIsPublic verifies the catalog endpoint needs no
// credential.
func TestRouter_PermissionCatalogIsPublic(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/v1/permissions", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "AssetsRead")
}

// TestRouter_ApiKeyRoutesRequireAuthentication verifies the key management
// group sits behind the authentication middleware.
func TestRouter_ApiKeyRoutesRequireAuthentication(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/auth/v1/apikey"},
		{http.MethodGet, "/auth/v1/apikey"},
		{http.MethodGet, "/api/v1/me/"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(route.method, route.path, nil)
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

// TestRouter_ApiKeyRoutesRequireManageCapability verifies the authorization
// middleware rejects an authenticated actor without ApiKeyManage.
func TestRouter_ApiKeyRoutesRequireManageCapability(t *testing.T) {
	server := createTestServer()
	actor := &authDomain.Actor{
		KeyID:       uuid.Must(uuid.NewV7()),
		ProjectID:   uuid.Must(uuid.NewV7()),
		Name:        "harvester",
		Permissions: []authDomain.Capability{authDomain.AssetsRead},
	}
	setupTestRouter(server, &mocks.MockTokenSigner{}, actor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/v1/apikey", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ApiKeyManage")
}

// TestRouter_AuthTokenAcceptsGetAndPost verifies both methods are registered
// for the token exchange endpoint.
func TestRouter_AuthTokenAcceptsGetAndPost(t *testing.T) {
	server := createTestServer()
	actor := &authDomain.Actor{
		KeyID:       uuid.Must(uuid.NewV7()),
		ProjectID:   uuid.Must(uuid.NewV7()),
		Name:        "harvester",
		Permissions: []authDomain.Capability{authDomain.AssetsRead},
	}

	signer := &mocks.MockTokenSigner{}
	signer.On("Sign", actor.KeyID, actor.ProjectID, mock.Anything).
		Return("signed-token", nil).
		Twice()

	setupTestRouter(server, signer, actor)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/auth/v1/auth-token", nil)
		server.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, method)
		assert.Contains(t, w.Body.String(), "signed-token")
	}
	signer.AssertExpectations(t)
}

// TestCustomLoggerMiddleware tests the request logging middleware.
func TestCustomLoggerMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "test", response["message"])
}

// TestRecoveryMiddleware verifies a handler panic becomes a 500 instead of
// tearing down the server.
func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestRouter_NotFoundEndpoint tests 404 handling.
func TestRouter_NotFoundEndpoint(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestServer_ShutdownGracefully tests graceful server shutdown.
func TestServer_ShutdownGracefully(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err := server.Shutdown(shutdownCtx)
	assert.NoError(t, err)

	select {
	case err := <-errChan:
		t.Fatalf("server startup failed: %v", err)
	default:
	}
}

// TestRequestIDMiddleware_HeaderPresent verifies X-Request-Id is present and
// is a UUID.
func TestRequestIDMiddleware_HeaderPresent(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	requestID := w.Header().Get("X-Request-Id")
	require.NotEmpty(t, requestID)

	parsedUUID, err := uuid.Parse(requestID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, parsedUUID)
}

// TestMetricsServer_Endpoints tests the metrics server endpoints.
func TestMetricsServer_Endpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := metrics.NewProvider("authcore_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, logger, provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsServer.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

// TestServer_NoMetricsEndpoint verifies the main router does not expose
// /metrics; scraping goes through the dedicated metrics server.
func TestServer_NoMetricsEndpoint(t *testing.T) {
	server := createTestServer()
	setupTestRouter(server, &mocks.MockTokenSigner{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
