package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/auth/http/dto"
	"github.com/pixelgrid/authcore/internal/auth/http/mocks"
)

// actorInjector returns a middleware that places the actor in the request context.
func actorInjector(actor *authDomain.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
	}
}

func TestSessionHandler_AuthTokenHandler(t *testing.T) {
	t.Run("Success_ReturnsActorProjectionWithToken", func(t *testing.T) {
		mockSigner := &mocks.MockTokenSigner{}
		actor := testActor(authDomain.AssetsRead)
		ttl := 4 * time.Hour

		mockSigner.On("Sign", actor.KeyID, actor.ProjectID, ttl).
			Return("signed.jwt.token", nil).
			Once()

		handler := NewSessionHandler(mockSigner, ttl, createTestLogger())

		router := gin.New()
		router.POST("/auth/v1/auth-token", actorInjector(actor), handler.AuthTokenHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/v1/auth-token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.AuthTokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, actor.KeyID.String(), response.KeyID)
		assert.Equal(t, actor.ProjectID.String(), response.ProjectID)
		assert.Equal(t, []string{"AssetsRead"}, response.Permissions)
		assert.Equal(t, "signed.jwt.token", response.Token)
		assert.WithinDuration(t, time.Now().UTC().Add(ttl), response.ExpiresAt, 5*time.Second)
		mockSigner.AssertExpectations(t)
	})

	t.Run("Success_AcceptsGet", func(t *testing.T) {
		mockSigner := &mocks.MockTokenSigner{}
		actor := testActor(authDomain.AssetsRead)

		mockSigner.On("Sign", actor.KeyID, actor.ProjectID, time.Hour).
			Return("signed.jwt.token", nil).
			Once()

		handler := NewSessionHandler(mockSigner, time.Hour, createTestLogger())

		router := gin.New()
		router.GET("/auth/v1/auth-token", actorInjector(actor), handler.AuthTokenHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/v1/auth-token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Error_NoActorInContext", func(t *testing.T) {
		handler := NewSessionHandler(&mocks.MockTokenSigner{}, time.Hour, createTestLogger())

		router := gin.New()
		router.POST("/auth/v1/auth-token", handler.AuthTokenHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/v1/auth-token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSessionHandler_MeHandler(t *testing.T) {
	t.Run("Success_ReturnsActorWithRoles", func(t *testing.T) {
		actor := testActor(authDomain.AssetsRead, authDomain.JobsView)
		handler := NewSessionHandler(&mocks.MockTokenSigner{}, time.Hour, createTestLogger())

		router := gin.New()
		router.GET("/api/v1/me/", actorInjector(actor), handler.MeHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, actor.KeyID.String(), response.KeyID)
		assert.Equal(t, actor.ProjectID.String(), response.ProjectID)
		assert.Equal(t, []string{"AssetsRead", "JobsView"}, response.Permissions)
		assert.Equal(t,
			map[string][]string{actor.ProjectID.String(): {"AssetsRead", "JobsView"}},
			response.Roles)
	})

	t.Run("Error_NoActorInContext", func(t *testing.T) {
		handler := NewSessionHandler(&mocks.MockTokenSigner{}, time.Hour, createTestLogger())

		router := gin.New()
		router.GET("/api/v1/me/", handler.MeHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPermissionHandler_ListPermissionsHandler(t *testing.T) {
	handler := NewPermissionHandler(createTestLogger())

	router := gin.New()
	router.GET("/auth/v1/permissions", handler.ListPermissionsHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/v1/permissions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.ListPermissionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Data, len(authDomain.Catalog()))
	assert.Equal(t, "AssetsRead", response.Data[0].Name)
	for _, permission := range response.Data {
		assert.NotEmpty(t, permission.Description)
	}
}
