// Package http provides HTTP middleware and handlers for authentication.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pixelgrid/authcore/internal/auth/http/dto"
	authService "github.com/pixelgrid/authcore/internal/auth/service"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
	"github.com/pixelgrid/authcore/internal/httputil"
)

// SessionHandler handles HTTP requests for the authenticated session surface:
// token exchange and actor introspection.
type SessionHandler struct {
	tokenSigner authService.TokenSigner
	tokenTTL    time.Duration
	logger      *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(
	tokenSigner authService.TokenSigner,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		tokenSigner: tokenSigner,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// AuthTokenHandler validates the caller's credential and returns the resolved
// actor projection together with a freshly signed token.
// GET/POST /auth/v1/auth-token - requires authentication.
//
// The permissions array is the authoritative capability set for the actor.
// Clients holding an inline API key credential use the token to avoid sending
// the long-lived secret on every request.
func (h *SessionHandler) AuthTokenHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	token, err := h.tokenSigner.Sign(actor.KeyID, actor.ProjectID, h.tokenTTL)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapActorToAuthTokenResponse(actor, token, time.Now().UTC().Add(h.tokenTTL))

	c.JSON(http.StatusOK, response)
}

// MeHandler returns the authenticated actor's identity and permissions.
// GET /api/v1/me/ - requires authentication.
func (h *SessionHandler) MeHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapActorToSessionResponse(actor))
}
