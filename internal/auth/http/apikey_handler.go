package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/auth/http/dto"
	authUseCase "github.com/pixelgrid/authcore/internal/auth/usecase"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
	"github.com/pixelgrid/authcore/internal/httputil"
	customValidation "github.com/pixelgrid/authcore/internal/validation"
)

// ApiKeyHandler handles HTTP requests for API key management operations.
// All operations are scoped to the authenticated actor's project.
type ApiKeyHandler struct {
	apiKeyUseCase authUseCase.ApiKeyUseCase
	logger        *slog.Logger
}

// NewApiKeyHandler creates a new API key handler with required dependencies.
func NewApiKeyHandler(
	apiKeyUseCase authUseCase.ApiKeyUseCase,
	logger *slog.Logger,
) *ApiKeyHandler {
	return &ApiKeyHandler{
		apiKeyUseCase: apiKeyUseCase,
		logger:        logger,
	}
}

// CreateApiKeyHandler provisions a new API key.
// POST /auth/v1/apikey - requires the ApiKeyManage capability.
//
// The project_id in the request must match the caller's own project; keys
// cannot be provisioned into another tenant. Returns 201 Created with the
// plain secret and inline credential, which are never retrievable again.
func (h *ApiKeyHandler) CreateApiKeyHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req dto.CreateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid project_id format: must be a valid UUID"),
			h.logger)
		return
	}

	if projectID != actor.ProjectID {
		httputil.HandleErrorGin(c, apperrors.ErrForbidden, h.logger)
		return
	}

	input := &authDomain.CreateApiKeyInput{
		ProjectID:   projectID,
		Name:        req.Name,
		Permissions: dto.MapPermissions(req.Permissions),
		Enabled:     req.Enabled,
	}

	output, err := h.apiKeyUseCase.Create(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.CreateApiKeyResponse{
		ID:               output.ID.String(),
		Secret:           output.PlainSecret,
		InlineCredential: output.InlineCredential,
	}

	c.JSON(http.StatusCreated, response)
}

// GetApiKeyHandler retrieves an API key by ID within the caller's project.
// GET /auth/v1/apikey/:id - requires the ApiKeyManage capability.
func (h *ApiKeyHandler) GetApiKeyHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid key id format: must be a valid UUID"),
			h.logger)
		return
	}

	key, err := h.apiKeyUseCase.Get(c.Request.Context(), actor.ProjectID, keyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapApiKeyToResponse(key))
}

// ListApiKeysHandler lists the caller's project's API keys, newest first.
// GET /auth/v1/apikey - requires the ApiKeyManage capability.
func (h *ApiKeyHandler) ListApiKeysHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	keys, err := h.apiKeyUseCase.List(c.Request.Context(), actor.ProjectID, offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapApiKeysToListResponse(keys))
}

// UpdateApiKeyHandler updates an API key's name, enabled flag and permissions.
// PUT /auth/v1/apikey/:id - requires the ApiKeyManage capability.
func (h *ApiKeyHandler) UpdateApiKeyHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid key id format: must be a valid UUID"),
			h.logger)
		return
	}

	var req dto.UpdateApiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &authDomain.UpdateApiKeyInput{
		Name:        req.Name,
		Enabled:     req.Enabled,
		Permissions: dto.MapPermissions(req.Permissions),
	}

	if err := h.apiKeyUseCase.Update(c.Request.Context(), actor.ProjectID, keyID, input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	key, err := h.apiKeyUseCase.Get(c.Request.Context(), actor.ProjectID, keyID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapApiKeyToResponse(key))
}

// DeleteApiKeyHandler permanently deletes an API key, revoking it.
// DELETE /auth/v1/apikey/:id - requires the ApiKeyManage capability.
func (h *ApiKeyHandler) DeleteApiKeyHandler(c *gin.Context) {
	actor, ok := GetActor(c.Request.Context())
	if !ok || actor == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	keyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid key id format: must be a valid UUID"),
			h.logger)
		return
	}

	if err := h.apiKeyUseCase.Delete(c.Request.Context(), actor.ProjectID, keyID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
