package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/auth/http/dto"
)

// PermissionHandler serves the capability catalog.
type PermissionHandler struct {
	logger *slog.Logger
}

// NewPermissionHandler creates a new permission handler.
func NewPermissionHandler(logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{logger: logger}
}

// ListPermissionsHandler returns the full capability catalog in its canonical
// order. GET /auth/v1/permissions - no authentication required; the catalog is
// static, public metadata.
func (h *PermissionHandler) ListPermissionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MapCatalogToResponse(authDomain.Catalog()))
}
