package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authService "github.com/pixelgrid/authcore/internal/auth/service"
	authUseCase "github.com/pixelgrid/authcore/internal/auth/usecase"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
	"github.com/pixelgrid/authcore/internal/httputil"
)

// AuthenticationMiddleware provides authentication via Bearer credential in the
// Authorization header.
//
// The middleware:
// 1. Extracts the Bearer credential from the Authorization header (case-insensitive)
// 2. Validates it with the CredentialValidator (signed token or inline key)
// 3. Resolves the validated claims to an Actor via the ActorResolver
// 4. Stores the actor in the request context for downstream handlers
//
// Authorization header format: "Bearer <credential>" (case-insensitive "bearer")
//
// Error handling: every authentication failure, whatever its internal kind,
// maps to a generic 401 response. The specific kind is logged server-side only.
func AuthenticationMiddleware(
	validator authService.CredentialValidator,
	resolver authUseCase.ActorResolver,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		// Parse Bearer credential (case-insensitive)
		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		rawCredential := authHeader[len(bearerPrefix):]
		if rawCredential == "" {
			logger.Debug("authentication failed: empty bearer credential")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := validator.Validate(rawCredential)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		actor, err := resolver.Resolve(c.Request.Context(), claims)
		if err != nil {
			logger.Debug("authentication failed",
				slog.String("key_id", claims.KeyID.String()),
				slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		ctx := WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful",
			slog.String("key_id", actor.KeyID.String()),
			slog.String("project_id", actor.ProjectID.String()),
			slog.String("actor_name", actor.Name))

		c.Next()
	}
}

// AuthorizationMiddleware provides capability-based authorization for
// authenticated actors.
//
// This middleware MUST be used after AuthenticationMiddleware, as it requires
// an authenticated actor to be present in the request context. The check mode
// selects whether any single capability suffices or all are required.
//
// Error handling:
//   - No actor in context → 401 Unauthorized (AuthenticationMiddleware not run)
//   - Actor lacks required capabilities → 403 Forbidden naming the missing
//     capabilities. The response never enumerates the actor's other permissions.
//
// Usage:
//
//	router.POST("/auth/v1/apikey",
//	    AuthenticationMiddleware(validator, resolver, logger),
//	    AuthorizationMiddleware(logger, authDomain.AllCapabilities, authDomain.ApiKeyManage),
//	    handler)
func AuthorizationMiddleware(
	logger *slog.Logger,
	mode authDomain.CheckMode,
	required ...authDomain.Capability,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c.Request.Context())
		if !ok || actor == nil {
			logger.Debug("authorization failed: no authenticated actor in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		decision := authDomain.Check(actor, mode, required...)
		if !decision.Allowed {
			logger.Debug("authorization failed: insufficient capabilities",
				slog.String("key_id", actor.KeyID.String()),
				slog.String("project_id", actor.ProjectID.String()),
				slog.Any("missing", decision.Missing))
			httputil.HandleErrorGin(c, authDomain.NewForbiddenError(decision.Missing), logger)
			c.Abort()
			return
		}

		logger.Debug("authorization successful",
			slog.String("key_id", actor.KeyID.String()),
			slog.Any("required", required))

		c.Next()
	}
}
