// Package usecase implements business logic orchestration for authentication operations.
package usecase

import (
	"context"
	"errors"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authService "github.com/pixelgrid/authcore/internal/auth/service"
	"github.com/pixelgrid/authcore/internal/config"
)

// actorResolver implements ActorResolver against the API key repository.
type actorResolver struct {
	config        *config.Config
	apiKeyRepo    ApiKeyRepository
	secretService authService.SecretService
}

// Resolve binds validated claims to a live API key record.
//
// This method:
//  1. Looks up the API key record by the claims' key id (bounded by the
//     configured lookup timeout; a timeout denies rather than allows)
//  2. Verifies the inline secret against the stored hash, for inline credentials
//  3. Rejects disabled records
//  4. Cross-checks the token's explicit project claim against the record
//  5. Constructs the Actor with the record's project, name and permissions
//
// Security notes:
//   - A missing record and a wrong inline secret both surface as UnknownKey,
//     so the response gives no oracle for which key ids exist
//   - The record's tenant is never silently preferred over the token's claim;
//     disagreement fails TenantMismatch to stop cross-tenant replay
//   - Permissions are copied verbatim from the record, filtered to catalog
//     membership. The resolver never widens a capability set.
func (r *actorResolver) Resolve(
	ctx context.Context,
	claims *authDomain.Claims,
) (*authDomain.Actor, error) {
	// Bound the single store lookup on the hot path. On timeout the request
	// is denied, never allowed.
	ctx, cancel := context.WithTimeout(ctx, r.config.AuthKeyLookupTimeout)
	defer cancel()

	record, err := r.apiKeyRepo.Get(ctx, claims.KeyID)
	if err != nil {
		if errors.Is(err, authDomain.ErrApiKeyNotFound) {
			return nil, authDomain.NewAuthError(authDomain.KindUnknownKey, "no record for key id")
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, authDomain.NewAuthError(authDomain.KindUnknownKey, "key store lookup timed out")
		}
		return nil, err
	}

	// Inline credentials carry the plain secret; verify it against the
	// stored argon2id hash. A mismatch is indistinguishable from an unknown
	// key to the caller.
	if claims.Inline && !r.secretService.CompareSecret(claims.InlineSecret, record.SecretHash) {
		return nil, authDomain.NewAuthError(authDomain.KindUnknownKey, "inline secret mismatch")
	}

	if !record.Enabled {
		return nil, authDomain.NewAuthError(authDomain.KindDisabled, "key record is disabled")
	}

	if claims.ProjectID != nil && *claims.ProjectID != record.ProjectID {
		return nil, authDomain.NewAuthError(
			authDomain.KindTenantMismatch,
			"token project claim disagrees with key record",
		)
	}

	return &authDomain.Actor{
		KeyID:       record.ID,
		ProjectID:   record.ProjectID,
		Name:        record.Name,
		Permissions: authDomain.FilterKnown(record.Permissions),
	}, nil
}

// NewActorResolver creates an ActorResolver with the provided dependencies.
func NewActorResolver(
	config *config.Config,
	apiKeyRepo ApiKeyRepository,
	secretService authService.SecretService,
) ActorResolver {
	return &actorResolver{
		config:        config,
		apiKeyRepo:    apiKeyRepo,
		secretService: secretService,
	}
}
