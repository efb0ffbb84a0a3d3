// Package usecase defines business logic interfaces for authentication and authorization operations.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
)

// ApiKeyRepository defines persistence operations for API key records.
// Implementations must support transaction-aware operations via context propagation.
type ApiKeyRepository interface {
	// Create stores a new API key record.
	Create(ctx context.Context, key *authDomain.ApiKey) error

	// Update modifies an existing API key record.
	Update(ctx context.Context, key *authDomain.ApiKey) error

	// Get retrieves an API key by ID. Returns ErrApiKeyNotFound if not found.
	Get(ctx context.Context, keyID uuid.UUID) (*authDomain.ApiKey, error)

	// ListByProject retrieves the API keys owned by a project, newest first.
	ListByProject(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*authDomain.ApiKey, error)

	// Delete removes an API key record. Returns ErrApiKeyNotFound if not found.
	Delete(ctx context.Context, keyID uuid.UUID) error
}

// ActorResolver binds validated claims to a live API key record, producing the
// request-scoped Actor. The single store lookup it performs is the only I/O on
// the authentication hot path.
type ActorResolver interface {
	// Resolve turns validated claims into an Actor. Failures are
	// *domain.AuthError values with kinds UnknownKey, Disabled or
	// TenantMismatch; a store timeout denies (fails closed) rather than
	// propagating as an internal error.
	Resolve(ctx context.Context, claims *authDomain.Claims) (*authDomain.Actor, error)
}

// ApiKeyUseCase defines business logic operations for provisioning API keys.
// All operations are scoped to a single project; cross-project access is not
// expressible through this interface.
type ApiKeyUseCase interface {
	// Create provisions a new API key with a generated secret. The plain
	// secret and derived inline credential are returned exactly once.
	// Permission names are validated against the catalog; unknown names are
	// rejected rather than stored.
	Create(ctx context.Context, input *authDomain.CreateApiKeyInput) (*authDomain.CreateApiKeyOutput, error)

	// Get retrieves an API key within the given project. Returns
	// ErrApiKeyNotFound when the key does not exist or belongs to another
	// project, so callers cannot probe other tenants' key space.
	Get(ctx context.Context, projectID, keyID uuid.UUID) (*authDomain.ApiKey, error)

	// List retrieves the project's API keys, newest first.
	List(ctx context.Context, projectID uuid.UUID, offset, limit int) ([]*authDomain.ApiKey, error)

	// Update modifies an existing key's name, enabled flag and permissions.
	// Disabling a key revokes it: resolutions fail once the change is
	// visible through the resolver's cache window.
	Update(ctx context.Context, projectID, keyID uuid.UUID, input *authDomain.UpdateApiKeyInput) error

	// Delete removes a key record permanently, revoking it.
	Delete(ctx context.Context, projectID, keyID uuid.UUID) error
}
