package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authService "github.com/pixelgrid/authcore/internal/auth/service"
	"github.com/pixelgrid/authcore/internal/database"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// apiKeyUseCase implements ApiKeyUseCase for provisioning API keys.
type apiKeyUseCase struct {
	apiKeyRepo    ApiKeyRepository
	secretService authService.SecretService
	txManager     database.TxManager
}

// Create provisions a new API key with a generated secret.
// Returns the key ID, the plain secret and the derived inline credential. The
// plain secret is only returned once and must be securely stored by the caller.
// The hashed version is stored in the database.
func (a *apiKeyUseCase) Create(
	ctx context.Context,
	input *authDomain.CreateApiKeyInput,
) (*authDomain.CreateApiKeyOutput, error) {
	if err := validatePermissions(input.Permissions); err != nil {
		return nil, err
	}

	// Generate a secure random secret
	plainSecret, hashedSecret, err := a.secretService.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	key := &authDomain.ApiKey{
		ID:          uuid.Must(uuid.NewV7()),
		ProjectID:   input.ProjectID,
		Name:        input.Name,
		SecretHash:  hashedSecret,
		Permissions: input.Permissions,
		Enabled:     input.Enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.apiKeyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	return &authDomain.CreateApiKeyOutput{
		ID:               key.ID,
		PlainSecret:      plainSecret,
		InlineCredential: fmt.Sprintf("%s.%s", key.ID, plainSecret),
	}, nil
}

// Get retrieves an API key within the given project.
// A key owned by another project is reported as not found so callers cannot
// probe other tenants' key space.
func (a *apiKeyUseCase) Get(
	ctx context.Context,
	projectID, keyID uuid.UUID,
) (*authDomain.ApiKey, error) {
	key, err := a.apiKeyRepo.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key.ProjectID != projectID {
		return nil, authDomain.ErrApiKeyNotFound
	}
	return key, nil
}

// List retrieves the project's API keys ordered by ID descending with
// pagination support. Returns empty slice if no keys found.
func (a *apiKeyUseCase) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	return a.apiKeyRepo.ListByProject(ctx, projectID, offset, limit)
}

// Update modifies an existing key's name, enabled flag and permissions.
// The key identifier, project binding and secret remain unchanged. The
// read-check-write runs in a single transaction so concurrent updates cannot
// interleave.
func (a *apiKeyUseCase) Update(
	ctx context.Context,
	projectID, keyID uuid.UUID,
	input *authDomain.UpdateApiKeyInput,
) error {
	if err := validatePermissions(input.Permissions); err != nil {
		return err
	}

	return a.txManager.WithTx(ctx, func(ctx context.Context) error {
		key, err := a.Get(ctx, projectID, keyID)
		if err != nil {
			return err
		}

		key.Name = input.Name
		key.Enabled = input.Enabled
		key.Permissions = input.Permissions
		key.UpdatedAt = time.Now().UTC()

		return a.apiKeyRepo.Update(ctx, key)
	})
}

// Delete removes a key record permanently, revoking it. The project ownership
// check and the delete run in a single transaction.
func (a *apiKeyUseCase) Delete(ctx context.Context, projectID, keyID uuid.UUID) error {
	return a.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := a.Get(ctx, projectID, keyID); err != nil {
			return err
		}
		return a.apiKeyRepo.Delete(ctx, keyID)
	})
}

// validatePermissions rejects permission names absent from the capability
// catalog. Unknown names are never stored.
func validatePermissions(permissions []authDomain.Capability) error {
	for _, permission := range permissions {
		if !authDomain.KnownCapability(permission) {
			return apperrors.Wrap(
				apperrors.ErrInvalidInput,
				fmt.Sprintf("unknown permission: %s", permission),
			)
		}
	}
	return nil
}

// NewApiKeyUseCase creates a new ApiKeyUseCase with the provided dependencies.
func NewApiKeyUseCase(
	apiKeyRepo ApiKeyRepository,
	secretService authService.SecretService,
	txManager database.TxManager,
) ApiKeyUseCase {
	return &apiKeyUseCase{
		apiKeyRepo:    apiKeyRepo,
		secretService: secretService,
		txManager:     txManager,
	}
}
