package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/config"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

func resolverConfig() *config.Config {
	return &config.Config{AuthKeyLookupTimeout: time.Second}
}

func enabledRecord(projectID uuid.UUID) *authDomain.ApiKey {
	return &authDomain.ApiKey{
		ID:          uuid.Must(uuid.NewV7()),
		ProjectID:   projectID,
		Name:        "harvester",
		SecretHash:  "$argon2id$v=19$m=65536,t=3,p=4$test-hash",
		Permissions: []authDomain.Capability{authDomain.AssetsRead, authDomain.JobsView},
		Enabled:     true,
	}
}

func TestActorResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	projectID := uuid.Must(uuid.NewV7())

	t.Run("Success_TokenClaims", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		record := enabledRecord(projectID)

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: record.ID})

		require.NoError(t, err)
		assert.Equal(t, record.ID, actor.KeyID)
		assert.Equal(t, projectID, actor.ProjectID)
		assert.Equal(t, "harvester", actor.Name)
		assert.Equal(t, record.Permissions, actor.Permissions)
	})

	t.Run("Success_MatchingProjectClaim", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		record := enabledRecord(projectID)

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: record.ID, ProjectID: &projectID})

		require.NoError(t, err)
		assert.Equal(t, projectID, actor.ProjectID)
	})

	t.Run("Success_InlineSecretMatches", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		mockSecrets := &mockSecretService{}
		record := enabledRecord(projectID)

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
		mockSecrets.On("CompareSecret", "plain-secret", record.SecretHash).Return(true).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, mockSecrets)
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{
			KeyID:        record.ID,
			Inline:       true,
			InlineSecret: "plain-secret",
		})

		require.NoError(t, err)
		assert.Equal(t, record.ID, actor.KeyID)
	})

	t.Run("Success_UnknownStoredPermissionDropped", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		record := enabledRecord(projectID)
		record.Permissions = []authDomain.Capability{authDomain.AssetsRead, "LegacyExport"}

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: record.ID})

		require.NoError(t, err)
		assert.Equal(t, []authDomain.Capability{authDomain.AssetsRead}, actor.Permissions)
	})

	t.Run("Error_UnknownKey", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		keyID := uuid.Must(uuid.NewV7())

		mockRepo.On("Get", mock.Anything, keyID).Return(nil, authDomain.ErrApiKeyNotFound).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: keyID})

		assert.Nil(t, actor)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		var authErr *authDomain.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, authDomain.KindUnknownKey, authErr.Kind)
	})

	t.Run("Error_InlineSecretMismatchLooksLikeUnknownKey", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		mockSecrets := &mockSecretService{}
		record := enabledRecord(projectID)

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()
		mockSecrets.On("CompareSecret", "wrong-secret", record.SecretHash).Return(false).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, mockSecrets)
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{
			KeyID:        record.ID,
			Inline:       true,
			InlineSecret: "wrong-secret",
		})

		assert.Nil(t, actor)

		var authErr *authDomain.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, authDomain.KindUnknownKey, authErr.Kind)
	})

	t.Run("Error_DisabledKey", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		record := enabledRecord(projectID)
		record.Enabled = false

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: record.ID})

		assert.Nil(t, actor)

		var authErr *authDomain.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, authDomain.KindDisabled, authErr.Kind)
	})

	t.Run("Error_TenantMismatch", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		record := enabledRecord(projectID)
		otherProject := uuid.Must(uuid.NewV7())

		mockRepo.On("Get", mock.Anything, record.ID).Return(record, nil).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: record.ID, ProjectID: &otherProject})

		assert.Nil(t, actor)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

		var authErr *authDomain.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, authDomain.KindTenantMismatch, authErr.Kind)
	})

	t.Run("Error_StoreTimeoutDenies", func(t *testing.T) {
		mockRepo := &mockApiKeyRepository{}
		keyID := uuid.Must(uuid.NewV7())

		mockRepo.On("Get", mock.Anything, keyID).Return(nil, context.DeadlineExceeded).Once()

		resolver := NewActorResolver(resolverConfig(), mockRepo, &mockSecretService{})
		actor, err := resolver.Resolve(ctx, &authDomain.Claims{KeyID: keyID})

		assert.Nil(t, actor)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}
