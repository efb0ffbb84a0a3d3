package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/metrics"
)

// apiKeyUseCaseWithMetrics decorates ApiKeyUseCase with metrics instrumentation.
type apiKeyUseCaseWithMetrics struct {
	next    ApiKeyUseCase
	metrics metrics.BusinessMetrics
}

// NewApiKeyUseCaseWithMetrics wraps an ApiKeyUseCase with metrics recording.
func NewApiKeyUseCaseWithMetrics(useCase ApiKeyUseCase, m metrics.BusinessMetrics) ApiKeyUseCase {
	return &apiKeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for API key creation operations.
func (a *apiKeyUseCaseWithMetrics) Create(
	ctx context.Context,
	input *authDomain.CreateApiKeyInput,
) (*authDomain.CreateApiKeyOutput, error) {
	start := time.Now()
	output, err := a.next.Create(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "apikey_create", status)
	a.metrics.RecordDuration(ctx, "auth", "apikey_create", time.Since(start), status)

	return output, err
}

// Get records metrics for API key retrieval operations.
func (a *apiKeyUseCaseWithMetrics) Get(
	ctx context.Context,
	projectID, keyID uuid.UUID,
) (*authDomain.ApiKey, error) {
	start := time.Now()
	key, err := a.next.Get(ctx, projectID, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "apikey_get", status)
	a.metrics.RecordDuration(ctx, "auth", "apikey_get", time.Since(start), status)

	return key, err
}

// List records metrics for API key list operations.
func (a *apiKeyUseCaseWithMetrics) List(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	start := time.Now()
	keys, err := a.next.List(ctx, projectID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "apikey_list", status)
	a.metrics.RecordDuration(ctx, "auth", "apikey_list", time.Since(start), status)

	return keys, err
}

// Update records metrics for API key update operations.
func (a *apiKeyUseCaseWithMetrics) Update(
	ctx context.Context,
	projectID, keyID uuid.UUID,
	input *authDomain.UpdateApiKeyInput,
) error {
	start := time.Now()
	err := a.next.Update(ctx, projectID, keyID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "apikey_update", status)
	a.metrics.RecordDuration(ctx, "auth", "apikey_update", time.Since(start), status)

	return err
}

// Delete records metrics for API key deletion operations.
func (a *apiKeyUseCaseWithMetrics) Delete(ctx context.Context, projectID, keyID uuid.UUID) error {
	start := time.Now()
	err := a.next.Delete(ctx, projectID, keyID)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "apikey_delete", status)
	a.metrics.RecordDuration(ctx, "auth", "apikey_delete", time.Since(start), status)

	return err
}

// actorResolverWithMetrics decorates ActorResolver with metrics instrumentation.
type actorResolverWithMetrics struct {
	next    ActorResolver
	metrics metrics.BusinessMetrics
}

// NewActorResolverWithMetrics wraps an ActorResolver with metrics recording.
func NewActorResolverWithMetrics(resolver ActorResolver, m metrics.BusinessMetrics) ActorResolver {
	return &actorResolverWithMetrics{
		next:    resolver,
		metrics: m,
	}
}

// Resolve records metrics for actor resolution operations.
func (a *actorResolverWithMetrics) Resolve(
	ctx context.Context,
	claims *authDomain.Claims,
) (*authDomain.Actor, error) {
	start := time.Now()
	actor, err := a.next.Resolve(ctx, claims)

	status := "success"
	if err != nil {
		status = "error"
	}

	a.metrics.RecordOperation(ctx, "auth", "actor_resolve", status)
	a.metrics.RecordDuration(ctx, "auth", "actor_resolve", time.Since(start), status)

	return actor, err
}
