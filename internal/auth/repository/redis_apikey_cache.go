package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/auth/usecase"
)

// apiKeyCacheKeyPrefix namespaces cache entries so the redis instance can be
// shared with other workloads.
const apiKeyCacheKeyPrefix = "authcore:apikey:"

// RedisApiKeyCache is a read-through cache in front of an ApiKeyRepository.
//
// The cache TTL bounds revocation propagation: a disabled or deleted key may
// keep authenticating for at most one TTL. Write operations pass through to
// the source and then invalidate the entry so local readers converge sooner.
//
// Cache failures fail open to the source repository. A broken redis must slow
// authentication down, never break it.
type RedisApiKeyCache struct {
	source usecase.ApiKeyRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Get returns the cached record when present, otherwise reads through to the
// source repository and caches the result.
func (r *RedisApiKeyCache) Get(ctx context.Context, keyID uuid.UUID) (*authDomain.ApiKey, error) {
	cacheKey := apiKeyCacheKeyPrefix + keyID.String()

	payload, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var key authDomain.ApiKey
		if err := json.Unmarshal(payload, &key); err == nil {
			return &key, nil
		}
		// A corrupt entry is dropped and refreshed from the source.
		r.client.Del(ctx, cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Debug("api key cache read failed", "error", err)
	}

	key, err := r.source.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(key); err == nil {
		if err := r.client.Set(ctx, cacheKey, payload, r.ttl).Err(); err != nil {
			r.logger.Debug("api key cache write failed", "error", err)
		}
	}

	return key, nil
}

// Create passes through to the source repository. New keys are cached on the
// first lookup, not eagerly.
func (r *RedisApiKeyCache) Create(ctx context.Context, key *authDomain.ApiKey) error {
	return r.source.Create(ctx, key)
}

// Update passes through to the source repository and invalidates the cached
// entry. Other nodes converge within the cache TTL.
func (r *RedisApiKeyCache) Update(ctx context.Context, key *authDomain.ApiKey) error {
	if err := r.source.Update(ctx, key); err != nil {
		return err
	}
	r.invalidate(ctx, key.ID)
	return nil
}

// ListByProject passes through to the source repository. Listings are a
// management operation and are not cached.
func (r *RedisApiKeyCache) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	return r.source.ListByProject(ctx, projectID, offset, limit)
}

// Delete passes through to the source repository and invalidates the cached
// entry.
func (r *RedisApiKeyCache) Delete(ctx context.Context, keyID uuid.UUID) error {
	if err := r.source.Delete(ctx, keyID); err != nil {
		return err
	}
	r.invalidate(ctx, keyID)
	return nil
}

func (r *RedisApiKeyCache) invalidate(ctx context.Context, keyID uuid.UUID) {
	if err := r.client.Del(ctx, apiKeyCacheKeyPrefix+keyID.String()).Err(); err != nil {
		r.logger.Warn("api key cache invalidation failed", "key_id", keyID, "error", err)
	}
}

// NewRedisApiKeyCache creates a read-through cache in front of the given
// source repository.
func NewRedisApiKeyCache(
	source usecase.ApiKeyRepository,
	client *redis.Client,
	ttl time.Duration,
	logger *slog.Logger,
) *RedisApiKeyCache {
	return &RedisApiKeyCache{
		source: source,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}
