// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
)

// CreateApiKeyResponse contains the result of provisioning a new API key.
// SECURITY: The secret and inline credential are only returned once and must
// be saved securely.
type CreateApiKeyResponse struct {
	ID               string `json:"id"`
	Secret           string `json:"secret"` //nolint:gosec // returned once on creation
	InlineCredential string `json:"inline_credential"`
}

// ApiKeyResponse represents an API key in API responses (excludes secret hash).
type ApiKeyResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapApiKeyToResponse converts a domain API key to an API response.
func MapApiKeyToResponse(key *authDomain.ApiKey) ApiKeyResponse {
	permissions := make([]string, 0, len(key.Permissions))
	for _, permission := range key.Permissions {
		permissions = append(permissions, string(permission))
	}
	return ApiKeyResponse{
		ID:          key.ID.String(),
		ProjectID:   key.ProjectID.String(),
		Name:        key.Name,
		Permissions: permissions,
		Enabled:     key.Enabled,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}

// ListApiKeysResponse represents a paginated list of API keys in API responses.
type ListApiKeysResponse struct {
	Data []ApiKeyResponse `json:"data"`
}

// MapApiKeysToListResponse converts a slice of domain API keys to a list API response.
func MapApiKeysToListResponse(keys []*authDomain.ApiKey) ListApiKeysResponse {
	keyResponses := make([]ApiKeyResponse, 0, len(keys))
	for _, key := range keys {
		keyResponses = append(keyResponses, MapApiKeyToResponse(key))
	}
	return ListApiKeysResponse{
		Data: keyResponses,
	}
}

// AuthTokenResponse contains the authoritative actor projection returned by
// the auth-token endpoint, plus a freshly signed token the caller can present
// on subsequent requests.
// SECURITY: The token is only returned once and must be saved securely.
type AuthTokenResponse struct {
	KeyID       string    `json:"key_id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapActorToAuthTokenResponse converts an authenticated actor and its minted
// token to an auth-token response.
func MapActorToAuthTokenResponse(actor *authDomain.Actor, token string, expiresAt time.Time) AuthTokenResponse {
	permissions := make([]string, 0, len(actor.Permissions))
	for _, permission := range actor.Permissions {
		permissions = append(permissions, string(permission))
	}
	return AuthTokenResponse{
		KeyID:       actor.KeyID.String(),
		ProjectID:   actor.ProjectID.String(),
		Name:        actor.Name,
		Permissions: permissions,
		Token:       token,
		ExpiresAt:   expiresAt,
	}
}

// SessionResponse represents the authenticated actor in API responses.
// Roles maps the actor's project to its permission names, mirroring the
// actor's single-project capability set for session-style consumers.
type SessionResponse struct {
	KeyID       string              `json:"key_id"`
	ProjectID   string              `json:"project_id"`
	Name        string              `json:"name"`
	Permissions []string            `json:"permissions"`
	Roles       map[string][]string `json:"roles"`
}

// MapActorToSessionResponse converts an authenticated actor to a session response.
func MapActorToSessionResponse(actor *authDomain.Actor) SessionResponse {
	permissions := make([]string, 0, len(actor.Permissions))
	for _, permission := range actor.Permissions {
		permissions = append(permissions, string(permission))
	}
	return SessionResponse{
		KeyID:       actor.KeyID.String(),
		ProjectID:   actor.ProjectID.String(),
		Name:        actor.Name,
		Permissions: permissions,
		Roles: map[string][]string{
			actor.ProjectID.String(): permissions,
		},
	}
}

// PermissionResponse represents a catalog entry in API responses.
type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListPermissionsResponse represents the capability catalog in API responses.
type ListPermissionsResponse struct {
	Data []PermissionResponse `json:"data"`
}

// MapCatalogToResponse converts the capability catalog to an API response.
func MapCatalogToResponse(descriptors []authDomain.CapabilityDescriptor) ListPermissionsResponse {
	permissionResponses := make([]PermissionResponse, 0, len(descriptors))
	for _, descriptor := range descriptors {
		permissionResponses = append(permissionResponses, PermissionResponse{
			Name:        string(descriptor.Name),
			Description: descriptor.Description,
		})
	}
	return ListPermissionsResponse{
		Data: permissionResponses,
	}
}
