package domain

import (
	"time"

	"github.com/google/uuid"
)

// ApiKey is the durable backing record for a non-interactive credential.
// Records are provisioned out of band (CLI or management API) and read-only to
// the authentication pipeline. Disabling or deleting a record revokes it:
// future resolutions fail once the change is visible to the resolver.
type ApiKey struct {
	ID          uuid.UUID    // Key identifier (UUIDv7), the token subject
	ProjectID   uuid.UUID    // Owning project; immutable after creation
	Name        string       // Human-readable label
	SecretHash  string       //nolint:gosec // argon2id hash of the key secret (not plaintext)
	Permissions []Capability // Assigned capability set
	Enabled     bool         // Whether the key can authenticate
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateApiKeyInput contains the parameters for provisioning a new API key.
// The key secret is generated server-side and cannot be supplied by the caller.
type CreateApiKeyInput struct {
	ProjectID   uuid.UUID
	Name        string
	Permissions []Capability
	Enabled     bool
}

// CreateApiKeyOutput contains the result of provisioning a new API key.
// SECURITY: PlainSecret and the derived inline credential are returned exactly
// once and are never retrievable again.
type CreateApiKeyOutput struct {
	ID          uuid.UUID
	PlainSecret string
	// InlineCredential is "<keyID>.<secret>", accepted directly as a bearer
	// credential by clients that cannot mint signed tokens.
	InlineCredential string
}

// UpdateApiKeyInput contains the mutable fields of an API key.
// The key identifier, project binding and secret cannot change.
type UpdateApiKeyInput struct {
	Name        string
	Enabled     bool
	Permissions []Capability
}
