// Package service provides technical services for the authentication pipeline.
//
// It implements credential validation (signed tokens and inline API keys),
// token signing for provisioned keys, and secret generation and hashing using
// industry-standard cryptographic practices.
package service

import (
	"time"

	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
)

// CredentialValidator verifies a presented credential and extracts its claims.
// Validation is a pure function of the input, the signing key set and the
// clock: it performs no network or datastore calls. Binding the claims to a
// live API key record is the resolver's job.
type CredentialValidator interface {
	// Validate checks the structural and cryptographic validity of a raw
	// bearer credential and returns its claims. Failures are *domain.AuthError
	// values with kinds Malformed, Expired, BadSignature or UnknownIssuer.
	Validate(raw string) (*authDomain.Claims, error)
}

// TokenSigner mints signed tokens for provisioned API keys. Used by the CLI
// and by services that exchange an inline credential for a short-lived token.
type TokenSigner interface {
	// Sign creates a token for the given key and project with the given
	// lifetime, signed by the active signing key.
	Sign(keyID uuid.UUID, projectID uuid.UUID, ttl time.Duration) (string, error)
}

// SecretService defines operations for API key secret generation and
// verification. Implementations must use cryptographically secure random
// generation and a memory-hard hash (argon2id).
type SecretService interface {
	// GenerateSecret creates a new random secret. Returns both the plain
	// secret (shown once at provisioning time) and the hash stored in the
	// key record.
	GenerateSecret() (plainSecret string, hashedSecret string, error error)

	// HashSecret hashes a plain secret for storage.
	HashSecret(plainSecret string) (hashedSecret string, error error)

	// CompareSecret compares a plain secret against a stored hash in
	// constant time. Returns true on match.
	CompareSecret(plainSecret string, hashedSecret string) bool
}
