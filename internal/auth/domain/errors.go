package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// AuthErrorKind classifies an authentication failure. Kinds are distinguished
// internally for logging but all map to the same generic unauthenticated
// response, so callers cannot probe which keys or projects exist.
type AuthErrorKind string

const (
	// Validation-stage kinds (credential never reached the key store).

	// KindMalformed indicates an empty, unparsable or claim-incomplete credential.
	KindMalformed AuthErrorKind = "malformed"
	// KindExpired indicates a token outside its validity window.
	KindExpired AuthErrorKind = "expired"
	// KindBadSignature indicates a signature that verifies against no accepted key.
	KindBadSignature AuthErrorKind = "bad_signature"
	// KindUnknownIssuer indicates an issuer other than the trusted issuer.
	KindUnknownIssuer AuthErrorKind = "unknown_issuer"

	// Resolution-stage kinds (credential was valid but could not be bound).

	// KindUnknownKey indicates the referenced API key record does not exist
	// or the inline secret did not match.
	KindUnknownKey AuthErrorKind = "unknown_key"
	// KindDisabled indicates the key record exists but is disabled.
	KindDisabled AuthErrorKind = "disabled"
	// KindTenantMismatch indicates the token's project claim disagrees with
	// the key record's project.
	KindTenantMismatch AuthErrorKind = "tenant_mismatch"
)

// AuthError is an authentication failure with an internal classification.
// It unwraps to ErrUnauthorized so the transport layer returns a generic 401;
// the kind and reason are for server-side logs only.
type AuthError struct {
	Kind   AuthErrorKind
	reason string
}

// NewAuthError creates an AuthError with the given kind and log-only reason.
func NewAuthError(kind AuthErrorKind, reason string) *AuthError {
	return &AuthError{Kind: kind, reason: reason}
}

// Error returns the internal description. Not for client responses.
func (e *AuthError) Error() string {
	if e.reason == "" {
		return fmt.Sprintf("authentication failed (%s)", e.Kind)
	}
	return fmt.Sprintf("authentication failed (%s): %s", e.Kind, e.reason)
}

// Unwrap maps every authentication failure to ErrUnauthorized.
func (e *AuthError) Unwrap() error {
	return apperrors.ErrUnauthorized
}

// ForbiddenError is an authorization failure for an authenticated actor.
// Missing names only the capabilities the check required and the actor lacked;
// it never enumerates the actor's other capabilities or projects.
type ForbiddenError struct {
	Missing []Capability
}

// NewForbiddenError creates a ForbiddenError for the given missing capabilities.
func NewForbiddenError(missing []Capability) *ForbiddenError {
	return &ForbiddenError{Missing: missing}
}

// Error names the missing capabilities. Safe to surface to the caller.
func (e *ForbiddenError) Error() string {
	if len(e.Missing) == 0 {
		return "missing required capability"
	}
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return "missing required capability: " + strings.Join(names, ", ")
}

// Unwrap maps every authorization failure to ErrForbidden.
func (e *ForbiddenError) Unwrap() error {
	return apperrors.ErrForbidden
}

// Persistence errors.
var (
	// ErrApiKeyNotFound indicates an API key with the specified ID was not found.
	ErrApiKeyNotFound = apperrors.Wrap(apperrors.ErrNotFound, "api key not found")
)
