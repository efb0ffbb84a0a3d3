package domain

import (
	"github.com/google/uuid"
)

// Claims are the validated contents of a presented credential. They prove
// structural and cryptographic validity only; binding to a live API key record
// happens in the resolver.
type Claims struct {
	// KeyID is the API key referenced by the credential (the token subject).
	KeyID uuid.UUID

	// ProjectID is the explicit tenant claim carried by a signed token, nil
	// when the token carries none. When present it must agree with the key
	// record's project or resolution fails with TenantMismatch.
	ProjectID *uuid.UUID

	// Inline is true for "<keyID>.<secret>" credentials. The secret has not
	// been verified yet; the resolver compares it against the stored hash.
	Inline bool

	// InlineSecret is the plaintext secret of an inline credential.
	// Empty for signed tokens. Never logged.
	InlineSecret string
}
