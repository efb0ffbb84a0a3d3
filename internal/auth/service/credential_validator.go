package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
)

// tokenClaims is the wire shape of a signed token. The subject carries the API
// key id; projectId is the optional explicit tenant claim.
type tokenClaims struct {
	ProjectID string `json:"projectId,omitempty"`
	jwt.RegisteredClaims
}

// credentialValidator implements CredentialValidator for HS256 tokens and
// inline "<keyID>.<secret>" credentials. It holds only immutable state (key
// set, issuer, skew) and is safe for concurrent use without locking.
type credentialValidator struct {
	keys   *SigningKeySet
	issuer string
	skew   time.Duration
	now    func() time.Time
}

// NewCredentialValidator creates a validator that accepts tokens signed by any
// key in the set, issued by the given trusted issuer, with exp/nbf checked
// against the clock within the given skew tolerance.
func NewCredentialValidator(keys *SigningKeySet, issuer string, skew time.Duration) CredentialValidator {
	return &credentialValidator{
		keys:   keys,
		issuer: issuer,
		skew:   skew,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate parses and verifies a raw bearer credential.
//
// Two shapes are accepted:
//   - "<keyID>.<secret>" inline API key credentials (exactly one dot, key id
//     is a UUID): parsed structurally only, the secret is verified later by
//     the resolver against the stored hash.
//   - Signed JWTs (two dots): signature verified against the key selected by
//     the "kid" header, or against the active then the grace-period key when
//     no "kid" is present; exp/nbf checked with skew tolerance; issuer must
//     match the trusted issuer; the subject must be a key UUID.
//
// All failures are *domain.AuthError values. Expiry is deliberately
// distinguished from signature failure so clients can re-authenticate instead
// of treating the response as an attack signal.
func (v *credentialValidator) Validate(raw string) (*authDomain.Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, authDomain.NewAuthError(authDomain.KindMalformed, "empty credential")
	}

	switch strings.Count(raw, ".") {
	case 1:
		return v.validateInline(raw)
	case 2:
		return v.validateToken(raw)
	default:
		return nil, authDomain.NewAuthError(authDomain.KindMalformed, "unrecognized credential format")
	}
}

// validateInline parses an inline "<keyID>.<secret>" credential.
func (v *credentialValidator) validateInline(raw string) (*authDomain.Claims, error) {
	keyPart, secretPart, _ := strings.Cut(raw, ".")

	keyID, err := uuid.Parse(keyPart)
	if err != nil {
		return nil, authDomain.NewAuthError(authDomain.KindMalformed, "inline credential key id is not a UUID")
	}
	if secretPart == "" {
		return nil, authDomain.NewAuthError(authDomain.KindMalformed, "inline credential has empty secret")
	}

	return &authDomain.Claims{
		KeyID:        keyID,
		Inline:       true,
		InlineSecret: secretPart,
	}, nil
}

// validateToken verifies a signed JWT and extracts its claims.
func (v *credentialValidator) validateToken(raw string) (*authDomain.Claims, error) {
	secret, retryWithPrevious, err := v.selectKey(raw)
	if err != nil {
		return nil, err
	}

	claims, err := v.parseWithKey(raw, secret)
	if err != nil {
		// Without a kid header the token may have been signed by the
		// grace-period key; retry once before rejecting.
		if retryWithPrevious && errors.Is(err, jwt.ErrTokenSignatureInvalid) && v.keys.previous != nil {
			claims, err = v.parseWithKey(raw, v.keys.previous.Secret)
		}
		if err != nil {
			return nil, mapTokenError(err)
		}
	}

	if claims.Issuer != v.issuer {
		return nil, authDomain.NewAuthError(authDomain.KindUnknownIssuer, "token issuer is not trusted")
	}

	keyID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, authDomain.NewAuthError(authDomain.KindMalformed, "token subject is not a key UUID")
	}

	out := &authDomain.Claims{KeyID: keyID}

	if claims.ProjectID != "" {
		projectID, err := uuid.Parse(claims.ProjectID)
		if err != nil {
			return nil, authDomain.NewAuthError(authDomain.KindMalformed, "token project claim is not a UUID")
		}
		out.ProjectID = &projectID
	}

	return out, nil
}

// selectKey picks the verification key from the token's kid header. When no
// kid is present the active key is used first and the caller may retry with
// the grace-period key.
func (v *credentialValidator) selectKey(raw string) (secret []byte, retryWithPrevious bool, err error) {
	parser := jwt.NewParser()
	token, _, parseErr := parser.ParseUnverified(raw, &tokenClaims{})
	if parseErr != nil {
		return nil, false, authDomain.NewAuthError(authDomain.KindMalformed, "credential is not a parsable token")
	}

	if kid, ok := token.Header["kid"].(string); ok && kid != "" {
		keySecret, found := v.keys.Lookup(kid)
		if !found {
			return nil, false, authDomain.NewAuthError(authDomain.KindBadSignature, "token signed by unknown key id")
		}
		return keySecret, false, nil
	}

	return v.keys.Active().Secret, true, nil
}

// parseWithKey runs the full signature and time validation against one key.
func (v *credentialValidator) parseWithKey(raw string, secret []byte) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.skew),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	).ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// mapTokenError translates golang-jwt failures into the internal taxonomy.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return authDomain.NewAuthError(authDomain.KindExpired, "token outside validity window")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return authDomain.NewAuthError(authDomain.KindBadSignature, "token signature verification failed")
	default:
		return authDomain.NewAuthError(authDomain.KindMalformed, "token failed validation: "+err.Error())
	}
}
