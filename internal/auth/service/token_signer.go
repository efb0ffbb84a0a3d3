package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// tokenSigner implements TokenSigner using the active HS256 signing key.
type tokenSigner struct {
	keys   *SigningKeySet
	issuer string
	now    func() time.Time
}

// NewTokenSigner creates a signer that mints tokens with the active key of the
// given set, carrying the configured issuer.
func NewTokenSigner(keys *SigningKeySet, issuer string) TokenSigner {
	return &tokenSigner{
		keys:   keys,
		issuer: issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sign creates a signed token for the given key and project. The key id of the
// signing key travels in the "kid" header so validators can select it during
// rotation.
func (s *tokenSigner) Sign(keyID uuid.UUID, projectID uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()
	claims := tokenClaims{
		ProjectID: projectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   keyID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	active := s.keys.Active()
	token.Header["kid"] = active.ID

	signed, err := token.SignedString(active.Secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}
