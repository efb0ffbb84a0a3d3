package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// SigningKey is one versioned HMAC signing key. The ID travels in the token
// header as "kid" so validators can select the right key during rotation.
type SigningKey struct {
	ID     string
	Secret []byte
}

// SigningKeySet is an immutable set of accepted signing keys: the active key
// used for minting plus at most one prior key accepted during the rotation
// grace period. Rotation replaces the whole set at startup or config refresh;
// keys are never mutated in place.
type SigningKeySet struct {
	active   SigningKey
	previous *SigningKey
}

// NewSigningKeySet builds a key set from encoded key specs in "id:base64secret"
// form. The previous spec may be empty when no rotation is in progress.
func NewSigningKeySet(activeSpec, previousSpec string) (*SigningKeySet, error) {
	active, err := parseSigningKey(activeSpec)
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid active signing key")
	}

	set := &SigningKeySet{active: active}

	if previousSpec != "" {
		previous, err := parseSigningKey(previousSpec)
		if err != nil {
			return nil, apperrors.Wrap(err, "invalid previous signing key")
		}
		if previous.ID == active.ID {
			return nil, apperrors.New("previous signing key must have a distinct id")
		}
		set.previous = &previous
	}

	return set, nil
}

// Active returns the key used for minting new tokens.
func (s *SigningKeySet) Active() SigningKey {
	return s.active
}

// Lookup returns the secret for the given key id. Both the active key and the
// grace-period key are accepted for verification.
func (s *SigningKeySet) Lookup(keyID string) ([]byte, bool) {
	if keyID == s.active.ID {
		return s.active.Secret, true
	}
	if s.previous != nil && keyID == s.previous.ID {
		return s.previous.Secret, true
	}
	return nil, false
}

// parseSigningKey decodes an "id:base64secret" spec.
func parseSigningKey(spec string) (SigningKey, error) {
	id, encoded, found := strings.Cut(spec, ":")
	if !found || id == "" || encoded == "" {
		return SigningKey{}, fmt.Errorf("signing key must be in 'id:base64secret' form")
	}

	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return SigningKey{}, fmt.Errorf("signing key secret is not valid base64: %w", err)
	}
	if len(secret) < 32 {
		return SigningKey{}, fmt.Errorf("signing key secret must be at least 32 bytes")
	}

	return SigningKey{ID: id, Secret: secret}, nil
}

// GenerateSigningKeySpec creates a fresh random signing key encoded as an
// "id:base64secret" spec suitable for the AUTH_SIGNING_KEY setting.
func GenerateSigningKeySpec(id string) (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", apperrors.Wrap(err, "failed to generate signing key")
	}
	return fmt.Sprintf("%s:%s", id, base64.StdEncoding.EncodeToString(secret)), nil
}
