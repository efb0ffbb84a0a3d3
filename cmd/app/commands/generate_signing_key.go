package commands

import (
	"fmt"
	"log/slog"
	"time"

	authService "github.com/pixelgrid/authcore/internal/auth/service"
)

// RunGenerateSigningKey generates a fresh random token signing key encoded as
// an "id:base64secret" spec suitable for the AUTH_SIGNING_KEY setting.
// If keyID is empty, generates a default ID in format "signing-key-YYYY-MM-DD".
//
// To rotate keys: move the current AUTH_SIGNING_KEY value to
// AUTH_SIGNING_KEY_PREVIOUS, set the new spec as AUTH_SIGNING_KEY and restart.
// Tokens signed with the previous key stay valid until they expire.
func RunGenerateSigningKey(logger *slog.Logger, keyID string, io IOTuple) error {
	if keyID == "" {
		keyID = fmt.Sprintf("signing-key-%s", time.Now().Format("2006-01-02"))
	}

	spec, err := authService.GenerateSigningKeySpec(keyID)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	logger.Info("signing key generated", slog.String("key_id", keyID))

	_, _ = fmt.Fprintf(io.Writer, "AUTH_SIGNING_KEY=\"%s\"\n", spec)

	return nil
}
