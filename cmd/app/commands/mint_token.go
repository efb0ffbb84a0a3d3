package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	authService "github.com/pixelgrid/authcore/internal/auth/service"
)

// RunMintToken signs an auth token for the given key and project without a
// server round trip. Useful for bootstrapping and debugging. The token carries
// the same claims a token minted through the exchange endpoint would.
func RunMintToken(
	signer authService.TokenSigner,
	logger *slog.Logger,
	keyIDStr string,
	projectIDStr string,
	ttl time.Duration,
	format string,
	io IOTuple,
) error {
	keyID, err := uuid.Parse(keyIDStr)
	if err != nil {
		return fmt.Errorf("invalid key id: %w", err)
	}

	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}

	logger.Info("minting auth token",
		slog.String("key_id", keyID.String()),
		slog.String("project_id", projectID.String()),
		slog.Duration("ttl", ttl),
	)

	token, err := signer.Sign(keyID, projectID, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(ttl)

	if format == "json" {
		outputTokenJSON(token, expiresAt, io.Writer)
	} else {
		outputTokenText(token, expiresAt, io.Writer)
	}

	return nil
}

// outputTokenText outputs the token in human-readable text format.
func outputTokenText(token string, expiresAt time.Time, writer io.Writer) {
	_, _ = fmt.Fprintf(writer, "Token: %s\n", token)
	_, _ = fmt.Fprintf(writer, "Expires at: %s\n", expiresAt.Format(time.RFC3339))
}

// outputTokenJSON outputs the token in JSON format for machine consumption.
func outputTokenJSON(token string, expiresAt time.Time, writer io.Writer) {
	result := map[string]string{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
