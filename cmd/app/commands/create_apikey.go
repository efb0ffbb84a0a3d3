package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	authUseCase "github.com/pixelgrid/authcore/internal/auth/usecase"
)

// RunCreateApiKey provisions a new API key for a project.
// Permission names are comma-separated and validated against the catalog.
// Outputs the key ID, plain secret and inline credential in either text or
// JSON format. The plain secret is shown only once.
//
// Requirements: Database must be migrated and accessible.
func RunCreateApiKey(
	ctx context.Context,
	apiKeyUseCase authUseCase.ApiKeyUseCase,
	logger *slog.Logger,
	projectIDStr string,
	name string,
	permissionsCSV string,
	enabled bool,
	format string,
	io IOTuple,
) error {
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return fmt.Errorf("invalid project id: %w", err)
	}

	permissions, err := parsePermissions(permissionsCSV)
	if err != nil {
		return err
	}

	logger.Info("creating new api key",
		slog.String("project_id", projectID.String()),
		slog.String("name", name),
	)

	input := &authDomain.CreateApiKeyInput{
		ProjectID:   projectID,
		Name:        name,
		Permissions: permissions,
		Enabled:     enabled,
	}

	output, err := apiKeyUseCase.Create(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	if format == "json" {
		outputApiKeyJSON(output, io.Writer)
	} else {
		outputApiKeyText(output, io.Writer)
	}

	logger.Info("api key created successfully",
		slog.String("key_id", output.ID.String()),
		slog.String("project_id", projectID.String()),
		slog.String("name", name),
	)

	return nil
}

// parsePermissions converts a comma-separated string into catalog capabilities.
// Unknown permission names are rejected.
func parsePermissions(input string) ([]authDomain.Capability, error) {
	parts := strings.Split(input, ",")
	permissions := make([]authDomain.Capability, 0, len(parts))

	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		capability := authDomain.Capability(name)
		if !authDomain.KnownCapability(capability) {
			return nil, fmt.Errorf("unknown permission: %s", name)
		}
		permissions = append(permissions, capability)
	}

	if len(permissions) == 0 {
		return nil, fmt.Errorf("at least one permission is required")
	}

	return permissions, nil
}

// outputApiKeyText outputs the result in human-readable text format.
func outputApiKeyText(output *authDomain.CreateApiKeyOutput, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nAPI key created successfully!")
	_, _ = fmt.Fprintf(writer, "Key ID: %s\n", output.ID.String())
	_, _ = fmt.Fprintf(writer, "Secret: %s\n", output.PlainSecret)
	_, _ = fmt.Fprintf(writer, "Inline credential: %s\n", output.InlineCredential)
	_, _ = fmt.Fprintln(writer, "\nIMPORTANT: The secret is shown only once. Store it securely.")
}

// outputApiKeyJSON outputs the result in JSON format for machine consumption.
func outputApiKeyJSON(output *authDomain.CreateApiKeyOutput, writer io.Writer) {
	result := map[string]string{
		"key_id":            output.ID.String(),
		"secret":            output.PlainSecret,
		"inline_credential": output.InlineCredential,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
