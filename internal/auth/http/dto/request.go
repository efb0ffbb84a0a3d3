// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	customValidation "github.com/pixelgrid/authcore/internal/validation"
)

// CreateApiKeyRequest contains the parameters for provisioning a new API key.
type CreateApiKeyRequest struct {
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Enabled     bool     `json:"enabled"`
}

// Validate checks if the create API key request is valid.
func (r *CreateApiKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProjectID,
			validation.Required,
			customValidation.UUID,
		),
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Permissions,
			validation.Each(validation.By(validatePermissionName)),
		),
	)
}

// UpdateApiKeyRequest contains the parameters for updating an existing API key.
type UpdateApiKeyRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Enabled     bool     `json:"enabled"`
}

// Validate checks if the update API key request is valid.
func (r *UpdateApiKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			validation.Length(1, 255),
		),
		validation.Field(&r.Permissions,
			validation.Each(validation.By(validatePermissionName)),
		),
	)
}

// validatePermissionName rejects permission names absent from the capability
// catalog.
func validatePermissionName(value interface{}) error {
	name, ok := value.(string)
	if !ok {
		return validation.NewError("validation_permission_type", "must be a permission name")
	}
	if !authDomain.KnownCapability(authDomain.Capability(name)) {
		return validation.NewError("validation_permission_unknown", "must be a known permission")
	}
	return nil
}

// MapPermissions converts permission names to domain capabilities.
func MapPermissions(names []string) []authDomain.Capability {
	permissions := make([]authDomain.Capability, 0, len(names))
	for _, name := range names {
		permissions = append(permissions, authDomain.Capability(name))
	}
	return permissions
}
