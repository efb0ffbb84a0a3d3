// Package repository implements data persistence for API key records.
//
// Provides PostgreSQL and MySQL implementations with transaction support via
// database.GetTx(), plus an optional redis read-through cache for the
// authentication hot path. PostgreSQL uses native UUID types, MySQL uses
// BINARY(16) types.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/database"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// PostgreSQLApiKeyRepository implements ApiKey persistence for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
type PostgreSQLApiKeyRepository struct {
	db *sql.DB
}

// wrapPostgresWriteError maps unique violations on (project_id, name) to
// ErrConflict so handlers can answer 409 instead of 500.
func wrapPostgresWriteError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.Wrap(apperrors.ErrConflict, "api key name already exists in project")
	}
	return apperrors.Wrap(err, message)
}

// Create inserts a new ApiKey into the PostgreSQL database.
func (p *PostgreSQLApiKeyRepository) Create(ctx context.Context, key *authDomain.ApiKey) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permissions")
	}

	query := `INSERT INTO api_keys (id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.ID,
		key.ProjectID,
		key.Name,
		key.SecretHash,
		permissionsJSON,
		key.Enabled,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return wrapPostgresWriteError(err, "failed to create api key")
	}
	return nil
}

// Update modifies an existing ApiKey in the PostgreSQL database.
func (p *PostgreSQLApiKeyRepository) Update(ctx context.Context, key *authDomain.ApiKey) error {
	querier := database.GetTx(ctx, p.db)

	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permissions")
	}

	query := `UPDATE api_keys
			  SET name = $1,
			  	  permissions = $2,
				  enabled = $3,
				  updated_at = $4
			  WHERE id = $5`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.Name,
		permissionsJSON,
		key.Enabled,
		key.UpdatedAt,
		key.ID,
	)
	if err != nil {
		return wrapPostgresWriteError(err, "failed to update api key")
	}

	return nil
}

// Get retrieves an ApiKey by ID from the PostgreSQL database.
func (p *PostgreSQLApiKeyRepository) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*authDomain.ApiKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at
			  FROM api_keys WHERE id = $1`

	var key authDomain.ApiKey
	var permissionsJSON []byte

	err := querier.QueryRowContext(ctx, query, keyID).Scan(
		&key.ID,
		&key.ProjectID,
		&key.Name,
		&key.SecretHash,
		&permissionsJSON,
		&key.Enabled,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrApiKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get api key")
	}

	if err := json.Unmarshal(permissionsJSON, &key.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal permissions")
	}

	return &key, nil
}

// ListByProject retrieves a project's ApiKeys ordered by ID descending with
// pagination support.
func (p *PostgreSQLApiKeyRepository) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at
			  FROM api_keys WHERE project_id = $1 ORDER BY id DESC OFFSET $2 LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, projectID, offset, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() { _ = rows.Close() }()

	keys := []*authDomain.ApiKey{}
	for rows.Next() {
		var key authDomain.ApiKey
		var permissionsJSON []byte

		if err := rows.Scan(
			&key.ID,
			&key.ProjectID,
			&key.Name,
			&key.SecretHash,
			&permissionsJSON,
			&key.Enabled,
			&key.CreatedAt,
			&key.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key")
		}

		if err := json.Unmarshal(permissionsJSON, &key.Permissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal permissions")
		}

		keys = append(keys, &key)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate api keys")
	}

	return keys, nil
}

// Delete removes an ApiKey from the PostgreSQL database.
func (p *PostgreSQLApiKeyRepository) Delete(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM api_keys WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, keyID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete api key")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to check deleted rows")
	}
	if affected == 0 {
		return authDomain.ErrApiKeyNotFound
	}

	return nil
}

// NewPostgreSQLApiKeyRepository creates a new PostgreSQL ApiKey repository.
func NewPostgreSQLApiKeyRepository(db *sql.DB) *PostgreSQLApiKeyRepository {
	return &PostgreSQLApiKeyRepository{db: db}
}
