package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	"github.com/pixelgrid/authcore/internal/database"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// duplicateEntry is the MySQL error number for unique key violations.
const duplicateEntry = 1062

// MySQLApiKeyRepository implements ApiKey persistence for MySQL.
// Uses BINARY(16) for UUID storage with transaction support via database.GetTx().
type MySQLApiKeyRepository struct {
	db *sql.DB
}

// wrapMySQLWriteError maps unique key violations on (project_id, name) to
// ErrConflict so handlers can answer 409 instead of 500.
func wrapMySQLWriteError(err error, message string) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == duplicateEntry {
		return apperrors.Wrap(apperrors.ErrConflict, "api key name already exists in project")
	}
	return apperrors.Wrap(err, message)
}

// Create inserts a new ApiKey into the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLApiKeyRepository) Create(ctx context.Context, key *authDomain.ApiKey) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permissions")
	}

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key id")
	}

	projectID, err := key.ProjectID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal project id")
	}

	query := `INSERT INTO api_keys (id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		projectID,
		key.Name,
		key.SecretHash,
		permissionsJSON,
		key.Enabled,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return wrapMySQLWriteError(err, "failed to create api key")
	}
	return nil
}

// Update modifies an existing ApiKey in the MySQL database using BINARY(16) for UUIDs.
func (m *MySQLApiKeyRepository) Update(ctx context.Context, key *authDomain.ApiKey) error {
	querier := database.GetTx(ctx, m.db)

	permissionsJSON, err := json.Marshal(key.Permissions)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal permissions")
	}

	id, err := key.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key id")
	}

	query := `UPDATE api_keys
			  SET name = ?,
			  	  permissions = ?,
				  enabled = ?,
				  updated_at = ?
			  WHERE id = ?`

	_, err = querier.ExecContext(
		ctx,
		query,
		key.Name,
		permissionsJSON,
		key.Enabled,
		key.UpdatedAt,
		id,
	)
	if err != nil {
		return wrapMySQLWriteError(err, "failed to update api key")
	}

	return nil
}

// Get retrieves an ApiKey by ID from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrApiKeyNotFound if the key doesn't exist.
func (m *MySQLApiKeyRepository) Get(
	ctx context.Context,
	keyID uuid.UUID,
) (*authDomain.ApiKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at
			  FROM api_keys WHERE id = ?`

	id, err := keyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal api key id")
	}

	var key authDomain.ApiKey
	var idBytes []byte
	var projectIDBytes []byte
	var permissionsJSON []byte

	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&projectIDBytes,
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

	if err := key.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal api key id")
	}
	if err := key.ProjectID.UnmarshalBinary(projectIDBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal project id")
	}
	if err := json.Unmarshal(permissionsJSON, &key.Permissions); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal permissions")
	}

	return &key, nil
}

// ListByProject retrieves a project's ApiKeys ordered by ID descending with
// pagination support using BINARY(16) for UUIDs. Returns empty slice if no keys
// found.
func (m *MySQLApiKeyRepository) ListByProject(
	ctx context.Context,
	projectID uuid.UUID,
	offset, limit int,
) ([]*authDomain.ApiKey, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, project_id, name, secret_hash, permissions, enabled, created_at, updated_at
			  FROM api_keys
			  WHERE project_id = ?
			  ORDER BY id DESC
			  LIMIT ? OFFSET ?`

	projectIDBinary, err := projectID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal project id")
	}

	rows, err := querier.QueryContext(ctx, query, projectIDBinary, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list api keys")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Initialize empty slice to avoid returning nil for empty results
	keys := make([]*authDomain.ApiKey, 0)
	for rows.Next() {
		var key authDomain.ApiKey
		var idBytes []byte
		var projectIDBytes []byte
		var permissionsJSON []byte

		err := rows.Scan(
			&idBytes,
			&projectIDBytes,
			&key.Name,
			&key.SecretHash,
			&permissionsJSON,
			&key.Enabled,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan api key row")
		}

		if err := key.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal api key id")
		}
		if err := key.ProjectID.UnmarshalBinary(projectIDBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal project id")
		}
		if err := json.Unmarshal(permissionsJSON, &key.Permissions); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal permissions")
		}

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "error iterating api key rows")
	}

	return keys, nil
}

// Delete removes an ApiKey from the MySQL database using BINARY(16) for UUIDs.
// Returns ErrApiKeyNotFound if the key doesn't exist.
func (m *MySQLApiKeyRepository) Delete(ctx context.Context, keyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := keyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal api key id")
	}

	query := `DELETE FROM api_keys WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
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

// NewMySQLApiKeyRepository creates a new MySQL ApiKey repository.
func NewMySQLApiKeyRepository(db *sql.DB) *MySQLApiKeyRepository {
	return &MySQLApiKeyRepository{db: db}
}
