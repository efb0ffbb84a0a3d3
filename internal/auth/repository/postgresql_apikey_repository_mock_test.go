package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/pixelgrid/authcore/internal/auth/domain"
	apperrors "github.com/pixelgrid/authcore/internal/errors"
)

// Driver-level failure mapping is exercised against sqlmock so it runs without
// a live database. Query semantics are covered by the integration tests.

func newMockRepo(t *testing.T) (*PostgreSQLApiKeyRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgreSQLApiKeyRepository(db), mock
}

func TestPostgreSQLApiKeyRepository_Get_MapsNoRowsToNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	keyID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT (.+) FROM api_keys").
		WithArgs(keyID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), keyID)

	assert.ErrorIs(t, err, authDomain.ErrApiKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApiKeyRepository_Get_WrapsDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	keyID := uuid.Must(uuid.NewV7())

	mock.ExpectQuery("SELECT (.+) FROM api_keys").
		WithArgs(keyID).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.Get(context.Background(), keyID)

	require.Error(t, err)
	assert.NotErrorIs(t, err, authDomain.ErrApiKeyNotFound)
	assert.Contains(t, err.Error(), "failed to get api key")
}

func TestPostgreSQLApiKeyRepository_Get_RejectsCorruptPermissions(t *testing.T) {
	repo, mock := newMockRepo(t)
	keyID := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "name", "secret_hash", "permissions", "enabled", "created_at", "updated_at",
	}).AddRow(
		keyID.String(), uuid.Must(uuid.NewV7()).String(), "harvester", "hash",
		[]byte("not-json"), true, now, now,
	)

	mock.ExpectQuery("SELECT (.+) FROM api_keys").
		WithArgs(keyID).
		WillReturnRows(rows)

	_, err := repo.Get(context.Background(), keyID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal permissions")
}

func TestPostgreSQLApiKeyRepository_Delete_MapsZeroRowsToNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	keyID := uuid.Must(uuid.NewV7())

	mock.ExpectExec("DELETE FROM api_keys").
		WithArgs(keyID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), keyID)

	assert.ErrorIs(t, err, authDomain.ErrApiKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApiKeyRepository_Delete_Success(t *testing.T) {
	repo, mock := newMockRepo(t)
	keyID := uuid.Must(uuid.NewV7())

	mock.ExpectExec("DELETE FROM api_keys").
		WithArgs(keyID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), keyID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLApiKeyRepository_Create_WrapsDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	key := testApiKey(uuid.Must(uuid.NewV7()), "harvester")

	mock.ExpectExec("INSERT INTO api_keys").
		WillReturnError(errors.New("connection reset by peer"))

	err := repo.Create(context.Background(), key)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "failed to create api key")
}

func TestPostgreSQLApiKeyRepository_Create_MapsUniqueViolationToConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	key := testApiKey(uuid.Must(uuid.NewV7()), "harvester")

	mock.ExpectExec("INSERT INTO api_keys").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "uq_api_keys_project_id_name"})

	err := repo.Create(context.Background(), key)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "already exists")
}

func TestPostgreSQLApiKeyRepository_Update_MapsUniqueViolationToConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	key := testApiKey(uuid.Must(uuid.NewV7()), "harvester")

	mock.ExpectExec("UPDATE api_keys").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "uq_api_keys_project_id_name"})

	err := repo.Update(context.Background(), key)

	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
