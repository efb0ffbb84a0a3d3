package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pixelgrid/authcore/internal/errors"
	"github.com/pixelgrid/authcore/internal/testutil"
)

func TestMySQLApiKeyRepository_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLApiKeyRepository(db)
	ctx := context.Background()
	projectID := uuid.Must(uuid.NewV7())

	key := testApiKey(projectID, "harvester")
	require.NoError(t, repo.Create(ctx, key))

	retrieved, err := repo.Get(ctx, key.ID)
	require.NoError(t, err)

	assert.Equal(t, key.ID, retrieved.ID)
	assert.Equal(t, key.ProjectID, retrieved.ProjectID)
	assert.Equal(t, key.Name, retrieved.Name)
	assert.Equal(t, key.Permissions, retrieved.Permissions)
	assert.True(t, retrieved.Enabled)
}

func TestMySQLApiKeyRepository_Get_NotFound(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	repo := NewMySQLApiKeyRepository(db)

	_, err := repo.Get(context.Background(), uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMySQLApiKeyRepository_UpdateAndDelete(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLApiKeyRepository(db)
	ctx := context.Background()

	key := testApiKey(uuid.Must(uuid.NewV7()), "harvester")
	require.NoError(t, repo.Create(ctx, key))

	key.Enabled = false
	key.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, key))

	retrieved, err := repo.Get(ctx, key.ID)
	require.NoError(t, err)
	assert.False(t, retrieved.Enabled)

	require.NoError(t, repo.Delete(ctx, key.ID))
	_, err = repo.Get(ctx, key.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMySQLApiKeyRepository_ListByProject(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLApiKeyRepository(db)
	ctx := context.Background()
	projectID := uuid.Must(uuid.NewV7())

	first := testApiKey(projectID, "first")
	require.NoError(t, repo.Create(ctx, first))
	time.Sleep(time.Millisecond) // Ensure different timestamp for UUIDv7
	second := testApiKey(projectID, "second")
	require.NoError(t, repo.Create(ctx, second))

	keys, err := repo.ListByProject(ctx, projectID, 0, 10)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, second.ID, keys[0].ID)
	assert.Equal(t, first.ID, keys[1].ID)
}
