package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadHello(t *testing.T, env *testEnv) *models.Asset {
	t.Helper()
	a, err := env.registry.Upload(context.Background(), UploadInput{
		Filename: "hello.txt",
		MimeType: "text/plain",
		Body:     strings.NewReader("hello"),
	})
	require.NoError(t, err)
	return a
}

func TestVersionStore_Publish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := uploadHello(t, env)

	env.expectFreezeTx()
	v, updated, err := env.versions.Publish(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())

	assert.Equal(t, a.ID, v.AssetID)
	assert.Equal(t, a.ETag, v.ETag)
	assert.NotEqual(t, a.StorageKey, v.StorageKey)
	assert.True(t, strings.HasPrefix(v.StorageKey, "versions/"+a.ID+"/"))
	assert.Equal(t, "hello", readAll(t, env.store, v.StorageKey))

	require.NotNil(t, updated.CurrentVersionID)
	assert.Equal(t, v.ID, *updated.CurrentVersionID)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))

	got, err := env.versions.Lookup(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", got.MimeType)
}

func TestVersionStore_RepeatedPublishKeepsOldVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := uploadHello(t, env)

	env.expectFreezeTx()
	v1, _, err := env.versions.Publish(ctx, a.ID)
	require.NoError(t, err)

	env.expectFreezeTx()
	v2, updated, err := env.versions.Publish(ctx, a.ID)
	require.NoError(t, err)

	assert.NotEqual(t, v1.ID, v2.ID)
	assert.Equal(t, v2.ID, *updated.CurrentVersionID)

	old, err := env.versions.Lookup(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.StorageKey, old.StorageKey)
	assert.Equal(t, "hello", readAll(t, env.store, old.StorageKey))
}

func TestVersionStore_Publish_UnknownAsset(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.versions.Publish(context.Background(), "0b6a3c8e-7d1f-4f0c-9d55-6c1f5f8d2a11")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, env.store.copies)
}

func TestVersionStore_Freeze_CopyFailureRecordsNothing(t *testing.T) {
	env := newTestEnv(t)
	a := uploadHello(t, env)
	env.store.copyErr = errors.New("s3 timeout")

	_, _, err := env.versions.Freeze(context.Background(), a)
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	require.NoError(t, env.mock.ExpectationsWereMet(), "no transaction may start")

	after, err := env.registry.Lookup(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, after.Published())
}

func TestVersionStore_Freeze_MissingSourceIsStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	a := uploadHello(t, env)
	a.StorageKey = "assets/gone"

	_, _, err := env.versions.Freeze(context.Background(), a)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

type failingVersions struct{ err error }

func (f failingVersions) Create(context.Context, string, string, string) (*models.Version, error) {
	return nil, f.err
}

func (f failingVersions) GetByID(context.Context, string) (*models.Version, error) {
	return nil, common.ErrorNotFound
}

func TestVersionStore_Freeze_InsertFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	a := uploadHello(t, env)
	env.versions.repomanager = &stubManager{InMemoryRepositoryManager: env.rm, versions: failingVersions{err: errors.New("disk full")}}

	env.mock.ExpectBegin()
	env.mock.ExpectRollback()

	_, _, err := env.versions.Freeze(context.Background(), a)
	require.ErrorIs(t, err, common.ErrTransactionFailure)
	require.NoError(t, env.mock.ExpectationsWereMet())

	after, err := env.registry.Lookup(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, after.Published())
	assert.Equal(t, 1, env.store.copies, "copied bytes are left behind, not compensated")
}

func TestVersionStore_Freeze_CommitFailure(t *testing.T) {
	env := newTestEnv(t)
	a := uploadHello(t, env)

	env.mock.ExpectBegin()
	env.mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	_, _, err := env.versions.Freeze(context.Background(), a)
	assert.ErrorIs(t, err, common.ErrTransactionFailure)
}

func TestVersionStore_Freeze_BeginFailure(t *testing.T) {
	env := newTestEnv(t)
	a := uploadHello(t, env)

	env.mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, _, err := env.versions.Freeze(context.Background(), a)
	assert.ErrorIs(t, err, common.ErrTransactionFailure)
}

func TestVersionStore_Freeze_ConcurrentPublishLoses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := uploadHello(t, env)
	stale := *a

	env.expectFreezeTx()
	winner, _, err := env.versions.Freeze(ctx, a)
	require.NoError(t, err)

	env.mock.ExpectBegin()
	env.mock.ExpectRollback()
	_, _, err = env.versions.Freeze(ctx, &stale)
	require.ErrorIs(t, err, common.ErrVersionConflict)
	assert.NotErrorIs(t, err, common.ErrTransactionFailure)
	require.NoError(t, env.mock.ExpectationsWereMet())

	current, err := env.registry.Lookup(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, *current.CurrentVersionID)
}

func TestVersionStore_Lookup_Malformed(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.versions.Lookup(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
