package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assetCols = []string{"id", "object_storage_key", "filename", "mime_type", "size_bytes", "etag", "is_private",
	"current_version_id", "created_at", "updated_at"}

const etagHello = `"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"`

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	q := `(?s)^\s*INSERT\s+INTO\s+assets\s*\(id,\s*object_storage_key,.*is_private\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)\s*RETURNING\s+id,`
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "assets/2025/01/02/K", "hello.txt", "text/plain", int64(5), etagHello, false).
		WillReturnRows(sqlmock.NewRows(assetCols).
			AddRow("a-1", "assets/2025/01/02/K", "hello.txt", "text/plain", int64(5), etagHello, false, nil, now, now))

	got, err := repo.Create(context.Background(), models.NewAsset{
		StorageKey: "assets/2025/01/02/K",
		Filename:   "hello.txt",
		MimeType:   "text/plain",
		SizeBytes:  5,
		ETag:       etagHello,
	})
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.Nil(t, got.CurrentVersionID)
	assert.False(t, got.Published())
	assert.Equal(t, now, got.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+assets`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), models.NewAsset{StorageKey: "k"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByID(t *testing.T) {
	q := `(?s)^\s*SELECT\s+id,\s*object_storage_key,.*FROM\s+assets\s+WHERE\s+id\s*=\s*\$1\s*$`
	now := time.Now().UTC()

	t.Run("found and published", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("a-1").
			WillReturnRows(sqlmock.NewRows(assetCols).
				AddRow("a-1", "k", "f.bin", "application/octet-stream", int64(3), etagHello, true, "v-1", now, now))

		got, err := repo.GetByID(context.Background(), "a-1")
		require.NoError(t, err)
		require.NotNil(t, got.CurrentVersionID)
		assert.Equal(t, "v-1", *got.CurrentVersionID)
		assert.True(t, got.IsPrivate)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("a-1").WillReturnError(errors.New("conn reset"))

		_, err := repo.GetByID(context.Background(), "a-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "conn reset")
	})
}

func TestRepointCurrentVersion(t *testing.T) {
	q := `(?s)^\s*UPDATE\s+assets\s+SET\s+current_version_id\s*=\s*\$2,.*GREATEST\(.*WHERE\s+id\s*=\s*\$1\s+AND\s+current_version_id\s+IS\s+NOT\s+DISTINCT\s+FROM\s+\$3\s+RETURNING`
	now := time.Now().UTC()

	t.Run("first publish compares against null", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("a-1", "v-1", nil).
			WillReturnRows(sqlmock.NewRows(assetCols).
				AddRow("a-1", "k", "f", "text/plain", int64(5), etagHello, false, "v-1", now, now))

		got, err := repo.RepointCurrentVersion(context.Background(), "a-1", "v-1", nil)
		require.NoError(t, err)
		assert.Equal(t, "v-1", *got.CurrentVersionID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("later publish compares against previous version", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		prev := "v-1"
		mock.ExpectQuery(q).WithArgs("a-1", "v-2", "v-1").
			WillReturnRows(sqlmock.NewRows(assetCols).
				AddRow("a-1", "k", "f", "text/plain", int64(5), etagHello, false, "v-2", now, now))

		got, err := repo.RepointCurrentVersion(context.Background(), "a-1", "v-2", &prev)
		require.NoError(t, err)
		assert.Equal(t, "v-2", *got.CurrentVersionID)
	})

	t.Run("lost race", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		prev := "v-1"
		mock.ExpectQuery(q).WithArgs("a-1", "v-3", "v-1").WillReturnError(sql.ErrNoRows)

		_, err := repo.RepointCurrentVersion(context.Background(), "a-1", "v-3", &prev)
		assert.ErrorIs(t, err, common.ErrVersionConflict)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WillReturnError(errors.New("deadlock detected"))

		_, err := repo.RepointCurrentVersion(context.Background(), "a-1", "v-3", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrVersionConflict)
	})
}
