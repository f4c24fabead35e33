package accesstokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	q := `(?s)^\s*INSERT\s+INTO\s+access_tokens\s*\(token_hash,\s*asset_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	digest := []byte{0x01, 0x02, 0x03}
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(digest, "a-1", exp).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), digest, "a-1", exp))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("db down"))

		err := repo.Create(context.Background(), digest, "a-1", exp)
		require.Error(t, err)
		assert.Regexp(t, `db error: .*db down`, err.Error())
	})
}

func TestFind(t *testing.T) {
	q := `(?s)^\s*SELECT\s+t\.token_hash,\s*t\.expires_at,.*FROM\s+access_tokens\s+t\s+JOIN\s+assets\s+a\s+ON\s+a\.id\s*=\s*t\.asset_id\s+WHERE\s+t\.token_hash\s*=\s*\$1\s*$`
	cols := []string{"token_hash", "expires_at", "id", "object_storage_key", "mime_type", "etag", "size_bytes", "updated_at"}
	digest := []byte{0xaa, 0xbb}

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		exp := time.Now().Add(time.Minute).UTC()
		upd := time.Now().Add(-time.Hour).UTC()
		mock.ExpectQuery(q).WithArgs(digest).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(digest, exp, "a-1", "k", "text/plain", `"e"`, int64(5), upd))

		rec, err := repo.Find(context.Background(), digest)
		require.NoError(t, err)
		assert.Equal(t, digest, rec.Digest)
		assert.Equal(t, exp, rec.ExpiresAt)
		assert.Equal(t, "a-1", rec.Grant.AssetID)
		assert.Equal(t, "k", rec.Grant.StorageKey)
		assert.Equal(t, int64(5), rec.Grant.SizeBytes)
	})

	t.Run("unknown or orphaned", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(digest).WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), digest)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs(digest).WillReturnError(errors.New("timeout"))

		_, err := repo.Find(context.Background(), digest)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDeleteExpired(t *testing.T) {
	q := `(?s)^\s*DELETE\s+FROM\s+access_tokens\s+WHERE\s+expires_at\s*<=\s*\$1\s*$`
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 7))

		n, err := repo.DeleteExpired(context.Background(), now)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(q).WillReturnError(errors.New("boom"))

		_, err := repo.DeleteExpired(context.Background(), now)
		assert.Error(t, err)
	})
}
