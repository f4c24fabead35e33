package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS asset_versions (id INTEGER PRIMARY KEY, etag TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func versionCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM asset_versions`).Scan(&n))
	return n
}

func insertVersion(ctx context.Context, tx DBTX, etag string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO asset_versions(etag) VALUES (?)`, etag)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := insertVersion(ctx, tx, `"a"`); err != nil {
			return err
		}
		return insertVersion(ctx, tx, `"b"`)
	})
	require.NoError(t, err)
	require.Equal(t, 2, versionCount(t, db))
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, insertVersion(ctx, tx, `"a"`))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, versionCount(t, db), "partial work must not survive")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openDB(t)

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, insertVersion(ctx, tx, `"a"`))
			panic("kaput")
		})
	})
	require.Equal(t, 0, versionCount(t, db))
}

func TestWithTx_BeginError(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
}
