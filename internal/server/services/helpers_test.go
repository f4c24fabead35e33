package services

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/assetorigin/internal/dbx"
	"github.com/dmitrijs2005/assetorigin/internal/server/objectstore"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/assets"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/versions"
	"github.com/stretchr/testify/require"
)

// flakyStore wraps a MemoryStore and fails selected operations.
type flakyStore struct {
	*objectstore.MemoryStore
	putErr  error
	copyErr error
	copies  int
}

func (f *flakyStore) Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.MemoryStore.Put(ctx, key, body, size, contentType)
}

func (f *flakyStore) Copy(ctx context.Context, src, dst string) error {
	f.copies++
	if f.copyErr != nil {
		return f.copyErr
	}
	return f.MemoryStore.Copy(ctx, src, dst)
}

type testEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *repomanager.InMemoryRepositoryManager
	store    *flakyStore
	registry *AssetRegistry
	versions *VersionStore
	tokens   *TokenIssuer
	engine   *CacheDecisionEngine
	clock    *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:    db,
		mock:  mock,
		rm:    repomanager.NewInMemoryRepositoryManager(),
		store: &flakyStore{MemoryStore: objectstore.NewMemoryStore()},
		clock: &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	env.registry = NewAssetRegistry(db, env.rm, env.store)
	env.registry.now = env.clock.now
	env.versions = NewVersionStore(db, env.rm, env.store, env.registry)
	env.tokens = NewTokenIssuer(db, env.rm, 15*time.Minute, 24*time.Hour)
	env.tokens.now = env.clock.now
	env.engine = NewCacheDecisionEngine(env.registry, env.versions, env.tokens)
	return env
}

// expectFreezeTx registers the transaction boundary of one successful freeze.
func (env *testEnv) expectFreezeTx() {
	env.mock.ExpectBegin()
	env.mock.ExpectCommit()
}

func readAll(t *testing.T, store objectstore.Store, key string) string {
	t.Helper()
	obj, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer obj.Body.Close()
	b, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return string(b)
}

// stubManager serves the in-memory repositories except where an override
// is set.
type stubManager struct {
	*repomanager.InMemoryRepositoryManager
	assets   assets.Repository
	versions versions.Repository
	tokens   accesstokens.Repository
}

func (m *stubManager) Assets(db dbx.DBTX) assets.Repository {
	if m.assets != nil {
		return m.assets
	}
	return m.InMemoryRepositoryManager.Assets(db)
}

func (m *stubManager) Versions(db dbx.DBTX) versions.Repository {
	if m.versions != nil {
		return m.versions
	}
	return m.InMemoryRepositoryManager.Versions(db)
}

func (m *stubManager) AccessTokens(db dbx.DBTX) accesstokens.Repository {
	if m.tokens != nil {
		return m.tokens
	}
	return m.InMemoryRepositoryManager.AccessTokens(db)
}
