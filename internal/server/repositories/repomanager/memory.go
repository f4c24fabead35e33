package repomanager

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/dbx"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/assets"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/versions"
	"github.com/google/uuid"
)

// InMemoryRepositoryManager keeps all records in process memory. The DBTX
// handed to its factories is ignored, so work done "inside" a transaction is
// not undone by a rollback. It backs API tests and local runs without a
// database.
type InMemoryRepositoryManager struct {
	mu       sync.Mutex
	assets   map[string]models.Asset
	versions map[string]models.Version
	tokens   []accesstokens.Record
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		assets:   make(map[string]models.Asset),
		versions: make(map[string]models.Version),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Assets(dbx.DBTX) assets.Repository {
	return memAssets{m}
}

func (m *InMemoryRepositoryManager) Versions(dbx.DBTX) versions.Repository {
	return memVersions{m}
}

func (m *InMemoryRepositoryManager) AccessTokens(dbx.DBTX) accesstokens.Repository {
	return memTokens{m}
}

type memAssets struct{ m *InMemoryRepositoryManager }

func (r memAssets) Create(_ context.Context, in models.NewAsset) (*models.Asset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := time.Now().UTC()
	a := models.Asset{
		ID:         uuid.NewString(),
		StorageKey: in.StorageKey,
		Filename:   in.Filename,
		MimeType:   in.MimeType,
		SizeBytes:  in.SizeBytes,
		ETag:       in.ETag,
		IsPrivate:  in.IsPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.m.assets[a.ID] = a
	return &a, nil
}

func (r memAssets) GetByID(_ context.Context, id string) (*models.Asset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.assets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r memAssets) RepointCurrentVersion(_ context.Context, assetID, versionID string, expected *string) (*models.Asset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.assets[assetID]
	if !ok || !sameVersion(a.CurrentVersionID, expected) {
		return nil, common.ErrVersionConflict
	}

	next := time.Now().UTC()
	if !next.After(a.UpdatedAt) {
		next = a.UpdatedAt.Add(time.Microsecond)
	}
	id := versionID
	a.CurrentVersionID = &id
	a.UpdatedAt = next
	r.m.assets[assetID] = a
	return &a, nil
}

func sameVersion(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type memVersions struct{ m *InMemoryRepositoryManager }

func (r memVersions) Create(_ context.Context, assetID, storageKey, etag string) (*models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	v := models.Version{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		StorageKey: storageKey,
		ETag:       etag,
		CreatedAt:  time.Now().UTC(),
	}
	r.m.versions[v.ID] = v
	return &v, nil
}

func (r memVersions) GetByID(_ context.Context, id string) (*models.Version, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	v, ok := r.m.versions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	parent, ok := r.m.assets[v.AssetID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	v.MimeType = parent.MimeType
	return &v, nil
}

type memTokens struct{ m *InMemoryRepositoryManager }

func (r memTokens) Create(_ context.Context, digest []byte, assetID string, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.tokens = append(r.m.tokens, accesstokens.Record{
		Digest:    append([]byte(nil), digest...),
		ExpiresAt: expiresAt.UTC(),
		Grant:     models.AccessGrant{AssetID: assetID},
	})
	return nil
}

func (r memTokens) Find(_ context.Context, digest []byte) (*accesstokens.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, t := range r.m.tokens {
		if subtle.ConstantTimeCompare(t.Digest, digest) != 1 {
			continue
		}
		a, ok := r.m.assets[t.Grant.AssetID]
		if !ok {
			return nil, common.ErrorNotFound
		}
		rec := t
		rec.Grant = models.AccessGrant{
			AssetID:    a.ID,
			StorageKey: a.StorageKey,
			MimeType:   a.MimeType,
			ETag:       a.ETag,
			SizeBytes:  a.SizeBytes,
			UpdatedAt:  a.UpdatedAt,
		}
		return &rec, nil
	}
	return nil, common.ErrorNotFound
}

func (r memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	kept := r.m.tokens[:0]
	var removed int64
	for _, t := range r.m.tokens {
		if !t.ExpiresAt.After(now) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	r.m.tokens = kept
	return removed, nil
}
