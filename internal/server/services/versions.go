package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/dbx"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/dmitrijs2005/assetorigin/internal/server/objectstore"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// VersionStore owns frozen versions.
type VersionStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	registry    *AssetRegistry
}

func NewVersionStore(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Store, registry *AssetRegistry) *VersionStore {
	return &VersionStore{db: db, repomanager: rm, store: store, registry: registry}
}

// Publish freezes the asset's current bytes and returns the new version
// together with the repointed asset.
func (s *VersionStore) Publish(ctx context.Context, assetID string) (*models.Version, *models.Asset, error) {
	a, err := s.registry.Lookup(ctx, assetID)
	if err != nil {
		return nil, nil, err
	}
	return s.Freeze(ctx, a)
}

// Freeze runs in two phases. The bytes are first copied to a fresh key
// outside any transaction; if that fails nothing is recorded. Then the
// version row and the pointer move commit together or not at all. A
// rolled back second phase leaves the copied bytes unreferenced.
//
// The pointer only moves if it still holds the value asset was read with,
// so a concurrent publish that committed first makes this one fail with
// common.ErrVersionConflict.
func (s *VersionStore) Freeze(ctx context.Context, asset *models.Asset) (*models.Version, *models.Asset, error) {
	dst := objectstore.VersionKey(asset.ID)
	if err := s.store.Copy(ctx, asset.StorageKey, dst); err != nil {
		return nil, nil, fmt.Errorf("%w: duplicate %s: %v", common.ErrStoreUnavailable, asset.StorageKey, err)
	}

	var (
		version *models.Version
		updated *models.Asset
	)
	err := dbx.WithTx(ctx, s.db, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := s.repomanager.Versions(tx).Create(ctx, asset.ID, dst, asset.ETag)
		if err != nil {
			return err
		}
		a, err := s.repomanager.Assets(tx).RepointCurrentVersion(ctx, asset.ID, v.ID, asset.CurrentVersionID)
		if err != nil {
			return err
		}
		version, updated = v, a
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, nil, fmt.Errorf("freeze %s: %w", asset.ID, common.ErrVersionConflict)
		}
		return nil, nil, fmt.Errorf("%w: freeze %s: %w", common.ErrTransactionFailure, asset.ID, err)
	}

	version.MimeType = updated.MimeType
	return version, updated, nil
}

// Lookup returns the version with its parent's mime type.
func (s *VersionStore) Lookup(ctx context.Context, versionID string) (*models.Version, error) {
	if _, err := uuid.Parse(versionID); err != nil {
		return nil, common.ErrorNotFound
	}

	v, err := s.repomanager.Versions(s.db).GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up version: %w", err)
	}
	return v, nil
}
