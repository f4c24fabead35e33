// Package services contains the origin's business logic: the asset registry,
// version freezing, capability tokens and the cache decision engine that
// turns all three into download dispositions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/identity"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/dmitrijs2005/assetorigin/internal/server/objectstore"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

// UploadInput is a decoded upload. Body is read twice: once to hash, once
// to store.
type UploadInput struct {
	Filename  string
	MimeType  string
	IsPrivate bool
	Body      io.ReadSeeker
}

// AssetRegistry owns asset records. It never moves the current version
// pointer; only VersionStore does, inside its freeze transaction.
type AssetRegistry struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objectstore.Store
	now         func() time.Time
}

func NewAssetRegistry(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Store) *AssetRegistry {
	return &AssetRegistry{db: db, repomanager: rm, store: store, now: time.Now}
}

// Upload hashes the body, stores it under a fresh key and registers the
// asset. A missing body is a validation error; an empty one is fine.
func (s *AssetRegistry) Upload(ctx context.Context, in UploadInput) (*models.Asset, error) {
	if in.Body == nil {
		return nil, fmt.Errorf("%w: no file uploaded", common.ErrorValidation)
	}

	etag, size, err := identity.FromReader(in.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", common.ErrorValidation, err)
	}
	if _, err := in.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	key := objectstore.AssetKey(s.now())
	if err := s.store.Put(ctx, key, in.Body, size, mimeType); err != nil {
		return nil, err
	}

	return s.Register(ctx, models.NewAsset{
		StorageKey: key,
		Filename:   in.Filename,
		MimeType:   mimeType,
		SizeBytes:  size,
		ETag:       etag,
		IsPrivate:  in.IsPrivate,
	})
}

// Register persists an asset whose bytes are already stored.
func (s *AssetRegistry) Register(ctx context.Context, in models.NewAsset) (*models.Asset, error) {
	if in.StorageKey == "" {
		return nil, fmt.Errorf("%w: empty storage key", common.ErrorValidation)
	}

	a, err := s.repomanager.Assets(s.db).Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("error creating asset: %w", err)
	}
	return a, nil
}

// Lookup returns common.ErrorNotFound for unknown and malformed ids alike.
func (s *AssetRegistry) Lookup(ctx context.Context, id string) (*models.Asset, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	a, err := s.repomanager.Assets(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error looking up asset: %w", err)
	}
	return a, nil
}
