package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/dbx"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, assetID, storageKey, etag string) (*models.Version, error) {
	query := `
		INSERT INTO asset_versions (id, asset_id, object_storage_key, etag)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	v := &models.Version{
		ID:         uuid.NewString(),
		AssetID:    assetID,
		StorageKey: storageKey,
		ETag:       etag,
	}
	if err := r.db.QueryRowContext(ctx, query, v.ID, assetID, storageKey, etag).Scan(&v.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Version, error) {
	query := `
		SELECT v.id, v.asset_id, v.object_storage_key, v.etag, v.created_at, a.mime_type
		FROM asset_versions v
		JOIN assets a ON a.id = v.asset_id
		WHERE v.id = $1`

	v := &models.Version{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&v.ID, &v.AssetID, &v.StorageKey, &v.ETag, &v.CreatedAt, &v.MimeType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}
