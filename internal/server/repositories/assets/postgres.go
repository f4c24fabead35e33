package assets

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

// PostgresRepository implements Repository over dbx.DBTX, so it can be bound
// to the pool or to a running transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const assetColumns = `id, object_storage_key, filename, mime_type, size_bytes, etag, is_private,
		current_version_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var (
		a       models.Asset
		current sql.NullString
	)
	err := row.Scan(&a.ID, &a.StorageKey, &a.Filename, &a.MimeType, &a.SizeBytes, &a.ETag, &a.IsPrivate,
		&current, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if current.Valid {
		a.CurrentVersionID = &current.String
	}
	return &a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, in models.NewAsset) (*models.Asset, error) {
	query := `
		INSERT INTO assets (id, object_storage_key, filename, mime_type, size_bytes, etag, is_private)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + assetColumns

	row := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), in.StorageKey, in.Filename, in.MimeType, in.SizeBytes, in.ETag, in.IsPrivate)

	a, err := scanAsset(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE id = $1`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// RepointCurrentVersion keeps updated_at strictly increasing even when the
// database clock has not advanced since the previous mutation.
func (r *PostgresRepository) RepointCurrentVersion(ctx context.Context, assetID, versionID string, expected *string) (*models.Asset, error) {
	query := `
		UPDATE assets
		SET current_version_id = $2,
			updated_at = GREATEST(CURRENT_TIMESTAMP, updated_at + interval '1 microsecond')
		WHERE id = $1 AND current_version_id IS NOT DISTINCT FROM $3
		RETURNING ` + assetColumns

	var prev sql.NullString
	if expected != nil {
		prev = sql.NullString{String: *expected, Valid: true}
	}

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, assetID, versionID, prev))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
