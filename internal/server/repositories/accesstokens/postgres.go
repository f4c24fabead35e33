package accesstokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, digest []byte, assetID string, expiresAt time.Time) error {
	query := `
		INSERT INTO access_tokens (token_hash, asset_id, expires_at)
		VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, digest, assetID, expiresAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, digest []byte) (*Record, error) {
	query := `
		SELECT t.token_hash, t.expires_at, a.id, a.object_storage_key, a.mime_type, a.etag, a.size_bytes, a.updated_at
		FROM access_tokens t
		JOIN assets a ON a.id = t.asset_id
		WHERE t.token_hash = $1`

	rec := &Record{}
	g := &rec.Grant
	err := r.db.QueryRowContext(ctx, query, digest).
		Scan(&rec.Digest, &rec.ExpiresAt, &g.AssetID, &g.StorageKey, &g.MimeType, &g.ETag, &g.SizeBytes, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM access_tokens
		WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
