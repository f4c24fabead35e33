// Package versions declares the repository contract for frozen versions.
package versions

import (
	"context"

	"github.com/dmitrijs2005/assetorigin/internal/server/models"
)

// Repository persists Version records. There is no update or delete.
type Repository interface {
	// Create records a frozen snapshot of assetID stored at storageKey.
	Create(ctx context.Context, assetID, storageKey, etag string) (*models.Version, error)

	// GetByID returns the version together with its parent's mime type, or
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Version, error)
}
