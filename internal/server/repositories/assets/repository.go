// Package assets declares the repository contract for asset records.
package assets

import (
	"context"

	"github.com/dmitrijs2005/assetorigin/internal/server/models"
)

// Repository persists Asset records.
type Repository interface {
	// Create stores a new asset under a freshly generated id.
	Create(ctx context.Context, in models.NewAsset) (*models.Asset, error)

	// GetByID returns common.ErrorNotFound when no asset has the id.
	GetByID(ctx context.Context, id string) (*models.Asset, error)

	// RepointCurrentVersion moves the current version pointer to versionID,
	// but only if it still equals expected (nil meaning unpublished). A lost
	// race yields common.ErrVersionConflict and changes nothing.
	RepointCurrentVersion(ctx context.Context, assetID, versionID string, expected *string) (*models.Asset, error)
}
