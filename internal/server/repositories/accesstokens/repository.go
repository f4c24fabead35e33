// Package accesstokens declares the repository contract for private-access
// capability tokens. Only a digest of each token is ever stored.
package accesstokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/server/models"
)

// Record is a stored token joined with the asset it grants.
type Record struct {
	Digest    []byte
	ExpiresAt time.Time
	Grant     models.AccessGrant
}

type Repository interface {
	// Create stores the digest of a newly issued token.
	Create(ctx context.Context, digest []byte, assetID string, expiresAt time.Time) error

	// Find returns the token with the given digest joined with its asset.
	// A token whose asset no longer exists is reported as common.ErrorNotFound.
	Find(ctx context.Context, digest []byte) (*Record, error)

	// DeleteExpired removes tokens that expired before now and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
