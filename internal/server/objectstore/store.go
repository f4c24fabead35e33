// Package objectstore holds the byte storage used for asset content. The
// origin only needs a handful of operations, so S3 and an in-memory map can
// both provide them.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/ids"
)

// Store is the byte storage collaborator. Failures are reported wrapped in
// common.ErrStoreUnavailable, a missing key as common.ErrorNotFound.
type Store interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Ping(ctx context.Context) error
}

// Object is an open read of a stored blob. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// AssetKey returns a fresh key for uploaded bytes, bucketed by day.
func AssetKey(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("assets/%04d/%02d/%02d/%s", now.Year(), now.Month(), now.Day(), ids.NewAt(now))
}

// VersionKey returns a fresh key for a frozen copy of assetID.
func VersionKey(assetID string) string {
	return fmt.Sprintf("versions/%s/%s", assetID, ids.New())
}
