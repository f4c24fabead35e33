package models

import "time"

// Version is an immutable snapshot of an asset at publish time. Its
// StorageKey never equals the parent asset's.
type Version struct {
	ID         string
	AssetID    string
	StorageKey string
	ETag       string
	CreatedAt  time.Time

	// MimeType is read from the parent asset, it is not stored per version.
	MimeType string
}
