// Package models defines the records the origin persists in the record store.
package models

import "time"

// Asset is a logical, possibly mutable resource. ETag is always the
// validator of the bytes at StorageKey.
type Asset struct {
	ID         string
	StorageKey string
	Filename   string
	MimeType   string
	SizeBytes  int64
	ETag       string
	IsPrivate  bool

	// CurrentVersionID is nil until the asset is published for the first time.
	CurrentVersionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Published reports whether at least one version has been frozen.
func (a *Asset) Published() bool {
	return a.CurrentVersionID != nil
}

// NewAsset is the input for registering an asset.
type NewAsset struct {
	StorageKey string
	Filename   string
	MimeType   string
	SizeBytes  int64
	ETag       string
	IsPrivate  bool
}
