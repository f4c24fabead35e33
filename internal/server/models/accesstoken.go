package models

import "time"

// AccessToken is an ephemeral capability for one private asset. Token is
// only populated when the token is issued; the record store keeps a digest.
type AccessToken struct {
	Token     string
	AssetID   string
	ExpiresAt time.Time
}

// AccessGrant is what a valid token resolves to: enough to serve the bytes.
type AccessGrant struct {
	AssetID    string
	StorageKey string
	MimeType   string
	ETag       string
	SizeBytes  int64
	UpdatedAt  time.Time
}
