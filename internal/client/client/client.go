package client

import (
	"context"
	"io"
	"time"
)

type Client interface {
	Upload(ctx context.Context, in UploadRequest) (*Asset, error)
	Download(ctx context.Context, assetID, ifNoneMatch string) (*Download, error)
	Publish(ctx context.Context, assetID string) (*PublishResult, error)
	IssueToken(ctx context.Context, assetID string, ttl time.Duration) (*Token, error)
	DownloadVersion(ctx context.Context, versionID string) (*Download, error)
	DownloadPrivate(ctx context.Context, token string) (*Download, error)
	Health(ctx context.Context) error
}

// UploadRequest describes one file to upload. An empty MimeType leaves
// the server default in place.
type UploadRequest struct {
	Filename  string
	MimeType  string
	IsPrivate bool
	Body      io.Reader
}

type Asset struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	MimeType         string    `json:"mime_type"`
	SizeBytes        int64     `json:"size_bytes"`
	ETag             string    `json:"etag"`
	IsPrivate        bool      `json:"is_private"`
	CurrentVersionID *string   `json:"current_version_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type PublishResult struct {
	Success      bool   `json:"success"`
	NewVersionID string `json:"newVersionId"`
	Asset        Asset  `json:"asset"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AssetID   string    `json:"asset_id"`
}

// Download is a served representation. Body is empty when NotModified is set.
type Download struct {
	Status       int
	NotModified  bool
	ETag         string
	CacheControl string
	ContentType  string
	LastModified string
	Body         []byte
}
