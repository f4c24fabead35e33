package services

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/identity"
)

// Cache-Control values per request class.
const (
	CacheControlMutable   = "public, s-maxage=3600, max-age=60"
	CacheControlImmutable = "public, max-age=31536000, immutable"
	CacheControlPrivate   = "private, no-store, no-cache, must-revalidate"
)

// RequestClass names the three download paths.
type RequestClass string

const (
	ClassMutable   RequestClass = "mutable"
	ClassImmutable RequestClass = "immutable"
	ClassPrivate   RequestClass = "private"
)

// Disposition tells the transport what to answer. When FetchBody is set the
// bytes at StorageKey must be streamed after Header.
type Disposition struct {
	Class      RequestClass
	Status     int
	Header     http.Header
	FetchBody  bool
	StorageKey string
	Size       int64
}

// CacheDecisionEngine reconciles a download request with stored state.
// Lookup misses and rejected grants are dispositions, not errors; errors
// are reserved for store failures.
type CacheDecisionEngine struct {
	registry *AssetRegistry
	versions *VersionStore
	tokens   *TokenIssuer
}

func NewCacheDecisionEngine(registry *AssetRegistry, versions *VersionStore, tokens *TokenIssuer) *CacheDecisionEngine {
	return &CacheDecisionEngine{registry: registry, versions: versions, tokens: tokens}
}

// Mutable decides a download of an asset's current bytes. Private assets
// are refused here whatever validator the request carries.
func (e *CacheDecisionEngine) Mutable(ctx context.Context, assetID, ifNoneMatch string) (*Disposition, error) {
	a, err := e.registry.Lookup(ctx, assetID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return refusal(ClassMutable, http.StatusNotFound), nil
		}
		return nil, err
	}
	if a.IsPrivate {
		return refusal(ClassMutable, http.StatusForbidden), nil
	}

	h := entityHeader(a.ETag, CacheControlMutable, a.MimeType)
	h.Set("Last-Modified", lastModified(a.UpdatedAt))

	if identity.Matches(ifNoneMatch, a.ETag) {
		h.Del("Content-Type")
		return &Disposition{Class: ClassMutable, Status: http.StatusNotModified, Header: h}, nil
	}

	setLength(h, a.SizeBytes)
	return &Disposition{
		Class:      ClassMutable,
		Status:     http.StatusOK,
		Header:     h,
		FetchBody:  true,
		StorageKey: a.StorageKey,
		Size:       a.SizeBytes,
	}, nil
}

// Immutable decides a download of a frozen version. There is no
// conditional short-circuit: the response is cacheable forever.
func (e *CacheDecisionEngine) Immutable(ctx context.Context, versionID string) (*Disposition, error) {
	v, err := e.versions.Lookup(ctx, versionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return refusal(ClassImmutable, http.StatusNotFound), nil
		}
		return nil, err
	}

	return &Disposition{
		Class:      ClassImmutable,
		Status:     http.StatusOK,
		Header:     entityHeader(v.ETag, CacheControlImmutable, v.MimeType),
		FetchBody:  true,
		StorageKey: v.StorageKey,
		Size:       -1,
	}, nil
}

// Private decides a download through a capability token.
func (e *CacheDecisionEngine) Private(ctx context.Context, token string) (*Disposition, error) {
	g, err := e.tokens.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return refusal(ClassPrivate, http.StatusForbidden), nil
		}
		return nil, err
	}

	h := entityHeader(g.ETag, CacheControlPrivate, g.MimeType)
	h.Set("Last-Modified", lastModified(g.UpdatedAt))
	setLength(h, g.SizeBytes)
	return &Disposition{
		Class:      ClassPrivate,
		Status:     http.StatusOK,
		Header:     h,
		FetchBody:  true,
		StorageKey: g.StorageKey,
		Size:       g.SizeBytes,
	}, nil
}

func refusal(class RequestClass, status int) *Disposition {
	return &Disposition{Class: class, Status: status, Header: http.Header{}}
}

func entityHeader(etag, cacheControl, mimeType string) http.Header {
	h := http.Header{}
	h.Set("ETag", etag)
	h.Set("Cache-Control", cacheControl)
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	h.Set("Content-Type", mimeType)
	h.Set("X-Content-Type-Options", "nosniff")
	return h
}

func setLength(h http.Header, size int64) {
	if size >= 0 {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
	}
}

func lastModified(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
