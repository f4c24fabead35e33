// Package client is the Go client of the asset origin HTTP API.
//
// HTTPClient covers every route: Upload, Download (optionally conditional),
// Publish, IssueToken, DownloadVersion, DownloadPrivate and Health.
// Management calls carry the configured bearer token when one is set.
//
// Non-success statuses map to sentinel errors that callers match with
// errors.Is: ErrBadRequest, ErrUnauthorized, ErrForbidden, ErrNotFound,
// ErrConflict, ErrTooLarge and ErrUnavailable. Transport failures are
// reported as ErrUnavailable.
package client
