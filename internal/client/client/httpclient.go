package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

type HTTPClient struct {
	baseURL         string
	http            *http.Client
	managementToken string
}

func NewHTTPClient(baseURL string, timeout time.Duration, managementToken string) *HTTPClient {
	return &HTTPClient{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            &http.Client{Timeout: timeout},
		managementToken: managementToken,
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (c *HTTPClient) Upload(ctx context.Context, in UploadRequest) (*Asset, error) {
	if in.Body == nil {
		return nil, fmt.Errorf("%w: no file body", ErrBadRequest)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	if in.MimeType != "" {
		h.Set("Content-Type", in.MimeType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if in.IsPrivate {
		if err := mw.WriteField("is_private", "true"); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/assets/upload", &buf, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var a Asset
	if err := c.doJSON(req, http.StatusCreated, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) Download(ctx context.Context, assetID, ifNoneMatch string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assets/"+url.PathEscape(assetID)+"/download", nil, false)
	if err != nil {
		return nil, err
	}
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	return c.doDownload(req)
}

func (c *HTTPClient) Publish(ctx context.Context, assetID string) (*PublishResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/assets/"+url.PathEscape(assetID)+"/publish", nil, true)
	if err != nil {
		return nil, err
	}

	var p PublishResult
	if err := c.doJSON(req, http.StatusOK, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IssueToken asks for a token valid for ttl. A zero ttl takes the server
// default.
func (c *HTTPClient) IssueToken(ctx context.Context, assetID string, ttl time.Duration) (*Token, error) {
	var body io.Reader
	if ttl != 0 {
		secs := int64(ttl / time.Second)
		b, err := json.Marshal(map[string]int64{"ttl_seconds": secs})
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/assets/"+url.PathEscape(assetID)+"/token", body, true)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var t Token
	if err := c.doJSON(req, http.StatusCreated, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) DownloadVersion(ctx context.Context, versionID string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assets/public/"+url.PathEscape(versionID), nil, false)
	if err != nil {
		return nil, err
	}
	return c.doDownload(req)
}

func (c *HTTPClient) DownloadPrivate(ctx context.Context, token string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/assets/private/"+url.PathEscape(token), nil, false)
	if err != nil {
		return nil, err
	}
	return c.doDownload(req)
}

func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, false)
	if err != nil {
		return err
	}

	var h struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, http.StatusOK, &h); err != nil {
		return err
	}
	if h.Status != "ok" {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader, management bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if management && c.managementToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.managementToken)
	}
	return req, nil
}

func (c *HTTPClient) doJSON(req *http.Request, want int, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return mapStatus(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) doDownload(req *http.Request) (*Download, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotModified {
		return nil, mapStatus(resp)
	}

	d := &Download{
		Status:       resp.StatusCode,
		NotModified:  resp.StatusCode == http.StatusNotModified,
		ETag:         resp.Header.Get("ETag"),
		CacheControl: resp.Header.Get("Cache-Control"),
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	if !d.NotModified {
		d.Body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
		}
	}
	return d, nil
}

func mapStatus(resp *http.Response) error {
	var er errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er)

	msg := er.Error
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		sentinel = ErrBadRequest
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		sentinel = ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		sentinel = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = ErrConflict
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		sentinel = ErrTooLarge
	case resp.StatusCode >= http.StatusInternalServerError:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

var _ Client = (*HTTPClient)(nil)

// IsUnavailable reports whether err means the server could not be reached
// or failed on its side.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
