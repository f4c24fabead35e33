package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/models"
	"github.com/dmitrijs2005/assetorigin/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a form is kept in memory before parts
// spill to temporary files.
const multipartMemory = 8 << 20

type assetView struct {
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

func toAssetView(a *models.Asset) assetView {
	return assetView{
		ID:               a.ID,
		Filename:         a.Filename,
		MimeType:         a.MimeType,
		SizeBytes:        a.SizeBytes,
		ETag:             a.ETag,
		IsPrivate:        a.IsPrivate,
		CurrentVersionID: a.CurrentVersionID,
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}
}

type publishResponse struct {
	Success      bool      `json:"success"`
	NewVersionID string    `json:"newVersionId"`
	Asset        assetView `json:"asset"`
}

type tokenRequest struct {
	TTLSeconds *int64 `json:"ttl_seconds"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AssetID   string    `json:"asset_id"`
}

// upload accepts a multipart form with the file under "file" and an
// optional is_private field.
func (a *API) upload(w http.ResponseWriter, r *http.Request) {
	if a.uploadLimit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.uploadLimit)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "malformed multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh := formFile(r.MultipartForm)
	if fh == nil {
		writeError(w, r, http.StatusBadRequest, "no file uploaded")
		return
	}

	f, err := fh.Open()
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	defer f.Close()

	asset, err := a.registry.Upload(r.Context(), services.UploadInput{
		Filename:  fh.Filename,
		MimeType:  fh.Header.Get("Content-Type"),
		IsPrivate: r.FormValue("is_private") == "true",
		Body:      f,
	})
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAssetView(asset))
}

// formFile prefers the "file" field and falls back to the first file part.
func formFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil || len(form.File) == 0 {
		return nil
	}
	if fhs := form.File["file"]; len(fhs) > 0 {
		return fhs[0]
	}
	keys := make([]string, 0, len(form.File))
	for k := range form.File {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fhs := form.File[k]; len(fhs) > 0 {
			return fhs[0]
		}
	}
	return nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	// multipart wraps the reader error as text in some paths
	return strings.Contains(err.Error(), "request body too large")
}

func (a *API) publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, asset, err := a.versions.Publish(r.Context(), id)
	if err != nil {
		a.metrics.ObserveFreeze(freezeOutcome(err))
		a.handleServiceError(w, r, err)
		return
	}
	a.metrics.ObserveFreeze("ok")

	a.log.Info(r.Context(), "asset published",
		"asset_id", asset.ID, "version_id", v.ID, "operator", operatorFromContext(r.Context()))
	writeJSON(w, http.StatusOK, publishResponse{
		Success:      true,
		NewVersionID: v.ID,
		Asset:        toAssetView(asset),
	})
}

func freezeOutcome(err error) string {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, common.ErrStoreUnavailable):
		return "store_error"
	default:
		return "tx_error"
	}
}

// issueToken mints a capability for the asset. The body is optional; an
// empty one takes the default lifetime.
func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req tokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var ttl time.Duration
	if req.TTLSeconds != nil {
		if *req.TTLSeconds <= 0 {
			writeError(w, r, http.StatusBadRequest, "ttl_seconds must be positive")
			return
		}
		ttl = time.Duration(*req.TTLSeconds) * time.Second
	}

	if _, err := a.registry.Lookup(r.Context(), id); err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	tok, err := a.tokens.Issue(r.Context(), id, ttl)
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
		AssetID:   tok.AssetID,
	})
}
