package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (a *API) downloadAsset(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, func(ctx context.Context) (*services.Disposition, error) {
		return a.engine.Mutable(ctx, chi.URLParam(r, "id"), r.Header.Get("If-None-Match"))
	})
}

func (a *API) downloadVersion(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, func(ctx context.Context) (*services.Disposition, error) {
		return a.engine.Immutable(ctx, chi.URLParam(r, "versionId"))
	})
}

func (a *API) downloadPrivate(w http.ResponseWriter, r *http.Request) {
	a.serve(w, r, func(ctx context.Context) (*services.Disposition, error) {
		return a.engine.Private(ctx, chi.URLParam(r, "token"))
	})
}

// serve writes a disposition. Bytes are fetched before any header goes
// out so a store failure can still become an error response.
func (a *API) serve(w http.ResponseWriter, r *http.Request, decide func(context.Context) (*services.Disposition, error)) {
	d, err := decide(r.Context())
	if err != nil {
		a.handleServiceError(w, r, err)
		return
	}
	a.metrics.ObserveDisposition(string(d.Class), d.Status)

	switch d.Status {
	case http.StatusNotFound:
		writeError(w, r, http.StatusNotFound, "not found")
		return
	case http.StatusForbidden:
		writeError(w, r, http.StatusForbidden, "forbidden")
		return
	}

	if !d.FetchBody || r.Method == http.MethodHead {
		copyHeader(w.Header(), d.Header)
		w.WriteHeader(d.Status)
		return
	}

	obj, err := a.store.Get(r.Context(), d.StorageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// the record points at bytes the store does not have
			a.handleServiceError(w, r, fmt.Errorf("dangling storage key %s: %v", d.StorageKey, err))
			return
		}
		a.handleServiceError(w, r, err)
		return
	}
	defer obj.Body.Close()

	copyHeader(w.Header(), d.Header)
	if w.Header().Get("Content-Length") == "" && obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(d.Status)

	if _, err := io.Copy(w, obj.Body); err != nil {
		a.log.Warn(r.Context(), "body stream interrupted", "key", d.StorageKey, "err", err)
	}
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		dst[k] = append([]string(nil), vs...)
	}
}
