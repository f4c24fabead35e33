package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{"error": msg}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// handleServiceError maps service sentinels to statuses. Server-side
// failures are logged; their details never reach the client.
func (a *API) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrInvalidToken):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrVersionConflict):
		writeError(w, r, http.StatusConflict, "asset was published concurrently, retry")
	case errors.Is(err, common.ErrStoreUnavailable):
		a.log.Error(r.Context(), "object store failure", "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "storage unavailable")
	default:
		a.log.Error(r.Context(), "request failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
