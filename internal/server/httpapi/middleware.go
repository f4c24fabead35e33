package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/assetorigin/internal/common"
	"github.com/dmitrijs2005/assetorigin/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

const bearer = "Bearer "

type ctxKey int

const operatorKey ctxKey = iota

// echoRequestID returns the request id to the caller.
func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			w.Header().Set(common.RequestIDHeader, rid)
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request once it has been served.
func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			a.log.Warn(r.Context(), "request served", args...)
			return
		}
		a.log.Info(r.Context(), "request served", args...)
	})
}

// requireManagement admits requests carrying a valid management JWT. With
// no secret configured every request is admitted.
func (a *API) requireManagement(next http.Handler) http.Handler {
	if len(a.secret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="assetorigin"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		op, err := auth.OperatorFromToken(token, a.secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="assetorigin", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		a.log.Debug(r.Context(), "management request", "operator", op, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), operatorKey, op)))
	})
}

func operatorFromContext(ctx context.Context) string {
	op, _ := ctx.Value(operatorKey).(string)
	return op
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
