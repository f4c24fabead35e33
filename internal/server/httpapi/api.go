// Package httpapi exposes the origin over HTTP: uploads, publishing, token
// issue and the three download paths, plus health and metrics.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/assetorigin/internal/logging"
	"github.com/dmitrijs2005/assetorigin/internal/obs"
	"github.com/dmitrijs2005/assetorigin/internal/server/objectstore"
	"github.com/dmitrijs2005/assetorigin/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ReadyProbe reports whether the record store and the object store answer.
type ReadyProbe struct {
	DB    *sql.DB
	Store objectstore.Store
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	var errs []error
	if rp.DB != nil {
		if err := rp.DB.PingContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if rp.Store != nil {
		if err := rp.Store.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deps are the collaborators of the HTTP layer. ManagementSecret may be
// empty, which leaves the management routes open.
type Deps struct {
	Registry         *services.AssetRegistry
	Versions         *services.VersionStore
	Tokens           *services.TokenIssuer
	Engine           *services.CacheDecisionEngine
	Store            objectstore.Store
	Probe            ReadyProbe
	Metrics          *obs.Metrics
	Logger           logging.Logger
	ManagementSecret []byte
	UploadLimitBytes int64
}

type API struct {
	registry    *services.AssetRegistry
	versions    *services.VersionStore
	tokens      *services.TokenIssuer
	engine      *services.CacheDecisionEngine
	store       objectstore.Store
	probe       ReadyProbe
	metrics     *obs.Metrics
	log         logging.Logger
	secret      []byte
	uploadLimit int64
}

func New(d Deps) *API {
	return &API{
		registry:    d.Registry,
		versions:    d.Versions,
		tokens:      d.Tokens,
		engine:      d.Engine,
		store:       d.Store,
		probe:       d.Probe,
		metrics:     d.Metrics,
		log:         d.Logger.With("module", "httpapi"),
		secret:      d.ManagementSecret,
		uploadLimit: d.UploadLimitBytes,
	}
}

// Handler builds the router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(a.metrics.Instrument)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.health)
	r.Get("/readyz", a.ready)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/assets", func(r chi.Router) {
		r.With(a.requireManagement).Post("/upload", a.upload)

		r.Get("/public/{versionId}", a.downloadVersion)
		r.Head("/public/{versionId}", a.downloadVersion)
		r.Get("/private/{token}", a.downloadPrivate)
		r.Head("/private/{token}", a.downloadPrivate)
		r.Get("/{id}/download", a.downloadAsset)
		r.Head("/{id}/download", a.downloadAsset)

		r.With(a.requireManagement).Post("/{id}/publish", a.publish)
		r.With(a.requireManagement).Post("/{id}/token", a.issueToken)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
