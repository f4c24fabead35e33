// Package repomanager vends repositories bound to a database handle, so a
// service can use the pool for single statements and a *sql.Tx for a unit
// of work.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/assetorigin/internal/dbx"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/assets"
	"github.com/dmitrijs2005/assetorigin/internal/server/repositories/versions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Assets(db dbx.DBTX) assets.Repository
	Versions(db dbx.DBTX) versions.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
}
