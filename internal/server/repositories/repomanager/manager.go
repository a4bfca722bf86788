package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/approvals"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/cloudstorages"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/sharekeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/userkeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX. Every call returns a
// new instance with an empty cache, so a repository obtained for a
// transaction never shares cached rows with one obtained for the pool.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	CloudStorages(db dbx.DBTX) cloudstorages.Repository
	Shares(db dbx.DBTX) shares.Repository
	ShareKeys(db dbx.DBTX) sharekeys.Repository
	ApprovalRequests(db dbx.DBTX) approvals.Repository
	UserKeys(db dbx.DBTX) userkeys.Repository
}
