// Package services contains the server-side business logic: the shares
// protocol engine, cloud storage providers, key exchange and the
// organization admin operations.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/cloudstorages"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/sharekeys"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/shares"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/users"
	"github.com/google/uuid"
)

// scope is one unit of work: the share-related repositories bound to the
// same DBTX. Repository caches live and die with it.
type scope struct {
	users     users.Repository
	csps      cloudstorages.Repository
	shares    shares.Repository
	shareKeys sharekeys.Repository
}

func newScope(m repomanager.RepositoryManager, db dbx.DBTX) *scope {
	return &scope{
		users:     m.Users(db),
		csps:      m.CloudStorages(db),
		shares:    m.Shares(db),
		shareKeys: m.ShareKeys(db),
	}
}

// canonicalID returns the lowercase hyphenated form of a UUID, the form
// Postgres returns. ok is false when id is not a UUID.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// notFound turns common.ErrorNotFound into a user error with msg and leaves
// other errors alone.
func notFound(err error, msg string) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewUserError(common.ErrorNotFound, "%s", msg)
	}
	return err
}

// findCspsWithShare resolves every local CSP linked to an account listed by
// the share. Several CSPs may share one account.
func (sc *scope) findCspsWithShare(ctx context.Context, share *models.Share) ([]*models.CloudStorageProvider, error) {
	accounts := share.Accounts()
	byAccount, err := sc.csps.ByAccounts(ctx, accounts)
	if err != nil {
		return nil, err
	}

	seen := make(map[models.StorageAccount]struct{}, len(accounts))
	var out []*models.CloudStorageProvider
	for _, a := range accounts {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, byAccount[a]...)
	}
	return out, nil
}

func distinctUserIDs(csps []*models.CloudStorageProvider) []string {
	seen := make(map[string]struct{}, len(csps))
	var ids []string
	for _, c := range csps {
		if c == nil || c.UserID == "" {
			continue
		}
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		seen[c.UserID] = struct{}{}
		ids = append(ids, c.UserID)
	}
	return ids
}

func hasExternalUsers(share *models.Share, csps []*models.CloudStorageProvider) bool {
	linked := make(map[string]struct{}, len(csps))
	for _, c := range csps {
		linked[c.UniqueID] = struct{}{}
	}
	return len(share.StorageUniqueIDs) > len(linked)
}

func (sc *scope) withoutShareKeys(ctx context.Context, share *models.Share, members []*models.User) ([]*models.User, error) {
	holders, err := sc.shareKeys.UserIDsForShare(ctx, share.ID)
	if err != nil {
		return nil, err
	}
	keyed := make(map[string]struct{}, len(holders))
	for _, id := range holders {
		keyed[id] = struct{}{}
	}
	var out []*models.User
	for _, u := range members {
		if _, ok := keyed[u.ID]; !ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// findForCsp returns the shares of organizationID listing the CSP account.
func (sc *scope) findForCsp(ctx context.Context, csp *models.CloudStorageProvider, organizationID string) ([]*models.Share, error) {
	acct := csp.Account()
	byAccount, err := sc.shares.ForAccounts(ctx, []models.StorageAccount{acct})
	if err != nil {
		return nil, err
	}
	var out []*models.Share
	for _, s := range byAccount[acct] {
		if s != nil && s.OrganizationID == organizationID {
			out = append(out, s)
		}
	}
	return out, nil
}

// members returns which of userIDs own a CSP linked to an account of the
// share.
func (sc *scope) members(ctx context.Context, share *models.Share, userIDs []string) (map[string]bool, error) {
	if len(userIDs) == 0 || len(share.StorageUniqueIDs) == 0 {
		return map[string]bool{}, nil
	}
	return sc.csps.UsersWithAccounts(ctx, userIDs, share.StorageType, share.StorageUniqueIDs)
}
