// Package shares stores shares and resolves the shares an external account
// takes part in.
package shares

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, share *models.Share) (*models.Share, error)
	Get(ctx context.Context, id string) (*models.Share, error)
	FindByRef(ctx context.Context, ref models.ShareRef) (*models.Share, error)
	// FindByRefForUpdate locks the share row until the end of the transaction.
	FindByRefForUpdate(ctx context.Context, ref models.ShareRef) (*models.Share, error)
	// GetForUpdate reads the current row by id and locks it until the end of
	// the transaction. It bypasses the cache.
	GetForUpdate(ctx context.Context, id string) (*models.Share, error)
	ForOrganization(ctx context.Context, organizationID string) ([]*models.Share, error)
	// ForAccounts returns, per account, every share of any organization that
	// lists the account. Callers filter by organization.
	ForAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.Share, error)

	// Update changes one share and refreshes its cache entry.
	Update(ctx context.Context, id string, patch models.SharePatch) (*models.Share, error)
	// UpdateWhere and DeleteWhere clear the whole cache.
	UpdateWhere(ctx context.Context, ref models.ShareRef, patch models.SharePatch) ([]*models.Share, error)
	DeleteWhere(ctx context.Context, ref models.ShareRef) (int64, error)
	Delete(ctx context.Context, id string) error
}
