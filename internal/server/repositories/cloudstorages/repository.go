// Package cloudstorages stores the cloud storage providers (CSPs) linked by
// users and resolves which local CSPs point at the same external account.
package cloudstorages

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, csp *models.CloudStorageProvider) (*models.CloudStorageProvider, error)
	ForUser(ctx context.Context, userID string) ([]*models.CloudStorageProvider, error)
	GetByCspID(ctx context.Context, userID, cspID string) (*models.CloudStorageProvider, error)
	// GetByCspIDForUpdate locks the row until the end of the transaction.
	GetByCspIDForUpdate(ctx context.Context, userID, cspID string) (*models.CloudStorageProvider, error)
	UpdateAuthData(ctx context.Context, id, authenticationData string) (*models.CloudStorageProvider, error)
	DeleteByCspID(ctx context.Context, userID, cspID string) (int64, error)

	// ByAccount returns every CSP of any user linked to the account.
	ByAccount(ctx context.Context, account models.StorageAccount) ([]*models.CloudStorageProvider, error)
	// ByAccounts resolves many accounts with one query. Every requested
	// account is present in the result, possibly with an empty list.
	ByAccounts(ctx context.Context, accounts []models.StorageAccount) (map[models.StorageAccount][]*models.CloudStorageProvider, error)
	// UsersWithAccounts returns the subset of userIDs owning a CSP of the
	// given type whose unique id is one of uniqueIDs.
	UsersWithAccounts(ctx context.Context, userIDs []string, storageType models.StorageType, uniqueIDs []string) (map[string]bool, error)
	// ClearAccountCache drops the cached ByAccount results.
	ClearAccountCache()
}
