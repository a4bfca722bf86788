// Package sharekeys stores the per-member encrypted share keys.
package sharekeys

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type Repository interface {
	// Create fails with a unique violation when the user already holds a
	// key for the share.
	Create(ctx context.Context, key *models.ShareKey) (*models.ShareKey, error)
	GetByShareAndUser(ctx context.Context, shareID, userID string) (*models.ShareKey, error)
	UserIDsForShare(ctx context.Context, shareID string) ([]string, error)
	ForUser(ctx context.Context, userID string) ([]*models.ShareKey, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}
