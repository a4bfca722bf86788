// Package userkeys stores the user private key encrypted for each device.
package userkeys

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, data *models.EncryptedUserKeyData) (*models.EncryptedUserKeyData, error)
	ForUser(ctx context.Context, userID string) ([]*models.EncryptedUserKeyData, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}
