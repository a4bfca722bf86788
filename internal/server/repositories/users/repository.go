package users

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// Repository is the data access for users. Instances cache lookups by id
// for their own lifetime.
type Repository interface {
	Get(ctx context.Context, id string) (*models.User, error)
	// GetMany returns the users found for ids in input order.
	GetMany(ctx context.Context, ids []string) ([]*models.User, error)
	GetInOrganization(ctx context.Context, organizationID, id string) (*models.User, error)
	GetInOrganizationForUpdate(ctx context.Context, organizationID, id string) (*models.User, error)
	// InitPublicKey sets the public key only if none is set yet; it returns
	// common.ErrorNotFound when no row qualified.
	InitPublicKey(ctx context.Context, id, publicKey string) (*models.User, error)
	ClearPublicKey(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
