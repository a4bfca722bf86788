// Package approvals stores pending device approval requests.
package approvals

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

type Repository interface {
	// Upsert creates the request for (user, device) or replaces its key.
	Upsert(ctx context.Context, userID, deviceID, publicDeviceKey string) (*models.ApprovalRequest, error)
	ForUser(ctx context.Context, userID string) ([]*models.ApprovalRequest, error)
	// DeleteExact removes the request matching user, device and key and
	// reports how many rows went away.
	DeleteExact(ctx context.Context, userID, deviceID, publicDeviceKey string) (int64, error)
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}
