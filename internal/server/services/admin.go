package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/archive"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
)

const (
	msgAdminRequired = "Administrator rights required to perform this action"
	msgUserNotFound  = "Cannot find user"
)

// requireAdmin fails unless the user holds the administrator role.
func requireAdmin(user *models.User) error {
	if user == nil || !user.IsAdministrator() {
		return common.NewUserError(common.ErrorPermissionDenied, msgAdminRequired)
	}
	return nil
}

// AdminService holds the organization administrator operations. Targets are
// always looked up inside the administrator's organization; anything else
// is reported as missing.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	keys        *KeyExchangeService
	archive     archive.Store
	logger      logging.Logger
	now         func() time.Time
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, keys *KeyExchangeService, store archive.Store, l logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		keys:        keys,
		archive:     store,
		logger:      l.With("service", "admin"),
		now:         time.Now,
	}
}

func (s *AdminService) target(ctx context.Context, admin *models.User, userID string) (*models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	id, ok := canonicalID(userID)
	if !ok {
		return nil, common.NewUserError(common.ErrorNotFound, msgUserNotFound)
	}
	u, err := s.repomanager.Users(s.db).GetInOrganization(ctx, admin.OrganizationID, id)
	if err != nil {
		return nil, notFound(err, msgUserNotFound)
	}
	return u, nil
}

// ResetUserKeys drops every key of the user so it can start over from a
// fresh key pair. Share members without keys have to be provisioned again.
func (s *AdminService) ResetUserKeys(ctx context.Context, admin *models.User, userID string) (*models.User, error) {
	u, err := s.target(ctx, admin, userID)
	if err != nil {
		return nil, err
	}
	updated, err := s.keys.resetUserKeys(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user keys reset", "user_id", u.ID, "by", admin.ID)
	return updated, nil
}

// DeleteUser archives the user with its share keys and deletes it. The
// archive write happens while the user row is locked, so a failed upload
// leaves the user in place.
func (s *AdminService) DeleteUser(ctx context.Context, admin *models.User, userID string) (string, error) {
	if _, err := s.target(ctx, admin, userID); err != nil {
		return "", err
	}

	var key string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		u, err := users.GetInOrganizationForUpdate(ctx, admin.OrganizationID, userID)
		if err != nil {
			return notFound(err, msgUserNotFound)
		}
		keys, err := s.repomanager.ShareKeys(tx).ForUser(ctx, u.ID)
		if err != nil {
			return err
		}

		key, err = archive.SaveDeletedUser(ctx, s.archive, &models.DeletedUser{
			User:      u,
			ShareKeys: keys,
			DeletedBy: admin.ID,
			DeletedAt: s.now(),
		})
		if err != nil {
			return err
		}
		return users.Delete(ctx, u.ID)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "user deleted", "user_id", userID, "by", admin.ID, "archive_key", key)
	return userID, nil
}
