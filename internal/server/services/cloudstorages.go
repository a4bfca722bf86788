package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/config"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
)

const (
	msgCspNotFound        = "Cannot find cloud storage provider"
	msgCspExists          = "The cloud storage provider is already linked"
	msgUnsupportedStorage = "Unsupported storage type %q"
	msgAuthDataMismatch   = "old_authentication_data is different than authentication_data in the database"
)

type AddCloudStorageInput struct {
	Type               models.StorageType
	CspID              string
	UniqueID           string
	AuthenticationData string
	DisplayName        string
}

// CloudStorageService manages the cloud storage providers of the current user.
type CloudStorageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	lockTimeout time.Duration
}

func NewCloudStorageService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *CloudStorageService {
	return &CloudStorageService{
		db:          db,
		repomanager: m,
		logger:      l.With("service", "cloudstorages"),
		lockTimeout: cfg.LockTimeout,
	}
}

func (s *CloudStorageService) Add(ctx context.Context, user *models.User, in AddCloudStorageInput) (*models.CloudStorageProvider, error) {
	if !in.Type.Valid() {
		return nil, common.NewUserError(common.ErrorInvalidArgument, msgUnsupportedStorage, in.Type)
	}

	csp, err := s.repomanager.CloudStorages(s.db).Create(ctx, &models.CloudStorageProvider{
		UserID:             user.ID,
		Type:               in.Type,
		CspID:              in.CspID,
		UniqueID:           in.UniqueID,
		AuthenticationData: in.AuthenticationData,
		DisplayName:        in.DisplayName,
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.NewUserError(common.ErrorConflict, msgCspExists)
		}
		return nil, err
	}

	s.logger.Info(ctx, "cloud storage linked", "user_id", user.ID, "csp_id", csp.CspID, "type", string(csp.Type))
	return csp, nil
}

// Delete unlinks one of the user's CSPs. It reports whether a row was
// removed.
func (s *CloudStorageService) Delete(ctx context.Context, user *models.User, cspID string) (bool, error) {
	n, err := s.repomanager.CloudStorages(s.db).DeleteByCspID(ctx, user.ID, cspID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *CloudStorageService) List(ctx context.Context, user *models.User) ([]*models.CloudStorageProvider, error) {
	return s.repomanager.CloudStorages(s.db).ForUser(ctx, user.ID)
}

// UpdateAuthData replaces the authentication data of a CSP if the caller
// still knows the stored value. The row stays locked between the compare
// and the write.
func (s *CloudStorageService) UpdateAuthData(ctx context.Context, user *models.User, cspID, oldData, newData string) (*models.CloudStorageProvider, error) {
	var updated *models.CloudStorageProvider

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := dbx.SetLockTimeout(ctx, tx, s.lockTimeout); err != nil {
			return err
		}
		repo := s.repomanager.CloudStorages(tx)

		csp, err := repo.GetByCspIDForUpdate(ctx, user.ID, cspID)
		if err != nil {
			return notFound(err, msgCspNotFound)
		}
		if !cryptox.Equal(csp.AuthenticationData, oldData) {
			return common.NewUserError(common.ErrorConflict, msgAuthDataMismatch)
		}

		updated, err = repo.UpdateAuthData(ctx, csp.ID, newData)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "cloud storage auth data updated", "user_id", user.ID, "csp_id", cspID)
	return updated, nil
}
