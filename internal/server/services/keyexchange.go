package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

const (
	msgPublicKeyAlreadySet = "The public key is already set"
	msgApprovalNotFound    = "Cannot find the approval request"
	msgDeviceKeyExists     = "The device already has a user key"
)

// DeviceKeyInput is the user private key encrypted for one device.
type DeviceKeyInput struct {
	DeviceID         string
	PublicDeviceKey  string
	EncryptedUserKey string
}

// InitUserKeyInput sets up the user key pair from the first device.
type InitUserKeyInput struct {
	PublicKey string
	DeviceKeyInput
}

// DeviceKeys lists the device key state of one user.
type DeviceKeys struct {
	ApprovalRequests  []*models.ApprovalRequest
	EncryptedUserKeys []*models.EncryptedUserKeyData
}

// KeyExchangeService moves the user private key between devices. Per user
// it goes from no key to an initialized key once; every later device must
// be approved by a device already holding the key.
type KeyExchangeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewKeyExchangeService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *KeyExchangeService {
	return &KeyExchangeService{db: db, repomanager: m, logger: l.With("service", "keyexchange")}
}

// InitUserKey stores the public key of the user together with the first
// encrypted device key.
func (s *KeyExchangeService) InitUserKey(ctx context.Context, user *models.User, in InitUserKeyInput) (*models.User, error) {
	if user.HasPublicKey() {
		return nil, common.NewUserError(common.ErrorConflict, msgPublicKeyAlreadySet)
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		updated, err = s.repomanager.Users(tx).InitPublicKey(ctx, user.ID, in.PublicKey)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// someone else set it after the user was loaded
				return common.NewUserError(common.ErrorConflict, msgPublicKeyAlreadySet)
			}
			return err
		}
		_, err = s.repomanager.UserKeys(tx).Create(ctx, &models.EncryptedUserKeyData{
			UserID:           user.ID,
			DeviceID:         in.DeviceID,
			PublicDeviceKey:  in.PublicDeviceKey,
			EncryptedUserKey: in.EncryptedUserKey,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user key initialized",
		"user_id", user.ID,
		"public_key", cryptox.Fingerprint(in.PublicKey),
		"device_id", in.DeviceID)
	return updated, nil
}

// RequestDeviceApproval stages the device for approval. A new request for
// the same device replaces the previous key.
func (s *KeyExchangeService) RequestDeviceApproval(ctx context.Context, user *models.User, deviceID, publicDeviceKey string) (*models.ApprovalRequest, error) {
	req, err := s.repomanager.ApprovalRequests(s.db).Upsert(ctx, user.ID, deviceID, publicDeviceKey)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "device approval requested",
		"user_id", user.ID,
		"device_id", deviceID,
		"device_key", cryptox.Fingerprint(publicDeviceKey))
	return req, nil
}

// ApproveDevice consumes the staged request matching device and key
// exactly and stores the user key encrypted for that device. A request
// staged with another key is reported as missing.
func (s *KeyExchangeService) ApproveDevice(ctx context.Context, user *models.User, in DeviceKeyInput) (*models.EncryptedUserKeyData, error) {
	var created *models.EncryptedUserKeyData

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// the delete is the gate: of two concurrent approvals only one
		// removes the row
		n, err := s.repomanager.ApprovalRequests(tx).DeleteExact(ctx, user.ID, in.DeviceID, in.PublicDeviceKey)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.NewUserError(common.ErrorNotFound, msgApprovalNotFound)
		}

		created, err = s.repomanager.UserKeys(tx).Create(ctx, &models.EncryptedUserKeyData{
			UserID:           user.ID,
			DeviceID:         in.DeviceID,
			PublicDeviceKey:  in.PublicDeviceKey,
			EncryptedUserKey: in.EncryptedUserKey,
		})
		if dbx.IsUniqueViolation(err) {
			return common.NewUserError(common.ErrorConflict, msgDeviceKeyExists)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "device approved", "user_id", user.ID, "device_id", in.DeviceID)
	return created, nil
}

// DeclineDevice drops the matching staged request. It reports whether one
// existed.
func (s *KeyExchangeService) DeclineDevice(ctx context.Context, user *models.User, deviceID, publicDeviceKey string) (bool, error) {
	n, err := s.repomanager.ApprovalRequests(s.db).DeleteExact(ctx, user.ID, deviceID, publicDeviceKey)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDeviceKeys returns the staged requests and the device keys of the
// user. Both lists are read concurrently from the pool.
func (s *KeyExchangeService) ListDeviceKeys(ctx context.Context, user *models.User) (*DeviceKeys, error) {
	out := &DeviceKeys{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.ApprovalRequests, err = s.repomanager.ApprovalRequests(s.db).ForUser(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		out.EncryptedUserKeys, err = s.repomanager.UserKeys(s.db).ForUser(gctx, user.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resetUserKeys returns the user to the no-key state: public key, staged
// requests, device keys and share keys are removed together.
func (s *KeyExchangeService) resetUserKeys(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).ClearPublicKey(ctx, userID)
		if err != nil {
			return notFound(err, msgUserNotFound)
		}
		if _, err := s.repomanager.ApprovalRequests(tx).DeleteForUser(ctx, userID); err != nil {
			return err
		}
		if _, err := s.repomanager.UserKeys(tx).DeleteForUser(ctx, userID); err != nil {
			return err
		}
		_, err = s.repomanager.ShareKeys(tx).DeleteForUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
