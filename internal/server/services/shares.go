package services

import (
	"context"
	"database/sql"
	"errors"
	"slices"
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
	msgShareNotFound      = "Cannot find the share"
	msgShareUserNotFound  = "Cannot find the user"
	msgShareKeyAlreadySet = "The share has the public key already set up"
	msgNotShareMember     = "You don't belong to the share"
	msgUserNotShareMember = "User with id %s doesn't belong to the share"
	msgDuplicateShareKey  = "The user already has a key for the share"
	msgShareExists        = "The share already exists"
	msgShareFieldRequired = "storage_unique_ids or name is required"
)

// AddShareInput describes a new share.
type AddShareInput struct {
	Name             string
	StorageType      models.StorageType
	UniqueID         string
	StorageUniqueIDs []string
}

// UpdateShareInput renames a share and/or replaces its account list. Nil
// fields are left unchanged.
type UpdateShareInput struct {
	StorageType      models.StorageType
	UniqueID         string
	Name             *string
	StorageUniqueIDs []string
}

type EncryptedShareKey struct {
	UserID            string
	EncryptedShareKey string
}

type InitShareKeysInput struct {
	StorageType        models.StorageType
	ShareUniqueID      string
	PublicShareKey     string
	EncryptedShareKeys []EncryptedShareKey
}

type AddShareKeyInput struct {
	StorageType       models.StorageType
	ShareUniqueID     string
	UserID            string
	EncryptedShareKey string
}

// ShareService implements share membership and the share key protocol on
// top of the CSP, share and share key registries.
type ShareService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	lockTimeout time.Duration
}

func NewShareService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, l logging.Logger) *ShareService {
	return &ShareService{
		db:          db,
		repomanager: m,
		logger:      l.With("service", "shares"),
		lockTimeout: cfg.LockTimeout,
	}
}

func (s *ShareService) scope() *scope {
	return newScope(s.repomanager, s.db)
}

// SharesForCsp lists the organization shares of one of the user's CSPs.
func (s *ShareService) SharesForCsp(ctx context.Context, user *models.User, cspID string) ([]*models.Share, error) {
	sc := s.scope()
	csp, err := sc.csps.GetByCspID(ctx, user.ID, cspID)
	if err != nil {
		return nil, notFound(err, msgCspNotFound)
	}
	return sc.findForCsp(ctx, csp, user.OrganizationID)
}

func (s *ShareService) AddShare(ctx context.Context, user *models.User, in AddShareInput) (*models.Share, error) {
	if !in.StorageType.Valid() {
		return nil, common.NewUserError(common.ErrorInvalidArgument, msgUnsupportedStorage, in.StorageType)
	}
	ids := in.StorageUniqueIDs
	if ids == nil {
		ids = []string{}
	}

	share, err := s.scope().shares.Create(ctx, &models.Share{
		OrganizationID:   user.OrganizationID,
		Name:             in.Name,
		StorageType:      in.StorageType,
		UniqueID:         in.UniqueID,
		StorageUniqueIDs: ids,
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.NewUserError(common.ErrorConflict, msgShareExists)
		}
		return nil, err
	}
	return share, nil
}

// UpdateShare renames a share of the user's organization and/or replaces
// its account list.
func (s *ShareService) UpdateShare(ctx context.Context, user *models.User, in UpdateShareInput) (*models.Share, error) {
	patch := models.SharePatch{StorageUniqueIDs: in.StorageUniqueIDs}
	if in.Name != nil && *in.Name != "" {
		patch.Name = in.Name
	}
	if patch.Empty() {
		return nil, common.NewUserError(common.ErrorInvalidArgument, msgShareFieldRequired)
	}

	ref := models.ShareRef{OrganizationID: user.OrganizationID, StorageType: in.StorageType, UniqueID: in.UniqueID}
	updated, err := s.scope().shares.UpdateWhere(ctx, ref, patch)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, common.NewUserError(common.ErrorNotFound, msgShareNotFound)
	}
	return updated[0], nil
}

// DeleteShare deletes a share of the user's organization. It reports
// whether a share was deleted.
func (s *ShareService) DeleteShare(ctx context.Context, user *models.User, storageType models.StorageType, uniqueID string) (bool, error) {
	ref := models.ShareRef{OrganizationID: user.OrganizationID, StorageType: storageType, UniqueID: uniqueID}
	n, err := s.scope().shares.DeleteWhere(ctx, ref)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListShares lists the organization shares, or with userID set the shares
// of that user's CSPs. Listing another user's shares needs administrator
// rights.
func (s *ShareService) ListShares(ctx context.Context, user *models.User, userID string) ([]*models.Share, error) {
	sc := s.scope()
	if userID == "" {
		return sc.shares.ForOrganization(ctx, user.OrganizationID)
	}

	id, ok := canonicalID(userID)
	if id != user.ID && !user.IsAdministrator() {
		return nil, common.NewUserError(common.ErrorPermissionDenied, msgAdminRequired)
	}
	if !ok {
		return nil, common.NewUserError(common.ErrorNotFound, msgUserNotFound)
	}
	userID = id
	target, err := sc.users.GetInOrganization(ctx, user.OrganizationID, userID)
	if err != nil {
		return nil, notFound(err, msgUserNotFound)
	}

	csps, err := sc.csps.ForUser(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	accounts := make([]models.StorageAccount, 0, len(csps))
	for _, c := range csps {
		accounts = append(accounts, c.Account())
	}
	byAccount, err := sc.shares.ForAccounts(ctx, accounts)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var out []*models.Share
	for _, a := range accounts {
		for _, sh := range byAccount[a] {
			if sh.OrganizationID != user.OrganizationID {
				continue
			}
			if _, dup := seen[sh.ID]; dup {
				continue
			}
			seen[sh.ID] = struct{}{}
			out = append(out, sh)
		}
	}
	return out, nil
}

// GetShare looks a share of the user's organization up and describes it.
func (s *ShareService) GetShare(ctx context.Context, user *models.User, storageType models.StorageType, uniqueID string) (*models.ShareDetails, error) {
	sc := s.scope()
	ref := models.ShareRef{OrganizationID: user.OrganizationID, StorageType: storageType, UniqueID: uniqueID}
	share, err := sc.shares.FindByRef(ctx, ref)
	if err != nil {
		return nil, notFound(err, msgShareNotFound)
	}
	return sc.describe(ctx, user, share)
}

// describe computes the membership fields of share as seen by user.
func (sc *scope) describe(ctx context.Context, user *models.User, share *models.Share) (*models.ShareDetails, error) {
	csps, err := sc.findCspsWithShare(ctx, share)
	if err != nil {
		return nil, err
	}
	members, err := sc.users.GetMany(ctx, distinctUserIDs(csps))
	if err != nil {
		return nil, err
	}
	unkeyed, err := sc.withoutShareKeys(ctx, share, members)
	if err != nil {
		return nil, err
	}

	d := &models.ShareDetails{
		Share:                share,
		Users:                views(members),
		UsersWithoutShareKey: views(unkeyed),
		HasExternalUsers:     hasExternalUsers(share, csps),
		Csps:                 make([]models.CspView, 0, len(csps)),
	}
	for _, c := range csps {
		d.Csps = append(d.Csps, c.View())
	}

	k, err := sc.shareKeys.GetByShareAndUser(ctx, share.ID, user.ID)
	switch {
	case err == nil:
		d.ShareKeyForCurrentUser = &k.EncryptedShareKey
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}
	return d, nil
}

func views(list []*models.User) []models.UserView {
	out := make([]models.UserView, 0, len(list))
	for _, u := range list {
		out = append(out, u.View())
	}
	return out
}

// InitShareKeys sets the public key of a share and stores the initial
// encrypted share keys of its members. It runs at most once per share: the
// share row is locked for the whole transaction.
func (s *ShareService) InitShareKeys(ctx context.Context, user *models.User, in InitShareKeysInput) (*models.Share, error) {
	var updated *models.Share

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := dbx.SetLockTimeout(ctx, tx, s.lockTimeout); err != nil {
			return err
		}
		sc := newScope(s.repomanager, tx)

		ref := models.ShareRef{OrganizationID: user.OrganizationID, StorageType: in.StorageType, UniqueID: in.ShareUniqueID}
		share, err := sc.shares.FindByRefForUpdate(ctx, ref)
		if err != nil {
			return notFound(err, msgShareNotFound)
		}
		if share.Encrypted() {
			return common.NewUserError(common.ErrorConflict, msgShareKeyAlreadySet)
		}

		candidates := []string{user.ID}
		targets := make([]string, len(in.EncryptedShareKeys))
		for i, k := range in.EncryptedShareKeys {
			if id, ok := canonicalID(k.UserID); ok {
				targets[i] = id
				candidates = append(candidates, id)
			}
		}
		members, err := sc.members(ctx, share, candidates)
		if err != nil {
			return err
		}
		if !members[user.ID] {
			return common.NewUserError(common.ErrorPermissionDenied, msgNotShareMember)
		}
		for i, k := range in.EncryptedShareKeys {
			if !members[targets[i]] {
				return common.NewUserError(common.ErrorPermissionDenied, msgUserNotShareMember, k.UserID)
			}
		}

		publicKey := in.PublicShareKey
		updated, err = sc.shares.Update(ctx, share.ID, models.SharePatch{PublicShareKey: &publicKey})
		if err != nil {
			return err
		}

		// one connection, so the inserts run one after another
		for i, k := range in.EncryptedShareKeys {
			_, err := sc.shareKeys.Create(ctx, &models.ShareKey{
				ShareID:           share.ID,
				UserID:            targets[i],
				EncryptedShareKey: k.EncryptedShareKey,
			})
			if err != nil {
				if dbx.IsUniqueViolation(err) {
					return common.NewUserError(common.ErrorConflict, msgDuplicateShareKey)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "share keys initialized",
		"share_id", updated.ID,
		"public_key", cryptox.Fingerprint(in.PublicShareKey),
		"keys", len(in.EncryptedShareKeys))
	return updated, nil
}

// AddShareKey stores the share key of one more member. The caller must be
// a member of the share already.
func (s *ShareService) AddShareKey(ctx context.Context, user *models.User, in AddShareKeyInput) (*models.ShareKey, error) {
	sc := s.scope()

	ref := models.ShareRef{OrganizationID: user.OrganizationID, StorageType: in.StorageType, UniqueID: in.ShareUniqueID}
	share, err := sc.shares.FindByRef(ctx, ref)
	if err != nil {
		return nil, notFound(err, msgShareNotFound)
	}

	targetID, ok := canonicalID(in.UserID)
	if !ok {
		return nil, common.NewUserError(common.ErrorNotFound, msgShareUserNotFound)
	}
	target, err := sc.users.GetInOrganization(ctx, user.OrganizationID, targetID)
	if err != nil {
		return nil, notFound(err, msgShareUserNotFound)
	}

	members, err := sc.members(ctx, share, []string{user.ID})
	if err != nil {
		return nil, err
	}
	if !members[user.ID] {
		return nil, common.NewUserError(common.ErrorPermissionDenied, msgNotShareMember)
	}

	key, err := sc.shareKeys.Create(ctx, &models.ShareKey{
		ShareID:           share.ID,
		UserID:            target.ID,
		EncryptedShareKey: in.EncryptedShareKey,
	})
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.NewUserError(common.ErrorConflict, msgDuplicateShareKey)
		}
		return nil, err
	}

	s.logger.Info(ctx, "share key added", "share_id", share.ID, "user_id", target.ID, "by", user.ID)
	return key, nil
}

// RemoveUserFromShare takes the user's account out of the share. When no
// other linked account is left the share itself is deleted. It reports
// false when the user has no such CSP or the CSP is not part of the share.
//
// The user's share key is kept.
func (s *ShareService) RemoveUserFromShare(ctx context.Context, user *models.User, storageType models.StorageType, storageUniqueID, shareUniqueID string) (bool, error) {
	sc := s.scope()

	csps, err := sc.csps.ByAccount(ctx, models.StorageAccount{Type: storageType, UniqueID: storageUniqueID})
	if err != nil {
		return false, err
	}
	idx := slices.IndexFunc(csps, func(c *models.CloudStorageProvider) bool { return c.UserID == user.ID })
	if idx < 0 {
		return false, nil
	}

	found, err := sc.findForCsp(ctx, csps[idx], user.OrganizationID)
	if err != nil {
		return false, err
	}
	var matching []*models.Share
	for _, sh := range found {
		if sh.UniqueID == shareUniqueID {
			matching = append(matching, sh)
		}
	}
	if len(matching) == 0 {
		return false, nil
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := dbx.SetLockTimeout(ctx, tx, s.lockTimeout); err != nil {
			return err
		}
		txs := newScope(s.repomanager, tx)
		for _, found := range matching {
			// shrink from the locked row, not from the copy read above
			share, err := txs.shares.GetForUpdate(ctx, found.ID)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !slices.Contains(share.StorageUniqueIDs, storageUniqueID) {
				continue
			}
			if err := txs.shrinkShare(ctx, share, storageUniqueID); err != nil {
				return err
			}
			txs.csps.ClearAccountCache()
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	sc.csps.ClearAccountCache()

	s.logger.Info(ctx, "user removed from share", "user_id", user.ID, "share_unique_id", shareUniqueID)
	return true, nil
}

func (sc *scope) shrinkShare(ctx context.Context, share *models.Share, storageUniqueID string) error {
	if len(share.StorageUniqueIDs) <= 1 {
		return sc.shares.Delete(ctx, share.ID)
	}

	sc.csps.ClearAccountCache()
	linked, err := sc.findCspsWithShare(ctx, share)
	if err != nil {
		return err
	}
	if len(linked) <= 1 {
		return sc.shares.Delete(ctx, share.ID)
	}

	rest := slices.DeleteFunc(slices.Clone(share.StorageUniqueIDs), func(id string) bool { return id == storageUniqueID })
	_, err = sc.shares.Update(ctx, share.ID, models.SharePatch{StorageUniqueIDs: rest})
	return err
}
