package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
)

type fakeAuth struct {
	users map[string]*models.User
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, common.NewUserError(common.ErrorUnauthorized, "Authentication required")
	}
	return u, nil
}

type fakeCsps struct {
	CloudStorages
	added services.AddCloudStorageInput
	err   error
}

func (f *fakeCsps) Add(_ context.Context, user *models.User, in services.AddCloudStorageInput) (*models.CloudStorageProvider, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.added = in
	return &models.CloudStorageProvider{ID: "c1", UserID: user.ID, Type: in.Type, CspID: in.CspID, UniqueID: in.UniqueID}, nil
}

func (f *fakeCsps) UpdateAuthData(context.Context, *models.User, string, string, string) (*models.CloudStorageProvider, error) {
	return nil, f.err
}

type fakeShares struct {
	Shares
	init    services.InitShareKeysInput
	caller  *models.User
	err     error
	details *models.ShareDetails
}

func (f *fakeShares) InitShareKeys(_ context.Context, user *models.User, in services.InitShareKeysInput) (*models.Share, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.caller, f.init = user, in
	pk := in.PublicShareKey
	return &models.Share{ID: "s1", StorageType: in.StorageType, UniqueID: in.ShareUniqueID, StorageUniqueIDs: []string{"a"}, PublicShareKey: &pk}, nil
}

func (f *fakeShares) GetShare(context.Context, *models.User, models.StorageType, string) (*models.ShareDetails, error) {
	return f.details, f.err
}

func (f *fakeShares) RemoveUserFromShare(context.Context, *models.User, models.StorageType, string, string) (bool, error) {
	return false, f.err
}

type fakeKeys struct {
	KeyExchange
	declined bool
}

func (f *fakeKeys) DeclineDevice(context.Context, *models.User, string, string) (bool, error) {
	return f.declined, nil
}

type fakeAdmin struct {
	Admin
}

func (fakeAdmin) DeleteUser(_ context.Context, admin *models.User, userID string) (string, error) {
	if !admin.IsAdministrator() {
		return "", common.NewUserError(common.ErrorPermissionDenied, "Administrator rights required to perform this action")
	}
	return userID, nil
}
