package grpc

import (
	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

func toCloudStorage(c *models.CloudStorageProvider) api.CloudStorage {
	return api.CloudStorage{
		ID:                 c.ID,
		Type:               string(c.Type),
		CspID:              c.CspID,
		UniqueID:           c.UniqueID,
		AuthenticationData: c.AuthenticationData,
		DisplayName:        c.DisplayName,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func toShare(s *models.Share) api.Share {
	return api.Share{
		ID:               s.ID,
		Name:             s.Name,
		StorageType:      string(s.StorageType),
		UniqueID:         s.UniqueID,
		StorageUniqueIDs: s.StorageUniqueIDs,
		PublicShareKey:   s.PublicShareKey,
		Encrypted:        s.Encrypted(),
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toShares(list []*models.Share) []api.Share {
	out := make([]api.Share, 0, len(list))
	for _, s := range list {
		out = append(out, toShare(s))
	}
	return out
}

func toUserViews(list []models.UserView) []api.UserView {
	out := make([]api.UserView, 0, len(list))
	for _, u := range list {
		out = append(out, api.UserView{ID: u.ID, Email: u.Email})
	}
	return out
}

func toShareDetails(d *models.ShareDetails) api.ShareDetails {
	csps := make([]api.CspView, 0, len(d.Csps))
	for _, c := range d.Csps {
		csps = append(csps, api.CspView{
			ID:          c.ID,
			CspID:       c.CspID,
			DisplayName: c.DisplayName,
			Type:        string(c.Type),
			UniqueID:    c.UniqueID,
			UserID:      c.UserID,
		})
	}
	return api.ShareDetails{
		Share:                  toShare(d.Share),
		Users:                  toUserViews(d.Users),
		UsersWithoutShareKey:   toUserViews(d.UsersWithoutShareKey),
		HasExternalUsers:       d.HasExternalUsers,
		ShareKeyForCurrentUser: d.ShareKeyForCurrentUser,
		Csps:                   csps,
	}
}

func toShareKey(k *models.ShareKey) api.ShareKey {
	return api.ShareKey{ID: k.ID, ShareID: k.ShareID, UserID: k.UserID, EncryptedShareKey: k.EncryptedShareKey}
}

func toUser(u *models.User) api.User {
	return api.User{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		Name:           u.Name,
		PublicKey:      u.PublicKey,
		Roles:          u.Roles,
	}
}

func toApprovalRequest(r *models.ApprovalRequest) api.ApprovalRequest {
	return api.ApprovalRequest{DeviceID: r.DeviceID, PublicDeviceKey: r.PublicDeviceKey, UpdatedAt: r.UpdatedAt}
}

func toDeviceKey(k *models.EncryptedUserKeyData) api.DeviceKey {
	return api.DeviceKey{DeviceID: k.DeviceID, PublicDeviceKey: k.PublicDeviceKey, EncryptedUserKey: k.EncryptedUserKey}
}
