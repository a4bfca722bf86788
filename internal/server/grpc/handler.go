package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

// --- cloud storages ---

func (s *GRPCServer) AddCloudStorage(ctx context.Context, req *api.AddCloudStorageRequest) (*api.CloudStorageResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	csp, err := s.svc.CloudStorages.Add(ctx, user, services.AddCloudStorageInput{
		Type:               models.StorageType(req.Type),
		CspID:              req.CspID,
		UniqueID:           req.UniqueID,
		AuthenticationData: req.AuthenticationData,
		DisplayName:        req.DisplayName,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.CloudStorageResponse{CloudStorage: toCloudStorage(csp)}, nil
}

func (s *GRPCServer) DeleteCloudStorage(ctx context.Context, req *api.DeleteCloudStorageRequest) (*api.DeletedResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.CloudStorages.Delete(ctx, user, req.CspID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeletedResponse{Deleted: ok}, nil
}

func (s *GRPCServer) UpdateCspAuthData(ctx context.Context, req *api.UpdateCspAuthDataRequest) (*api.CloudStorageResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	csp, err := s.svc.CloudStorages.UpdateAuthData(ctx, user, req.CspID, req.OldAuthenticationData, req.AuthenticationData)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.CloudStorageResponse{CloudStorage: toCloudStorage(csp)}, nil
}

func (s *GRPCServer) ListCloudStorages(ctx context.Context, req *api.ListCloudStoragesRequest) (*api.ListCloudStoragesResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.CloudStorages.List(ctx, user)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out := make([]api.CloudStorage, 0, len(list))
	for _, c := range list {
		out = append(out, toCloudStorage(c))
	}
	return &api.ListCloudStoragesResponse{CloudStorages: out}, nil
}

func (s *GRPCServer) ListCspShares(ctx context.Context, req *api.ListCspSharesRequest) (*api.ListSharesResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.Shares.SharesForCsp(ctx, user, req.CspID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ListSharesResponse{Shares: toShares(list)}, nil
}

// --- shares ---

func (s *GRPCServer) AddShare(ctx context.Context, req *api.AddShareRequest) (*api.ShareResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	share, err := s.svc.Shares.AddShare(ctx, user, services.AddShareInput{
		Name:             req.Name,
		StorageType:      models.StorageType(req.StorageType),
		UniqueID:         req.UniqueID,
		StorageUniqueIDs: req.StorageUniqueIDs,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ShareResponse{Share: toShare(share)}, nil
}

func (s *GRPCServer) UpdateShare(ctx context.Context, req *api.UpdateShareRequest) (*api.ShareResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	share, err := s.svc.Shares.UpdateShare(ctx, user, services.UpdateShareInput{
		StorageType:      models.StorageType(req.StorageType),
		UniqueID:         req.UniqueID,
		Name:             req.Name,
		StorageUniqueIDs: req.StorageUniqueIDs,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ShareResponse{Share: toShare(share)}, nil
}

func (s *GRPCServer) DeleteShare(ctx context.Context, req *api.DeleteShareRequest) (*api.DeletedResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.Shares.DeleteShare(ctx, user, models.StorageType(req.StorageType), req.UniqueID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeletedResponse{Deleted: ok}, nil
}

func (s *GRPCServer) ListShares(ctx context.Context, req *api.ListSharesRequest) (*api.ListSharesResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.Shares.ListShares(ctx, user, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ListSharesResponse{Shares: toShares(list)}, nil
}

func (s *GRPCServer) GetShare(ctx context.Context, req *api.GetShareRequest) (*api.ShareDetailsResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.svc.Shares.GetShare(ctx, user, models.StorageType(req.StorageType), req.UniqueID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ShareDetailsResponse{Share: toShareDetails(d)}, nil
}

func (s *GRPCServer) InitShareKeys(ctx context.Context, req *api.InitShareKeysRequest) (*api.ShareResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	in := services.InitShareKeysInput{
		StorageType:    models.StorageType(req.StorageType),
		ShareUniqueID:  req.ShareUniqueID,
		PublicShareKey: req.PublicShareKey,
	}
	for _, k := range req.EncryptedShareKeys {
		in.EncryptedShareKeys = append(in.EncryptedShareKeys, services.EncryptedShareKey{
			UserID:            k.UserID,
			EncryptedShareKey: k.EncryptedShareKey,
		})
	}
	share, err := s.svc.Shares.InitShareKeys(ctx, user, in)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ShareResponse{Share: toShare(share)}, nil
}

func (s *GRPCServer) AddShareKey(ctx context.Context, req *api.AddShareKeyRequest) (*api.ShareKeyResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	key, err := s.svc.Shares.AddShareKey(ctx, user, services.AddShareKeyInput{
		StorageType:       models.StorageType(req.StorageType),
		ShareUniqueID:     req.ShareUniqueID,
		UserID:            req.UserID,
		EncryptedShareKey: req.EncryptedShareKey,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ShareKeyResponse{ShareKey: toShareKey(key)}, nil
}

func (s *GRPCServer) RemoveUserFromShare(ctx context.Context, req *api.RemoveUserFromShareRequest) (*api.RemoveUserFromShareResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.Shares.RemoveUserFromShare(ctx, user, models.StorageType(req.StorageType), req.StorageUniqueID, req.ShareUniqueID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.RemoveUserFromShareResponse{Removed: ok}, nil
}

// --- key exchange ---

func (s *GRPCServer) InitUserKey(ctx context.Context, req *api.InitUserKeyRequest) (*api.UserResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.Keys.InitUserKey(ctx, user, services.InitUserKeyInput{
		PublicKey: req.PublicKey,
		DeviceKeyInput: services.DeviceKeyInput{
			DeviceID:         req.DeviceID,
			PublicDeviceKey:  req.PublicDeviceKey,
			EncryptedUserKey: req.EncryptedUserKey,
		},
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.UserResponse{User: toUser(updated)}, nil
}

func (s *GRPCServer) RequestDeviceApproval(ctx context.Context, req *api.RequestDeviceApprovalRequest) (*api.ApprovalRequestResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	r, err := s.svc.Keys.RequestDeviceApproval(ctx, user, req.DeviceID, req.PublicDeviceKey)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ApprovalRequestResponse{ApprovalRequest: toApprovalRequest(r)}, nil
}

func (s *GRPCServer) ApproveDevice(ctx context.Context, req *api.ApproveDeviceRequest) (*api.DeviceKeyResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	k, err := s.svc.Keys.ApproveDevice(ctx, user, services.DeviceKeyInput{
		DeviceID:         req.DeviceID,
		PublicDeviceKey:  req.PublicDeviceKey,
		EncryptedUserKey: req.EncryptedUserKey,
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeviceKeyResponse{DeviceKey: toDeviceKey(k)}, nil
}

func (s *GRPCServer) DeclineDevice(ctx context.Context, req *api.DeclineDeviceRequest) (*api.DeclineDeviceResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.svc.Keys.DeclineDevice(ctx, user, req.DeviceID, req.PublicDeviceKey)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeclineDeviceResponse{Declined: ok}, nil
}

func (s *GRPCServer) ListDeviceKeys(ctx context.Context, req *api.ListDeviceKeysRequest) (*api.ListDeviceKeysResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.svc.Keys.ListDeviceKeys(ctx, user)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out := &api.ListDeviceKeysResponse{
		ApprovalRequests: make([]api.ApprovalRequest, 0, len(keys.ApprovalRequests)),
		DeviceKeys:       make([]api.DeviceKey, 0, len(keys.EncryptedUserKeys)),
	}
	for _, r := range keys.ApprovalRequests {
		out.ApprovalRequests = append(out.ApprovalRequests, toApprovalRequest(r))
	}
	for _, k := range keys.EncryptedUserKeys {
		out.DeviceKeys = append(out.DeviceKeys, toDeviceKey(k))
	}
	return out, nil
}

// --- admin ---

func (s *GRPCServer) ResetUserKeys(ctx context.Context, req *api.ResetUserKeysRequest) (*api.UserResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.svc.Admin.ResetUserKeys(ctx, user, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.UserResponse{User: toUser(updated)}, nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *api.DeleteUserRequest) (*api.DeleteUserResponse, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.svc.Admin.DeleteUser(ctx, user, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.DeleteUserResponse{UserID: id}, nil
}
