package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "sharevault.v1.ShareVault"

// Method names.
const (
	MethodPing                  = "Ping"
	MethodAddCloudStorage       = "AddCloudStorage"
	MethodDeleteCloudStorage    = "DeleteCloudStorage"
	MethodUpdateCspAuthData     = "UpdateCspAuthData"
	MethodListCloudStorages     = "ListCloudStorages"
	MethodListCspShares         = "ListCspShares"
	MethodAddShare              = "AddShare"
	MethodUpdateShare           = "UpdateShare"
	MethodDeleteShare           = "DeleteShare"
	MethodListShares            = "ListShares"
	MethodGetShare              = "GetShare"
	MethodInitShareKeys         = "InitShareKeys"
	MethodAddShareKey           = "AddShareKey"
	MethodRemoveUserFromShare   = "RemoveUserFromShare"
	MethodInitUserKey           = "InitUserKey"
	MethodRequestDeviceApproval = "RequestDeviceApproval"
	MethodApproveDevice         = "ApproveDevice"
	MethodDeclineDevice         = "DeclineDevice"
	MethodListDeviceKeys        = "ListDeviceKeys"
	MethodResetUserKeys         = "ResetUserKeys"
	MethodDeleteUser            = "DeleteUser"
)

// FullMethod returns the gRPC path of a method, e.g. /sharevault.v1.ShareVault/Ping.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ShareVaultServer is implemented by the server side of the service.
type ShareVaultServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)

	AddCloudStorage(context.Context, *AddCloudStorageRequest) (*CloudStorageResponse, error)
	DeleteCloudStorage(context.Context, *DeleteCloudStorageRequest) (*DeletedResponse, error)
	UpdateCspAuthData(context.Context, *UpdateCspAuthDataRequest) (*CloudStorageResponse, error)
	ListCloudStorages(context.Context, *ListCloudStoragesRequest) (*ListCloudStoragesResponse, error)
	ListCspShares(context.Context, *ListCspSharesRequest) (*ListSharesResponse, error)

	AddShare(context.Context, *AddShareRequest) (*ShareResponse, error)
	UpdateShare(context.Context, *UpdateShareRequest) (*ShareResponse, error)
	DeleteShare(context.Context, *DeleteShareRequest) (*DeletedResponse, error)
	ListShares(context.Context, *ListSharesRequest) (*ListSharesResponse, error)
	GetShare(context.Context, *GetShareRequest) (*ShareDetailsResponse, error)
	InitShareKeys(context.Context, *InitShareKeysRequest) (*ShareResponse, error)
	AddShareKey(context.Context, *AddShareKeyRequest) (*ShareKeyResponse, error)
	RemoveUserFromShare(context.Context, *RemoveUserFromShareRequest) (*RemoveUserFromShareResponse, error)

	InitUserKey(context.Context, *InitUserKeyRequest) (*UserResponse, error)
	RequestDeviceApproval(context.Context, *RequestDeviceApprovalRequest) (*ApprovalRequestResponse, error)
	ApproveDevice(context.Context, *ApproveDeviceRequest) (*DeviceKeyResponse, error)
	DeclineDevice(context.Context, *DeclineDeviceRequest) (*DeclineDeviceResponse, error)
	ListDeviceKeys(context.Context, *ListDeviceKeysRequest) (*ListDeviceKeysResponse, error)

	ResetUserKeys(context.Context, *ResetUserKeysRequest) (*UserResponse, error)
	DeleteUser(context.Context, *DeleteUserRequest) (*DeleteUserResponse, error)
}

func unary[Req, Resp any](method string, call func(ShareVaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ShareVaultServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ShareVaultServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ShareVaultServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, ShareVaultServer.Ping),
		unary(MethodAddCloudStorage, ShareVaultServer.AddCloudStorage),
		unary(MethodDeleteCloudStorage, ShareVaultServer.DeleteCloudStorage),
		unary(MethodUpdateCspAuthData, ShareVaultServer.UpdateCspAuthData),
		unary(MethodListCloudStorages, ShareVaultServer.ListCloudStorages),
		unary(MethodListCspShares, ShareVaultServer.ListCspShares),
		unary(MethodAddShare, ShareVaultServer.AddShare),
		unary(MethodUpdateShare, ShareVaultServer.UpdateShare),
		unary(MethodDeleteShare, ShareVaultServer.DeleteShare),
		unary(MethodListShares, ShareVaultServer.ListShares),
		unary(MethodGetShare, ShareVaultServer.GetShare),
		unary(MethodInitShareKeys, ShareVaultServer.InitShareKeys),
		unary(MethodAddShareKey, ShareVaultServer.AddShareKey),
		unary(MethodRemoveUserFromShare, ShareVaultServer.RemoveUserFromShare),
		unary(MethodInitUserKey, ShareVaultServer.InitUserKey),
		unary(MethodRequestDeviceApproval, ShareVaultServer.RequestDeviceApproval),
		unary(MethodApproveDevice, ShareVaultServer.ApproveDevice),
		unary(MethodDeclineDevice, ShareVaultServer.DeclineDevice),
		unary(MethodListDeviceKeys, ShareVaultServer.ListDeviceKeys),
		unary(MethodResetUserKeys, ShareVaultServer.ResetUserKeys),
		unary(MethodDeleteUser, ShareVaultServer.DeleteUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sharevault/v1",
}

func RegisterShareVaultServer(s grpc.ServiceRegistrar, srv ShareVaultServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ShareVaultClient is a typed stub over a client connection. Calls are sent
// with the JSON codec.
type ShareVaultClient struct {
	cc grpc.ClientConnInterface
}

func NewShareVaultClient(cc grpc.ClientConnInterface) *ShareVaultClient {
	return &ShareVaultClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShareVaultClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingRequest, PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *ShareVaultClient) AddCloudStorage(ctx context.Context, in *AddCloudStorageRequest, opts ...grpc.CallOption) (*CloudStorageResponse, error) {
	return invoke[AddCloudStorageRequest, CloudStorageResponse](ctx, c.cc, MethodAddCloudStorage, in, opts)
}

func (c *ShareVaultClient) DeleteCloudStorage(ctx context.Context, in *DeleteCloudStorageRequest, opts ...grpc.CallOption) (*DeletedResponse, error) {
	return invoke[DeleteCloudStorageRequest, DeletedResponse](ctx, c.cc, MethodDeleteCloudStorage, in, opts)
}

func (c *ShareVaultClient) UpdateCspAuthData(ctx context.Context, in *UpdateCspAuthDataRequest, opts ...grpc.CallOption) (*CloudStorageResponse, error) {
	return invoke[UpdateCspAuthDataRequest, CloudStorageResponse](ctx, c.cc, MethodUpdateCspAuthData, in, opts)
}

func (c *ShareVaultClient) ListCloudStorages(ctx context.Context, in *ListCloudStoragesRequest, opts ...grpc.CallOption) (*ListCloudStoragesResponse, error) {
	return invoke[ListCloudStoragesRequest, ListCloudStoragesResponse](ctx, c.cc, MethodListCloudStorages, in, opts)
}

func (c *ShareVaultClient) ListCspShares(ctx context.Context, in *ListCspSharesRequest, opts ...grpc.CallOption) (*ListSharesResponse, error) {
	return invoke[ListCspSharesRequest, ListSharesResponse](ctx, c.cc, MethodListCspShares, in, opts)
}

func (c *ShareVaultClient) AddShare(ctx context.Context, in *AddShareRequest, opts ...grpc.CallOption) (*ShareResponse, error) {
	return invoke[AddShareRequest, ShareResponse](ctx, c.cc, MethodAddShare, in, opts)
}

func (c *ShareVaultClient) UpdateShare(ctx context.Context, in *UpdateShareRequest, opts ...grpc.CallOption) (*ShareResponse, error) {
	return invoke[UpdateShareRequest, ShareResponse](ctx, c.cc, MethodUpdateShare, in, opts)
}

func (c *ShareVaultClient) DeleteShare(ctx context.Context, in *DeleteShareRequest, opts ...grpc.CallOption) (*DeletedResponse, error) {
	return invoke[DeleteShareRequest, DeletedResponse](ctx, c.cc, MethodDeleteShare, in, opts)
}

func (c *ShareVaultClient) ListShares(ctx context.Context, in *ListSharesRequest, opts ...grpc.CallOption) (*ListSharesResponse, error) {
	return invoke[ListSharesRequest, ListSharesResponse](ctx, c.cc, MethodListShares, in, opts)
}

func (c *ShareVaultClient) GetShare(ctx context.Context, in *GetShareRequest, opts ...grpc.CallOption) (*ShareDetailsResponse, error) {
	return invoke[GetShareRequest, ShareDetailsResponse](ctx, c.cc, MethodGetShare, in, opts)
}

func (c *ShareVaultClient) InitShareKeys(ctx context.Context, in *InitShareKeysRequest, opts ...grpc.CallOption) (*ShareResponse, error) {
	return invoke[InitShareKeysRequest, ShareResponse](ctx, c.cc, MethodInitShareKeys, in, opts)
}

func (c *ShareVaultClient) AddShareKey(ctx context.Context, in *AddShareKeyRequest, opts ...grpc.CallOption) (*ShareKeyResponse, error) {
	return invoke[AddShareKeyRequest, ShareKeyResponse](ctx, c.cc, MethodAddShareKey, in, opts)
}

func (c *ShareVaultClient) RemoveUserFromShare(ctx context.Context, in *RemoveUserFromShareRequest, opts ...grpc.CallOption) (*RemoveUserFromShareResponse, error) {
	return invoke[RemoveUserFromShareRequest, RemoveUserFromShareResponse](ctx, c.cc, MethodRemoveUserFromShare, in, opts)
}

func (c *ShareVaultClient) InitUserKey(ctx context.Context, in *InitUserKeyRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[InitUserKeyRequest, UserResponse](ctx, c.cc, MethodInitUserKey, in, opts)
}

func (c *ShareVaultClient) RequestDeviceApproval(ctx context.Context, in *RequestDeviceApprovalRequest, opts ...grpc.CallOption) (*ApprovalRequestResponse, error) {
	return invoke[RequestDeviceApprovalRequest, ApprovalRequestResponse](ctx, c.cc, MethodRequestDeviceApproval, in, opts)
}

func (c *ShareVaultClient) ApproveDevice(ctx context.Context, in *ApproveDeviceRequest, opts ...grpc.CallOption) (*DeviceKeyResponse, error) {
	return invoke[ApproveDeviceRequest, DeviceKeyResponse](ctx, c.cc, MethodApproveDevice, in, opts)
}

func (c *ShareVaultClient) DeclineDevice(ctx context.Context, in *DeclineDeviceRequest, opts ...grpc.CallOption) (*DeclineDeviceResponse, error) {
	return invoke[DeclineDeviceRequest, DeclineDeviceResponse](ctx, c.cc, MethodDeclineDevice, in, opts)
}

func (c *ShareVaultClient) ListDeviceKeys(ctx context.Context, in *ListDeviceKeysRequest, opts ...grpc.CallOption) (*ListDeviceKeysResponse, error) {
	return invoke[ListDeviceKeysRequest, ListDeviceKeysResponse](ctx, c.cc, MethodListDeviceKeys, in, opts)
}

func (c *ShareVaultClient) ResetUserKeys(ctx context.Context, in *ResetUserKeysRequest, opts ...grpc.CallOption) (*UserResponse, error) {
	return invoke[ResetUserKeysRequest, UserResponse](ctx, c.cc, MethodResetUserKeys, in, opts)
}

func (c *ShareVaultClient) DeleteUser(ctx context.Context, in *DeleteUserRequest, opts ...grpc.CallOption) (*DeleteUserResponse, error) {
	return invoke[DeleteUserRequest, DeleteUserResponse](ctx, c.cc, MethodDeleteUser, in, opts)
}
