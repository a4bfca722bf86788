// Package client is a thin wrapper over the ShareVault gRPC stub. It attaches
// the access token to every call and turns status errors back into the
// error kinds from package common.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type Client struct {
	conn        *grpc.ClientConn
	api         *api.ShareVaultClient
	accessToken string
	timeout     time.Duration
}

type Option func(*options)

type options struct {
	timeout time.Duration
	dial    []grpc.DialOption
}

// WithTimeout bounds every call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDialOptions appends extra dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dial = append(o.dial, opts...) }
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return mapError(invoker(ctx, method, req, reply, cc, opts...))
}

// New dials endpoint lazily; the first call establishes the connection.
func New(endpoint, accessToken string, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{accessToken: accessToken, timeout: o.timeout}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, o.dial...)

	conn, err := grpc.NewClient(endpoint, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.api = api.NewShareVaultClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// mapError converts a status error into ErrUnauthorized, ErrUnavailable or a
// common.UserError carrying the server message.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.NotFound:
		return common.NewUserError(common.ErrorNotFound, "%s", st.Message())
	case codes.AlreadyExists:
		return common.NewUserError(common.ErrorConflict, "%s", st.Message())
	case codes.PermissionDenied:
		return common.NewUserError(common.ErrorPermissionDenied, "%s", st.Message())
	case codes.InvalidArgument:
		return common.NewUserError(common.ErrorInvalidArgument, "%s", st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return err
	}
	if resp.Status != "OK" {
		return fmt.Errorf("%w: status %q", ErrUnavailable, resp.Status)
	}
	return nil
}

func (c *Client) AddCloudStorage(ctx context.Context, req *api.AddCloudStorageRequest) (*api.CloudStorage, error) {
	resp, err := c.api.AddCloudStorage(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.CloudStorage, nil
}

func (c *Client) DeleteCloudStorage(ctx context.Context, cspID string) (bool, error) {
	resp, err := c.api.DeleteCloudStorage(ctx, &api.DeleteCloudStorageRequest{CspID: cspID})
	if err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// UpdateCspAuthData swaps the credential blob only if the server still holds
// old.
func (c *Client) UpdateCspAuthData(ctx context.Context, cspID, old, next string) (*api.CloudStorage, error) {
	resp, err := c.api.UpdateCspAuthData(ctx, &api.UpdateCspAuthDataRequest{
		CspID:                 cspID,
		OldAuthenticationData: old,
		AuthenticationData:    next,
	})
	if err != nil {
		return nil, err
	}
	return &resp.CloudStorage, nil
}

func (c *Client) ListCloudStorages(ctx context.Context) ([]api.CloudStorage, error) {
	resp, err := c.api.ListCloudStorages(ctx, &api.ListCloudStoragesRequest{})
	if err != nil {
		return nil, err
	}
	return resp.CloudStorages, nil
}

func (c *Client) ListCspShares(ctx context.Context, cspID string) ([]api.Share, error) {
	resp, err := c.api.ListCspShares(ctx, &api.ListCspSharesRequest{CspID: cspID})
	if err != nil {
		return nil, err
	}
	return resp.Shares, nil
}

func (c *Client) AddShare(ctx context.Context, req *api.AddShareRequest) (*api.Share, error) {
	resp, err := c.api.AddShare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.Share, nil
}

func (c *Client) UpdateShare(ctx context.Context, req *api.UpdateShareRequest) (*api.Share, error) {
	resp, err := c.api.UpdateShare(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.Share, nil
}

func (c *Client) DeleteShare(ctx context.Context, storageType, uniqueID string) (bool, error) {
	resp, err := c.api.DeleteShare(ctx, &api.DeleteShareRequest{StorageType: storageType, UniqueID: uniqueID})
	if err != nil {
		return false, err
	}
	return resp.Deleted, nil
}

// ListShares lists shares visible to userID, or to the caller when userID is
// empty.
func (c *Client) ListShares(ctx context.Context, userID string) ([]api.Share, error) {
	resp, err := c.api.ListShares(ctx, &api.ListSharesRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return resp.Shares, nil
}

func (c *Client) GetShare(ctx context.Context, storageType, uniqueID string) (*api.ShareDetails, error) {
	resp, err := c.api.GetShare(ctx, &api.GetShareRequest{StorageType: storageType, UniqueID: uniqueID})
	if err != nil {
		return nil, err
	}
	return &resp.Share, nil
}

func (c *Client) InitShareKeys(ctx context.Context, req *api.InitShareKeysRequest) (*api.Share, error) {
	resp, err := c.api.InitShareKeys(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.Share, nil
}

func (c *Client) AddShareKey(ctx context.Context, req *api.AddShareKeyRequest) (*api.ShareKey, error) {
	resp, err := c.api.AddShareKey(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.ShareKey, nil
}

func (c *Client) RemoveUserFromShare(ctx context.Context, req *api.RemoveUserFromShareRequest) (bool, error) {
	resp, err := c.api.RemoveUserFromShare(ctx, req)
	if err != nil {
		return false, err
	}
	return resp.Removed, nil
}

func (c *Client) InitUserKey(ctx context.Context, req *api.InitUserKeyRequest) (*api.User, error) {
	resp, err := c.api.InitUserKey(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) RequestDeviceApproval(ctx context.Context, deviceID, publicDeviceKey string) (*api.ApprovalRequest, error) {
	resp, err := c.api.RequestDeviceApproval(ctx, &api.RequestDeviceApprovalRequest{
		DeviceID:        deviceID,
		PublicDeviceKey: publicDeviceKey,
	})
	if err != nil {
		return nil, err
	}
	return &resp.ApprovalRequest, nil
}

func (c *Client) ApproveDevice(ctx context.Context, req *api.ApproveDeviceRequest) (*api.DeviceKey, error) {
	resp, err := c.api.ApproveDevice(ctx, req)
	if err != nil {
		return nil, err
	}
	return &resp.DeviceKey, nil
}

func (c *Client) DeclineDevice(ctx context.Context, deviceID, publicDeviceKey string) (bool, error) {
	resp, err := c.api.DeclineDevice(ctx, &api.DeclineDeviceRequest{
		DeviceID:        deviceID,
		PublicDeviceKey: publicDeviceKey,
	})
	if err != nil {
		return false, err
	}
	return resp.Declined, nil
}

func (c *Client) ListDeviceKeys(ctx context.Context) (*api.ListDeviceKeysResponse, error) {
	return c.api.ListDeviceKeys(ctx, &api.ListDeviceKeysRequest{})
}

func (c *Client) ResetUserKeys(ctx context.Context, userID string) (*api.User, error) {
	resp, err := c.api.ResetUserKeys(ctx, &api.ResetUserKeysRequest{UserID: userID})
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) (string, error) {
	resp, err := c.api.DeleteUser(ctx, &api.DeleteUserRequest{UserID: userID})
	if err != nil {
		return "", err
	}
	return resp.UserID, nil
}
