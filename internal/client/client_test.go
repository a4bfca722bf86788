package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeServer implements only the methods the tests call.
type fakeServer struct {
	api.ShareVaultServer

	mu     sync.Mutex
	tokens []string
	init   *api.InitShareKeysRequest
	err    error
	block  chan struct{}
}

func (f *fakeServer) record(ctx context.Context) {
	md, _ := metadata.FromIncomingContext(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, md.Get(common.AccessTokenHeaderName)...)
}

func (f *fakeServer) Ping(ctx context.Context, _ *api.PingRequest) (*api.PingResponse, error) {
	f.record(ctx)
	return &api.PingResponse{Status: "OK"}, nil
}

func (f *fakeServer) ListShares(ctx context.Context, req *api.ListSharesRequest) (*api.ListSharesResponse, error) {
	f.record(ctx)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &api.ListSharesResponse{Shares: []api.Share{{ID: "s1", UniqueID: "share-1", StorageUniqueIDs: []string{"acc-1"}}}}, nil
}

func (f *fakeServer) InitShareKeys(ctx context.Context, req *api.InitShareKeysRequest) (*api.ShareResponse, error) {
	f.record(ctx)
	f.init = req
	pub := req.PublicShareKey
	return &api.ShareResponse{Share: api.Share{ID: "s1", UniqueID: req.ShareUniqueID, PublicShareKey: &pub, Encrypted: true}}, nil
}

func (f *fakeServer) RemoveUserFromShare(ctx context.Context, req *api.RemoveUserFromShareRequest) (*api.RemoveUserFromShareResponse, error) {
	f.record(ctx)
	return &api.RemoveUserFromShareResponse{Removed: req.ShareUniqueID == "share-1"}, nil
}

func startServer(t *testing.T, srv *fakeServer, token string, opts ...Option) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	api.RegisterShareVaultServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	opts = append(opts, WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})))
	c, err := New("passthrough:///bufnet", token, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
		gs.Stop()
	})
	return c
}

func TestClient_AttachesAccessToken(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv, "tok-1")

	require.NoError(t, c.Ping(context.Background()))
	shares, err := c.ListShares(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "share-1", shares[0].UniqueID)

	assert.Equal(t, []string{"tok-1", "tok-1"}, srv.tokens)
}

func TestClient_NoTokenWhenEmpty(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv, "")

	require.NoError(t, c.Ping(context.Background()))
	assert.Empty(t, srv.tokens)
}

func TestClient_InitShareKeys(t *testing.T) {
	srv := &fakeServer{}
	c := startServer(t, srv, "tok")

	share, err := c.InitShareKeys(context.Background(), &api.InitShareKeysRequest{
		StorageType:    "dropbox",
		ShareUniqueID:  "share-1",
		PublicShareKey: "PUB",
		EncryptedShareKeys: []api.EncryptedShareKey{
			{UserID: "u1", EncryptedShareKey: "K1"},
		},
	})
	require.NoError(t, err)
	assert.True(t, share.Encrypted)
	require.NotNil(t, share.PublicShareKey)
	assert.Equal(t, "PUB", *share.PublicShareKey)

	require.NotNil(t, srv.init)
	assert.Equal(t, "K1", srv.init.EncryptedShareKeys[0].EncryptedShareKey)
}

func TestClient_RemoveUserFromShare(t *testing.T) {
	c := startServer(t, &fakeServer{}, "tok")

	removed, err := c.RemoveUserFromShare(context.Background(), &api.RemoveUserFromShareRequest{
		StorageType: "dropbox", StorageUniqueID: "acc-1", ShareUniqueID: "share-1",
	})
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.RemoveUserFromShare(context.Background(), &api.RemoveUserFromShareRequest{
		StorageType: "dropbox", StorageUniqueID: "acc-1", ShareUniqueID: "other",
	})
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestClient_MapsStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
		msg  string
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "missing token"), ErrUnauthorized, "unauthorized: missing token"},
		{"unavailable", status.Error(codes.Unavailable, "temporarily unavailable, retry"), ErrUnavailable, "server unavailable: temporarily unavailable, retry"},
		{"not found", status.Error(codes.NotFound, "Cannot find the share"), common.ErrorNotFound, "Cannot find the share"},
		{"conflict", status.Error(codes.AlreadyExists, "The share has the public key already set up"), common.ErrorConflict, "The share has the public key already set up"},
		{"permission", status.Error(codes.PermissionDenied, "You don't belong to the share"), common.ErrorPermissionDenied, "You don't belong to the share"},
		{"invalid", status.Error(codes.InvalidArgument, "storage_unique_ids or name is required"), common.ErrorInvalidArgument, "storage_unique_ids or name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, &fakeServer{err: tt.err}, "tok")

			_, err := c.ListShares(context.Background(), "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestClient_InternalErrorIsWrapped(t *testing.T) {
	c := startServer(t, &fakeServer{err: status.Error(codes.Internal, "internal error")}, "tok")

	_, err := c.ListShares(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	assert.Contains(t, err.Error(), "rpc error:")
}

func TestClient_TimeoutBecomesUnavailable(t *testing.T) {
	srv := &fakeServer{block: make(chan struct{})}
	defer close(srv.block)
	c := startServer(t, srv, "tok", WithTimeout(50*time.Millisecond))

	_, err := c.ListShares(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "old", "x-other", "v")

	ctx = withAccessToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, md.Get(common.AccessTokenHeaderName))
	assert.Equal(t, []string{"v"}, md.Get("x-other"))
}

func TestMapError_PassesThroughPlainErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, mapError(plain))
	assert.NoError(t, mapError(nil))
}
