// Package grpc exposes the sharevault services over gRPC with the JSON
// codec from internal/api.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sharevault/internal/api"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
	"github.com/dmitrijs2005/sharevault/internal/server/services"
	"google.golang.org/grpc"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type CloudStorages interface {
	Add(ctx context.Context, user *models.User, in services.AddCloudStorageInput) (*models.CloudStorageProvider, error)
	Delete(ctx context.Context, user *models.User, cspID string) (bool, error)
	UpdateAuthData(ctx context.Context, user *models.User, cspID, oldData, newData string) (*models.CloudStorageProvider, error)
	List(ctx context.Context, user *models.User) ([]*models.CloudStorageProvider, error)
}

type Shares interface {
	AddShare(ctx context.Context, user *models.User, in services.AddShareInput) (*models.Share, error)
	UpdateShare(ctx context.Context, user *models.User, in services.UpdateShareInput) (*models.Share, error)
	DeleteShare(ctx context.Context, user *models.User, storageType models.StorageType, uniqueID string) (bool, error)
	ListShares(ctx context.Context, user *models.User, userID string) ([]*models.Share, error)
	GetShare(ctx context.Context, user *models.User, storageType models.StorageType, uniqueID string) (*models.ShareDetails, error)
	SharesForCsp(ctx context.Context, user *models.User, cspID string) ([]*models.Share, error)
	InitShareKeys(ctx context.Context, user *models.User, in services.InitShareKeysInput) (*models.Share, error)
	AddShareKey(ctx context.Context, user *models.User, in services.AddShareKeyInput) (*models.ShareKey, error)
	RemoveUserFromShare(ctx context.Context, user *models.User, storageType models.StorageType, storageUniqueID, shareUniqueID string) (bool, error)
}

type KeyExchange interface {
	InitUserKey(ctx context.Context, user *models.User, in services.InitUserKeyInput) (*models.User, error)
	RequestDeviceApproval(ctx context.Context, user *models.User, deviceID, publicDeviceKey string) (*models.ApprovalRequest, error)
	ApproveDevice(ctx context.Context, user *models.User, in services.DeviceKeyInput) (*models.EncryptedUserKeyData, error)
	DeclineDevice(ctx context.Context, user *models.User, deviceID, publicDeviceKey string) (bool, error)
	ListDeviceKeys(ctx context.Context, user *models.User) (*services.DeviceKeys, error)
}

type Admin interface {
	ResetUserKeys(ctx context.Context, admin *models.User, userID string) (*models.User, error)
	DeleteUser(ctx context.Context, admin *models.User, userID string) (string, error)
}

// Services bundles what the handlers call into.
type Services struct {
	Users         Authenticator
	CloudStorages CloudStorages
	Shares        Shares
	Keys          KeyExchange
	Admin         Admin
}

type GRPCServer struct {
	address string
	svc     Services
	logger  logging.Logger
}

var _ api.ShareVaultServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, svc Services) (*GRPCServer, error) {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		svc:     svc,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor, s.validationInterceptor))
	api.RegisterShareVaultServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
