package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var kinds = []struct {
	kind error
	code codes.Code
}{
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorConflict, codes.AlreadyExists},
	{common.ErrorPermissionDenied, codes.PermissionDenied},
	{common.ErrorInvalidArgument, codes.InvalidArgument},
	{common.ErrorUnauthorized, codes.Unauthenticated},
}

// toStatus maps service errors to gRPC statuses. Only user errors carry
// their message to the caller; everything else is logged and hidden.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var uerr *common.UserError
	if errors.As(err, &uerr) {
		for _, k := range kinds {
			if errors.Is(uerr, k.kind) {
				return status.Error(k.code, uerr.Error())
			}
		}
	}

	if errors.Is(err, common.ErrorUnavailable) {
		s.logger.Warn(ctx, "transient failure", "error", err)
		return status.Error(codes.Unavailable, "temporarily unavailable, retry")
	}
	if errors.Is(err, common.ErrorUnauthorized) {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}

	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
