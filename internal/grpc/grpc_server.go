package grpc

import (
	"context"
	"errors"

	"usermgr/internal/services"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UserServer implements the gRPC Users service on top of UserService.
type UserServer struct {
	userService *services.UserService
	logger      *zap.Logger
}

var _ UsersServer = (*UserServer)(nil)

func NewUserServer(userService *services.UserService, logger *zap.Logger) *UserServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserServer{
		userService: userService,
		logger:      logger,
	}
}

func (s *UserServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := s.userService.ListUsers(ctx)
	if err != nil {
		return nil, s.toStatus("ListUsers", 0, err)
	}
	list, err := usersToList(users)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return list, nil
}

func (s *UserServer) GetUser(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := req.GetValue()
	user, found, err := s.userService.GetUserByID(ctx, id)
	if err != nil {
		return nil, s.toStatus("GetUser", id, err)
	}
	if !found {
		return nil, status.Error(codes.NotFound, (&services.NotFoundError{ID: id}).Error())
	}
	out, err := userToStruct(user)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *UserServer) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := structToUser(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	created, err := s.userService.CreateUser(ctx, user)
	if err != nil {
		return nil, s.toStatus("CreateUser", 0, err)
	}
	out, err := userToStruct(created)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// UpdateUser expects the target id in the "id" field of the request struct.
func (s *UserServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, ok := req.GetFields()[fieldID]; !ok {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	details, err := structToUser(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	updated, err := s.userService.UpdateUser(ctx, details.ID, details)
	if err != nil {
		return nil, s.toStatus("UpdateUser", details.ID, err)
	}
	out, err := userToStruct(updated)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *UserServer) DeleteUser(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := s.userService.DeleteUser(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus("DeleteUser", req.GetValue(), err)
	}
	return &emptypb.Empty{}, nil
}

func (s *UserServer) toStatus(method string, id int64, err error) error {
	if errors.Is(err, services.ErrUserNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error("gRPC call failed", zap.String("method", method), zap.Int64("id", id), zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}
