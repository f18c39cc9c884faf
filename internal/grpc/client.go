package grpc

import (
	"context"
	"fmt"

	"usermgr/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UsersClient is a typed client for the Users service.
type UsersClient struct {
	cc grpc.ClientConnInterface
}

func NewUsersClient(cc grpc.ClientConnInterface) *UsersClient {
	return &UsersClient{cc: cc}
}

func (c *UsersClient) ListUsers(ctx context.Context, opts ...grpc.CallOption) ([]models.User, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, fullMethod("ListUsers"), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return listToUsers(out)
}

// GetUser returns found == false when the server answers NotFound.
func (c *UsersClient) GetUser(ctx context.Context, id int64, opts ...grpc.CallOption) (*models.User, bool, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetUser"), wrapperspb.Int64(id), out, opts...); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	u, err := structToUser(out)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (c *UsersClient) CreateUser(ctx context.Context, user *models.User, opts ...grpc.CallOption) (*models.User, error) {
	in, err := userToStruct(&models.User{
		FullName:    user.FullName,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	return c.invokeUser(ctx, "CreateUser", in, opts...)
}

func (c *UsersClient) UpdateUser(ctx context.Context, id int64, details *models.User, opts ...grpc.CallOption) (*models.User, error) {
	in, err := userToStruct(&models.User{
		ID:          id,
		FullName:    details.FullName,
		Email:       details.Email,
		PhoneNumber: details.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}
	return c.invokeUser(ctx, "UpdateUser", in, opts...)
}

func (c *UsersClient) DeleteUser(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, fullMethod("DeleteUser"), wrapperspb.Int64(id), new(emptypb.Empty), opts...)
}

func (c *UsersClient) invokeUser(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*models.User, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	u, err := structToUser(out)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	return u, nil
}
