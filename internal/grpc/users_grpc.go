package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// UsersServiceName is the fully qualified gRPC service name. Messages are
// protobuf well-known types, so no generated stubs are needed.
const UsersServiceName = "usermgr.v1.Users"

// UsersServer is the server API for the Users service.
type UsersServer interface {
	ListUsers(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetUser(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

func RegisterUsersServer(s grpc.ServiceRegistrar, srv UsersServer) {
	s.RegisterService(&UsersServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + UsersServiceName + "/" + method
}

func unary[Req proto.Message, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(UsersServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod(method)}
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(UsersServer), ctx, in)
		}
		callInfo := *info
		callInfo.Server = srv
		return interceptor(ctx, in, &callInfo, func(ctx context.Context, req any) (any, error) {
			return call(srv.(UsersServer), ctx, req.(Req))
		})
	}
}

func newEmpty() *emptypb.Empty { return new(emptypb.Empty) }
func newInt64() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

var UsersServiceDesc = grpc.ServiceDesc{
	ServiceName: UsersServiceName,
	HandlerType: (*UsersServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListUsers", Handler: unary("ListUsers", newEmpty, UsersServer.ListUsers)},
		{MethodName: "GetUser", Handler: unary("GetUser", newInt64, UsersServer.GetUser)},
		{MethodName: "CreateUser", Handler: unary("CreateUser", newStruct, UsersServer.CreateUser)},
		{MethodName: "UpdateUser", Handler: unary("UpdateUser", newStruct, UsersServer.UpdateUser)},
		{MethodName: "DeleteUser", Handler: unary("DeleteUser", newInt64, UsersServer.DeleteUser)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "usermgr/v1/users.proto",
}
