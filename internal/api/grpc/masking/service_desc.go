package masking

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarmmasking.v1.MaskingService"
	// FindMaskedAlarmsMethod is the full method name of FindMaskedAlarms.
	FindMaskedAlarmsMethod = "/" + ServiceName + "/FindMaskedAlarms"
)

// MaskingServiceServer is the server API for MaskingService.
type MaskingServiceServer interface {
	FindMaskedAlarms(ctx context.Context, request *structpb.Struct) (*structpb.ListValue, error)
}

// MaskingServiceClient is the client API for MaskingService.
type MaskingServiceClient interface {
	FindMaskedAlarms(ctx context.Context, request *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

// ServiceDesc describes MaskingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MaskingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FindMaskedAlarms",
			Handler:    findMaskedAlarmsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarmmasking/v1/masking.proto",
}

// RegisterMaskingServiceServer registers the implementation on the server.
func RegisterMaskingServiceServer(registrar grpc.ServiceRegistrar, server MaskingServiceServer) {
	registrar.RegisterService(&ServiceDesc, server)
}

//nolint:revive // Signature is dictated by grpc.MethodDesc.
func findMaskedAlarmsHandler(
	server any,
	ctx context.Context,
	decode func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	request := new(structpb.Struct)
	if err := decode(request); err != nil {
		return nil, err
	}

	impl, _ := server.(MaskingServiceServer)
	if interceptor == nil {
		return impl.FindMaskedAlarms(ctx, request)
	}

	info := &grpc.UnaryServerInfo{
		Server:     server,
		FullMethod: FindMaskedAlarmsMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		typed, _ := req.(*structpb.Struct)

		return impl.FindMaskedAlarms(ctx, typed)
	}

	return interceptor(ctx, request, info, handler)
}

// maskingServiceClient invokes MaskingService over a connection.
type maskingServiceClient struct {
	// cc is the underlying connection.
	cc grpc.ClientConnInterface
}

// NewMaskingServiceClient returns a client bound to the connection.
func NewMaskingServiceClient(cc grpc.ClientConnInterface) MaskingServiceClient {
	return &maskingServiceClient{cc: cc}
}

// FindMaskedAlarms calls the remote method.
func (c *maskingServiceClient) FindMaskedAlarms(
	ctx context.Context,
	request *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.ListValue, error) {
	response := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FindMaskedAlarmsMethod, request, response, opts...); err != nil {
		return nil, err
	}

	return response, nil
}
