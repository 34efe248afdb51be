// Package proto declares the gRPC services of salesdesk.
//
// Requests and responses are google.protobuf.Struct values, so the service
// descriptors are written by hand instead of generated from .proto files.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	TwoFactorServiceName    = "salesdesk.v1.TwoFactor"
	DistributionServiceName = "salesdesk.v1.Distribution"
)

func unary[S any](service, name string, call func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	fullMethod := FullMethod(service, name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the gRPC method path of name in service.
func FullMethod(service, name string) string {
	return "/" + service + "/" + name
}
