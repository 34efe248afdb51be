package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// TwoFactorServer is the server API of salesdesk.v1.TwoFactor.
type TwoFactorServer interface {
	GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Initialize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyAndEnable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Disable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyLoginCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RegenerateBackupCodes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var TwoFactorServiceDesc = grpc.ServiceDesc{
	ServiceName: TwoFactorServiceName,
	HandlerType: (*TwoFactorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(TwoFactorServiceName, "GetStatus", TwoFactorServer.GetStatus),
		unary(TwoFactorServiceName, "Initialize", TwoFactorServer.Initialize),
		unary(TwoFactorServiceName, "VerifyAndEnable", TwoFactorServer.VerifyAndEnable),
		unary(TwoFactorServiceName, "Disable", TwoFactorServer.Disable),
		unary(TwoFactorServiceName, "CheckEnabled", TwoFactorServer.CheckEnabled),
		unary(TwoFactorServiceName, "VerifyLoginCode", TwoFactorServer.VerifyLoginCode),
		unary(TwoFactorServiceName, "RegenerateBackupCodes", TwoFactorServer.RegenerateBackupCodes),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "salesdesk/v1/twofactor.proto",
}

func RegisterTwoFactorServer(s grpc.ServiceRegistrar, srv TwoFactorServer) {
	s.RegisterService(&TwoFactorServiceDesc, srv)
}
