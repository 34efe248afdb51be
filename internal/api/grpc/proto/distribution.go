package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// DistributionServer is the server API of salesdesk.v1.Distribution.
type DistributionServer interface {
	DistributeUnassignedLeads(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AssignLead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var DistributionServiceDesc = grpc.ServiceDesc{
	ServiceName: DistributionServiceName,
	HandlerType: (*DistributionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DistributionServiceName, "DistributeUnassignedLeads", DistributionServer.DistributeUnassignedLeads),
		unary(DistributionServiceName, "AssignLead", DistributionServer.AssignLead),
		unary(DistributionServiceName, "GetConfig", DistributionServer.GetConfig),
		unary(DistributionServiceName, "UpdateConfig", DistributionServer.UpdateConfig),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "salesdesk/v1/distribution.proto",
}

func RegisterDistributionServer(s grpc.ServiceRegistrar, srv DistributionServer) {
	s.RegisterService(&DistributionServiceDesc, srv)
}
