package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tensile.v1.Analyzer"

const computeSpecimenMethod = "/" + ServiceName + "/ComputeSpecimen"

// AnalyzerServer is the server side of tensile.v1.Analyzer. Messages are
// google.protobuf.Struct documents shaped like Request and
// analysis.SpecimenResult.
type AnalyzerServer interface {
	ComputeSpecimen(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes tensile.v1.Analyzer for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputeSpecimen", Handler: computeSpecimenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tensile/v1/analyzer.proto",
}

// RegisterAnalyzerServer registers srv on s.
func RegisterAnalyzerServer(s grpc.ServiceRegistrar, srv AnalyzerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func computeSpecimenHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AnalyzerServer).ComputeSpecimen(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: computeSpecimenMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AnalyzerServer).ComputeSpecimen(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
