package rpc

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/metrics"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
)

// TableSource supplies specimen configs. *store.Store satisfies it.
type TableSource interface {
	ConfigTable() (*specimen.Table, error)
}

// #region server
// Server implements AnalyzerServer on top of an analysis engine.
type Server struct {
	engine   *analysis.Engine
	configs  TableSource
	recorder *metrics.Recorder
	logger   logrus.FieldLogger
}

// NewServer creates a server. configs and recorder may be nil.
func NewServer(engine *analysis.Engine, configs TableSource, recorder *metrics.Recorder, logger logrus.FieldLogger) *Server {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Server{engine: engine, configs: configs, recorder: recorder, logger: logger}
}

// ComputeSpecimen analyzes one specimen. Analysis failures are returned in
// the result document; only malformed requests and lookup failures are
// gRPC errors.
func (s *Server) ComputeSpecimen(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	var req Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
	}
	if req.SpecimenID == "" {
		return nil, status.Error(codes.InvalidArgument, "specimen_id is required")
	}

	cfg, err := s.lookup(req)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "load specimen configs: %v", err)
	}

	start := time.Now()
	res := s.engine.ComputeSpecimenResult(req.SpecimenID, req.Load, req.Displacement, cfg, req.GaugeLength)
	s.recorder.Observe(res, time.Since(start))
	s.logger.WithFields(logrus.Fields{
		"specimen": res.SpecimenID,
		"method":   res.YieldMethod,
		"kind":     res.ErrorKind,
	}).Info("compute specimen")

	out, err := toStruct(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

func (s *Server) lookup(req Request) (*specimen.Config, error) {
	if req.CrossSectionalArea > 0 {
		return &specimen.Config{CrossSectionalArea: req.CrossSectionalArea, GaugeLength: req.GaugeLength}, nil
	}
	if s.configs == nil {
		return nil, nil
	}
	table, err := s.configs.ConfigTable()
	if err != nil {
		return nil, err
	}
	if cfg, ok := table.Lookup(req.SpecimenID); ok {
		return &cfg, nil
	}
	return nil, nil
}
// #endregion server

// #region serve
// NewGRPCServer builds a grpc.Server with the analyzer and health services
// registered and marked serving.
func NewGRPCServer(srv AnalyzerServer, opts ...grpc.ServerOption) *grpc.Server {
	gs := grpc.NewServer(opts...)
	RegisterAnalyzerServer(gs, srv)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return gs
}

// Serve runs gs on lis until ctx is done, then stops gracefully.
func Serve(ctx context.Context, gs *grpc.Server, lis net.Listener) error {
	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(lis) }()
	select {
	case <-ctx.Done():
		gs.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}
// #endregion serve
