package rpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/metrics"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/synth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region helpers
type staticTable struct {
	table *specimen.Table
	err   error
}

func (s staticTable) ConfigTable() (*specimen.Table, error) { return s.table, s.err }

func startServer(t *testing.T, configs TableSource) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	engine := analysis.NewEngine(analysis.DefaultEngineConfig(), nil)
	srv := NewServer(engine, configs, metrics.NewRecorder(prometheus.NewRegistry()), nil)
	gs := NewGRPCServer(srv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, gs, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	client, err := NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func plateauRequest(id string) Request {
	s, err := synth.Generate(id, synth.Params{Kind: synth.KindPlateau, Points: 200})
	if err != nil {
		panic(err)
	}
	return Request{SpecimenID: id, Load: s.Load, Displacement: s.Displacement}
}
// #endregion helpers

func TestComputeSpecimen_InlineArea(t *testing.T) {
	client := startServer(t, nil)
	req := plateauRequest("p1")
	req.CrossSectionalArea = 1

	res, err := client.ComputeSpecimen(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.OK(), res.ErrorMessage)
	assert.Equal(t, yield.MethodFallback90, res.YieldMethod)
	require.NotNil(t, res.YieldStrength)
	assert.InDelta(t, 0.9, *res.YieldStrength, 1e-9)
	require.NotEmpty(t, res.Attempts)
	assert.Equal(t, yield.MethodPrimary, res.Attempts[0].Method)
}

func TestComputeSpecimen_StoredConfig(t *testing.T) {
	table := specimen.NewTable(map[string]specimen.Config{"p1": {CrossSectionalArea: 2}})
	client := startServer(t, staticTable{table: table})

	res, err := client.ComputeSpecimen(context.Background(), plateauRequest("p1"))
	require.NoError(t, err)
	require.NotNil(t, res.CrossSectionalArea)
	assert.Equal(t, 2.0, *res.CrossSectionalArea)
	require.NotNil(t, res.TensileStrength)
	assert.InDelta(t, 0.5, *res.TensileStrength, 1e-12)
}

func TestComputeSpecimen_DomainFailureIsNotRPCError(t *testing.T) {
	client := startServer(t, staticTable{table: specimen.NewTable(nil)})

	res, err := client.ComputeSpecimen(context.Background(), plateauRequest("nobody"))
	require.NoError(t, err)
	assert.Equal(t, analysis.KindMissingConfig, res.ErrorKind)
	assert.Nil(t, res.YieldStrength)
}

func TestComputeSpecimen_MissingID(t *testing.T) {
	client := startServer(t, nil)

	_, err := client.ComputeSpecimen(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestComputeSpecimen_TableError(t *testing.T) {
	client := startServer(t, staticTable{err: errors.New("db gone")})

	_, err := client.ComputeSpecimen(context.Background(), plateauRequest("p1"))
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestServer_BadRequestShape(t *testing.T) {
	srv := NewServer(analysis.NewEngine(analysis.DefaultEngineConfig(), nil), nil, nil, nil)
	in, err := structpb.NewStruct(map[string]interface{}{"specimen_id": "x", "load": "not a list"})
	require.NoError(t, err)

	_, err = srv.ComputeSpecimen(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_CanceledContext(t *testing.T) {
	srv := NewServer(analysis.NewEngine(analysis.DefaultEngineConfig(), nil), nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.ComputeSpecimen(ctx, &structpb.Struct{})
	assert.Equal(t, codes.Canceled, status.Code(err))
}

func TestClient_Healthy(t *testing.T) {
	client := startServer(t, nil)

	ok, err := client.Healthy(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
