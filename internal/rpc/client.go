package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
)

// #region client-struct
// Client calls a remote tensile.v1.Analyzer.
type Client struct {
	conn *grpc.ClientConn
}
// #endregion client-struct

// #region constructor
// NewClient connects to the analyzer at addr without transport security.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}
// #endregion constructor

// Close shuts down the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #region compute
// ComputeSpecimen sends one specimen for analysis.
func (c *Client) ComputeSpecimen(ctx context.Context, req Request) (analysis.SpecimenResult, error) {
	in, err := toStruct(req)
	if err != nil {
		return analysis.SpecimenResult{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, computeSpecimenMethod, in, out); err != nil {
		return analysis.SpecimenResult{}, fmt.Errorf("compute specimen rpc: %w", err)
	}
	var res analysis.SpecimenResult
	if err := fromStruct(out, &res); err != nil {
		return analysis.SpecimenResult{}, err
	}
	return res, nil
}
// #endregion compute

// Healthy reports whether the analyzer service is serving.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, fmt.Errorf("health rpc: %w", err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
