package chaingrpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/server"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ NodeServiceServer = (*GRPCServer)(nil)

// GRPCServer wraps a node application as a gRPC server. Wire types
// are serialized directly via cramberry.
type GRPCServer struct {
	srv *server.Server
}

// NewGRPCServer creates a gRPC server wrapping the given application.
func NewGRPCServer(app minichain.Lifecycle) *GRPCServer {
	return &GRPCServer{
		srv: server.New(app),
	}
}

// Register adds the node service to a gRPC server.
func (s *GRPCServer) Register(gs *grpc.Server) {
	RegisterNodeServiceServer(gs, s)
}

// Serve starts a gRPC server on the given listener. It blocks until
// the server stops.
func (s *GRPCServer) Serve(lis net.Listener, opts ...grpc.ServerOption) error {
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs.Serve(lis)
}

// Server returns the underlying server for advanced use.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

// --- Lifecycle RPCs ---

func (s *GRPCServer) Handshake(ctx context.Context, req *types.HandshakeRequest) (*types.HandshakeResponse, error) {
	resp, err := s.srv.Handshake(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &resp, nil
}

func (s *GRPCServer) CheckTx(ctx context.Context, req *CheckTxRequest) (*types.GateVerdict, error) {
	verdict, err := s.srv.CheckTx(ctx, req.Tx, req.Context)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &verdict, nil
}

func (s *GRPCServer) ExecuteBlock(ctx context.Context, block *types.FinalizedBlock) (*types.BlockOutcome, error) {
	outcome, err := s.srv.ExecuteBlock(ctx, *block)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &outcome, nil
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*types.CommitResult, error) {
	result, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &result, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	result, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &result, nil
}
