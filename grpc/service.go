package chaingrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/blockberries/minichain/types"
)

const serviceName = "minichain.v1.NodeService"

// NodeServiceServer is the server side of minichain.v1.NodeService.
// Its methods mirror minichain.Lifecycle one to one; errors are
// mapped to status codes by toStatus before they leave the handler.
type NodeServiceServer interface {
	Handshake(context.Context, *types.HandshakeRequest) (*types.HandshakeResponse, error)
	CheckTx(context.Context, *CheckTxRequest) (*types.GateVerdict, error)
	ExecuteBlock(context.Context, *types.FinalizedBlock) (*types.BlockOutcome, error)
	Commit(context.Context, *CommitRequest) (*types.CommitResult, error)
	Query(context.Context, *types.StateQuery) (*types.StateQueryResult, error)
}

// RegisterNodeServiceServer registers the NodeServiceServer on a gRPC
// server.
func RegisterNodeServiceServer(s *grpc.Server, srv NodeServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// --- Handler functions ---

func handlerHandshake(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.HandshakeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(NodeServiceServer).Handshake(ctx, req)
}

func handlerCheckTx(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(CheckTxRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(NodeServiceServer).CheckTx(ctx, req)
}

func handlerExecuteBlock(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.FinalizedBlock)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(NodeServiceServer).ExecuteBlock(ctx, req)
}

func handlerCommit(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(CommitRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(NodeServiceServer).Commit(ctx, req)
}

func handlerQuery(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
	req := new(types.StateQuery)
	if err := dec(req); err != nil {
		return nil, err
	}
	return srv.(NodeServiceServer).Query(ctx, req)
}

// fullMethod builds the full gRPC method path.
func fullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", serviceName, method)
}

// serviceDesc is the manual gRPC service descriptor.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*NodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handshake", Handler: handlerHandshake},
		{MethodName: "CheckTx", Handler: handlerCheckTx},
		{MethodName: "ExecuteBlock", Handler: handlerExecuteBlock},
		{MethodName: "Commit", Handler: handlerCommit},
		{MethodName: "Query", Handler: handlerQuery},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "minichain/v1/service.cram",
}
