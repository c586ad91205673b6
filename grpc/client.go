package chaingrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/server"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Connection = (*Client)(nil)

// Client implements minichain.Connection for remote applications
// over gRPC using cramberry serialization. Lifecycle order is
// enforced locally before a call goes on the wire.
type Client struct {
	cc    *grpc.ClientConn
	guard *server.LifecycleGuard
}

// Dial connects to a remote node application.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("minichain client: dial %s: %w", addr, err)
	}
	return &Client{
		cc:    cc,
		guard: server.NewLifecycleGuard(),
	}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	var trailer metadata.MD
	if err := c.cc.Invoke(ctx, fullMethod(method), req, resp, grpc.Trailer(&trailer)); err != nil {
		return fromStatus(err, trailer)
	}
	return nil
}

// --- Lifecycle ---

func (c *Client) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	if err := c.guard.AcquireHandshake(); err != nil {
		return types.HandshakeResponse{}, err
	}

	resp := new(types.HandshakeResponse)
	if err := c.invoke(ctx, "Handshake", &req, resp); err != nil {
		c.guard.FailHandshake()
		return types.HandshakeResponse{}, err
	}

	c.guard.CompleteHandshake()
	return *resp, nil
}

func (c *Client) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	if err := c.guard.CheckConcurrent(); err != nil {
		return types.GateVerdict{}, err
	}

	req := &CheckTxRequest{Tx: tx, Context: mctx}
	resp := new(types.GateVerdict)
	if err := c.invoke(ctx, "CheckTx", req, resp); err != nil {
		return types.GateVerdict{}, err
	}
	return *resp, nil
}

func (c *Client) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	if err := c.guard.AcquireExecute(); err != nil {
		return types.BlockOutcome{}, err
	}

	resp := new(types.BlockOutcome)
	if err := c.invoke(ctx, "ExecuteBlock", &block, resp); err != nil {
		c.guard.FailExecute()
		return types.BlockOutcome{}, err
	}

	c.guard.CompleteExecute()
	return *resp, nil
}

func (c *Client) Commit(ctx context.Context) (types.CommitResult, error) {
	if err := c.guard.AcquireCommit(); err != nil {
		return types.CommitResult{}, err
	}

	resp := new(types.CommitResult)
	if err := c.invoke(ctx, "Commit", &CommitRequest{}, resp); err != nil {
		c.guard.FailCommit()
		return types.CommitResult{}, err
	}

	c.guard.CompleteCommit()
	return *resp, nil
}

func (c *Client) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	if err := c.guard.CheckConcurrent(); err != nil {
		return types.StateQueryResult{}, err
	}

	resp := new(types.StateQueryResult)
	if err := c.invoke(ctx, "Query", &req, resp); err != nil {
		return types.StateQueryResult{}, err
	}
	return *resp, nil
}
