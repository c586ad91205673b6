package minichain

import (
	"context"

	"github.com/blockberries/minichain/types"
)

// Lifecycle is the interface a node application exposes to the
// driver that feeds it blocks. It is the wire-level face of a
// runtime: blocks arrive as encoded extrinsics and outcomes leave as
// plain structs.
//
// The driver guarantees the following call order:
//  1. Handshake is called exactly once, before anything else.
//  2. ExecuteBlock(h) is called once per block height h.
//  3. Commit is called exactly once after each successful ExecuteBlock.
//  4. CheckTx, Query may be called concurrently at any time after Handshake.
type Lifecycle interface {
	// Handshake is called once on startup.
	//
	// If LastCommitted is nil this is a fresh chain and Genesis is
	// populated; the application seeds its state from it before the
	// first block.
	Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error)

	// CheckTx reports whether a transaction is well formed enough to
	// be included in a block. It does not touch state.
	//
	// This method MUST be safe for concurrent use.
	CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error)

	// ExecuteBlock applies every transaction of the block in order.
	//
	// A header that does not carry the next height rejects the block
	// outright with a *BlockError and no transaction is applied.
	// Individual transaction failures are reported in the outcome
	// and never fail the block.
	ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error)

	// Commit marks the last executed block as the one queries
	// observe.
	Commit(ctx context.Context) (types.CommitResult, error)

	// Query reads application state.
	//
	// This method MUST be safe for concurrent use.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// Connection represents a transport-agnostic connection to a node
// application. Both gRPC clients and in-process adapters implement
// this.
type Connection interface {
	Lifecycle

	// Close terminates the connection.
	Close() error
}
