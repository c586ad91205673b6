// Package chaintest provides test utilities for minichain node
// applications, including a configurable mock, a test harness, and a
// lifecycle compliance test suite.
package chaintest

import (
	"context"
	"sync/atomic"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Lifecycle = (*MockApp)(nil)

// MockApp is a configurable mock application for driver and transport
// testing. All methods are configurable via function fields.
// Unconfigured methods return sensible zero-value defaults.
type MockApp struct {
	// Configurable handlers. If nil, defaults are used.
	HandshakeFn    func(context.Context, types.HandshakeRequest) (types.HandshakeResponse, error)
	CheckTxFn      func(context.Context, types.Tx, types.MempoolContext) (types.GateVerdict, error)
	ExecuteBlockFn func(context.Context, types.FinalizedBlock) (types.BlockOutcome, error)
	CommitFn       func(context.Context) (types.CommitResult, error)
	QueryFn        func(context.Context, types.StateQuery) (types.StateQueryResult, error)

	// Call counters (atomic for concurrent access).
	HandshakeCalls    atomic.Int64
	CheckTxCalls      atomic.Int64
	ExecuteBlockCalls atomic.Int64
	CommitCalls       atomic.Int64
	QueryCalls        atomic.Int64

	height atomic.Uint64
}

func (m *MockApp) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	m.HandshakeCalls.Add(1)
	if m.HandshakeFn != nil {
		return m.HandshakeFn(ctx, req)
	}
	ah := types.AppHash{0x01}
	return types.HandshakeResponse{AppHash: &ah}, nil
}

func (m *MockApp) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	m.CheckTxCalls.Add(1)
	if m.CheckTxFn != nil {
		return m.CheckTxFn(ctx, tx, mctx)
	}
	return types.GateVerdict{Code: 0}, nil
}

// ExecuteBlock by default accepts the next height only, mirroring the
// header check of a real runtime, and marks every tx successful.
func (m *MockApp) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	m.ExecuteBlockCalls.Add(1)
	if m.ExecuteBlockFn != nil {
		return m.ExecuteBlockFn(ctx, block)
	}
	expected := m.height.Load() + 1
	if block.Height != expected {
		return types.BlockOutcome{}, minichain.NewBlockError(block.Height, expected, minichain.ErrWrongBlockNumber)
	}
	m.height.Store(block.Height)
	outcomes := make([]types.TxOutcome, len(block.Txs))
	for i := range block.Txs {
		outcomes[i] = types.TxOutcome{Index: uint32(i), Code: types.CodeOK}
	}
	return types.BlockOutcome{
		TxOutcomes: outcomes,
		AppHash:    types.AppHash{0x01},
	}, nil
}

func (m *MockApp) Commit(ctx context.Context) (types.CommitResult, error) {
	m.CommitCalls.Add(1)
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}
	return types.CommitResult{Height: m.height.Load(), AppHash: types.AppHash{0x01}}, nil
}

func (m *MockApp) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, req)
	}
	return types.StateQueryResult{Height: m.height.Load()}, nil
}
