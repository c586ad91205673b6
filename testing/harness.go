package chaintest

import (
	"context"
	"encoding/json"
	"log"
	"testing"
	"time"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/server"
	"github.com/blockberries/minichain/types"
)

// Harness drives an application through the lifecycle state machine
// and fails the test on any unexpected error.
type Harness struct {
	t   *testing.T
	srv *server.Server
}

// NewHarness creates a test harness wrapping the given application.
// Server records go to the test log.
func NewHarness(t *testing.T, app minichain.Lifecycle) *Harness {
	t.Helper()
	srv := server.New(app)
	srv.SetLogger(TestLogger(t))
	return &Harness{t: t, srv: srv}
}

// TestLogger returns a logger that writes to t.Log.
func TestLogger(t *testing.T) *log.Logger {
	return log.New(testWriter{t}, "", 0)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Genesis performs a genesis handshake with the given genesis doc.
func (h *Harness) Genesis(genesis types.GenesisDoc) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &genesis,
	})
	if err != nil {
		h.t.Fatalf("Handshake (genesis) failed: %v", err)
	}
	return resp
}

// GenesisDefault performs a genesis handshake with a default
// genesis document.
func (h *Harness) GenesisDefault() types.HandshakeResponse {
	h.t.Helper()
	return h.Genesis(DefaultGenesis())
}

// Restart performs a restart handshake at the given block.
func (h *Harness) Restart(block types.BlockID) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		LastCommitted: &block,
	})
	if err != nil {
		h.t.Fatalf("Handshake (restart) failed: %v", err)
	}
	return resp
}

// ExecuteBlock executes a block without committing.
func (h *Harness) ExecuteBlock(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome, err := h.srv.ExecuteBlock(context.Background(), block)
	if err != nil {
		h.t.Fatalf("ExecuteBlock (height=%d) failed: %v", block.Height, err)
	}
	return outcome
}

// RejectBlock executes a block that must be rejected and returns the
// block error.
func (h *Harness) RejectBlock(block types.FinalizedBlock) *minichain.BlockError {
	h.t.Helper()
	_, err := h.srv.ExecuteBlock(context.Background(), block)
	if err == nil {
		h.t.Fatalf("ExecuteBlock (height=%d) succeeded, expected rejection", block.Height)
	}
	be, ok := minichain.IsBlockError(err)
	if !ok {
		h.t.Fatalf("ExecuteBlock (height=%d): expected *BlockError, got %v", block.Height, err)
	}
	return be
}

// Commit commits the last executed block.
func (h *Harness) Commit() types.CommitResult {
	h.t.Helper()
	result, err := h.srv.Commit(context.Background())
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	return result
}

// ExecuteAndCommit is a convenience that executes a block and
// commits, returning the block outcome.
func (h *Harness) ExecuteAndCommit(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome := h.ExecuteBlock(block)
	h.Commit()
	return outcome
}

// CheckTx submits a transaction for gate-checking.
func (h *Harness) CheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(context.Background(), tx, types.MempoolFirstSeen)
	if err != nil {
		h.t.Fatalf("CheckTx failed: %v", err)
	}
	return verdict
}

// RecheckTx re-validates a transaction as the mempool does after a
// commit.
func (h *Harness) RecheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(context.Background(), tx, types.MempoolRevalidation)
	if err != nil {
		h.t.Fatalf("RecheckTx failed: %v", err)
	}
	return verdict
}

// Query reads application state at the latest height.
func (h *Harness) Query(path types.QueryPath, data []byte) types.StateQueryResult {
	h.t.Helper()
	result, err := h.srv.Query(context.Background(), types.StateQuery{
		Path: path,
		Data: data,
	})
	if err != nil {
		h.t.Fatalf("Query failed: %v", err)
	}
	return result
}

// MustAcceptTx asserts that a transaction is accepted.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d info=%q", v.Code, v.Info)
	}
}

// MustRejectTx asserts that a transaction is rejected.
func (h *Harness) MustRejectTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if v.Accepted() {
		h.t.Fatal("expected tx rejected, got accepted")
	}
}

// --- Helper Factories ---

var genesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultGenesis returns a genesis document with no initial state.
func DefaultGenesis() types.GenesisDoc {
	return types.GenesisDoc{
		ChainID:     "test-chain",
		GenesisTime: types.TimeToTimestamp(genesisTime),
	}
}

// GenesisWithBalances returns the default genesis document seeded
// with the given balances.
func GenesisWithBalances(balances map[string]uint64) types.GenesisDoc {
	doc := DefaultGenesis()
	state, err := json.Marshal(map[string]any{"balances": balances})
	if err != nil {
		panic(err)
	}
	doc.AppState = state
	return doc
}

// MakeBlock creates a FinalizedBlock at the given height with
// the provided transactions.
func MakeBlock(height uint64, txs ...types.Tx) types.FinalizedBlock {
	t := genesisTime.Add(time.Duration(height) * 5 * time.Second)
	return types.FinalizedBlock{
		Height: height,
		Time:   types.TimeToTimestamp(t),
		Txs:    txs,
	}
}

// MakeEmptyBlock creates an empty FinalizedBlock at the given height.
func MakeEmptyBlock(height uint64) types.FinalizedBlock {
	return MakeBlock(height)
}
