// Package app exposes a runtime as a node application: blocks arrive
// as encoded extrinsics, per-extrinsic results leave as outcomes, and
// queries read the last committed state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/etnz/logfmt"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/pallets/balances"
	"github.com/blockberries/minichain/pallets/claims"
	"github.com/blockberries/minichain/pallets/system"
	"github.com/blockberries/minichain/runtime"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Lifecycle = (*App)(nil)

// App wraps a runtime. ExecuteBlock mutates the runtime in place;
// queries are served from the snapshot taken at the last Commit.
type App struct {
	mu       sync.RWMutex
	rt       *runtime.Runtime
	logger   *log.Logger
	reporter runtime.MultiReporter
	chainID  string

	// Failures reported while the current block executes.
	pending []runtime.ExtrinsicFailure

	// Set by ExecuteBlock, promoted by Commit.
	executed *commitPoint
	// Last committed state.
	committed commitPoint
}

type commitPoint struct {
	height   uint64
	appHash  types.AppHash
	snapshot runtime.Snapshot
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger for extrinsic failures and lifecycle
// records. The default is the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(app *App) {
		app.logger = l
	}
}

// WithReporter adds a reporter for extrinsic failures. Failures carry
// the transaction's position in the block, undecodable ones included.
func WithReporter(r runtime.Reporter) Option {
	return func(app *App) {
		app.reporter = append(app.reporter, r)
	}
}

// New creates an application around a fresh runtime.
func New(opts ...Option) *App {
	app := &App{logger: log.Default()}
	for _, opt := range opts {
		opt(app)
	}
	app.reporter = append(runtime.MultiReporter{runtime.LogReporter{Logger: app.logger}}, app.reporter...)
	// The runtime only sees decoded extrinsics, so its failures are
	// collected and reported once positions are mapped back to txs.
	app.rt = runtime.New(runtime.WithReporter(runtime.ReporterFunc(app.collect)))
	app.committed = app.point(0)
	return app
}

func (app *App) collect(f runtime.ExtrinsicFailure) {
	app.pending = append(app.pending, f)
}

func (app *App) point(height uint64) commitPoint {
	snap := app.rt.Snapshot()
	h, err := HashSnapshot(snap)
	if err != nil {
		// Snapshots only hold strings and integers.
		panic(err)
	}
	return commitPoint{height: height, appHash: h, snapshot: snap}
}

func (app *App) Handshake(_ context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if req.LastCommitted == nil {
		if app.rt.BlockNumber() != 0 {
			return types.HandshakeResponse{}, fmt.Errorf("genesis handshake on a runtime at block %d", app.rt.BlockNumber())
		}
		if req.Genesis != nil {
			g, err := runtime.ParseGenesis(req.Genesis.AppState)
			if err != nil {
				return types.HandshakeResponse{}, err
			}
			if err := g.Apply(app.rt); err != nil {
				return types.HandshakeResponse{}, err
			}
			app.chainID = req.Genesis.ChainID
		}
		app.committed = app.point(0)
		app.record("genesis", "chain_id", app.chainID, "app_hash", fmt.Sprintf("%x", app.committed.appHash))

		h := app.committed.appHash
		return types.HandshakeResponse{AppHash: &h}, nil
	}

	// Restart: report what this process holds.
	h := app.committed.appHash
	return types.HandshakeResponse{
		LastBlock: &types.BlockID{
			Height: app.committed.height,
		},
		AppHash: &h,
	}, nil
}

// CheckTx admits any transaction that decodes to an extrinsic. On
// revalidation it also rejects callers whose committed nonce can no
// longer advance, since such an extrinsic cannot be dispatched.
func (app *App) CheckTx(_ context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	ext, err := DecodeTx(tx)
	if err != nil {
		return types.GateVerdict{Code: types.CodeDecodeFailed, Info: err.Error()}, nil
	}
	if mctx == types.MempoolRevalidation && app.committedNonce(ext.Caller) == math.MaxUint32 {
		return types.GateVerdict{
			Code:   types.CodeNonceOverflow,
			Info:   system.ErrNonceOverflow.Error(),
			Sender: ext.Caller,
		}, nil
	}
	return types.GateVerdict{Code: 0, Sender: ext.Caller}, nil
}

func (app *App) committedNonce(who runtime.AccountID) runtime.Nonce {
	app.mu.RLock()
	defer app.mu.RUnlock()
	accounts := app.committed.snapshot.Accounts
	i, ok := slices.BinarySearchFunc(accounts, who, func(a runtime.AccountState, id runtime.AccountID) int {
		return strings.Compare(a.ID, id)
	})
	if !ok {
		return 0
	}
	return accounts[i].Nonce
}

func (app *App) ExecuteBlock(_ context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if block.Height > math.MaxUint32 {
		return types.BlockOutcome{}, minichain.NewBlockError(block.Height, uint64(app.rt.BlockNumber())+1, minichain.ErrWrongBlockNumber)
	}

	outcomes := make([]types.TxOutcome, len(block.Txs))
	// failures[i] is set when block.Txs[i] failed.
	failures := make([]*runtime.ExtrinsicFailure, len(block.Txs))
	exts := make([]runtime.Extrinsic, 0, len(block.Txs))
	// txIndex[i] is the position in block.Txs of exts[i].
	txIndex := make([]int, 0, len(block.Txs))

	for i, tx := range block.Txs {
		outcomes[i].Index = uint32(i)
		ext, err := DecodeTx(tx)
		if err != nil {
			outcomes[i].Code = types.CodeDecodeFailed
			outcomes[i].Info = err.Error()
			failures[i] = &runtime.ExtrinsicFailure{
				BlockNumber: runtime.BlockNumber(block.Height),
				Index:       i,
				Err:         err,
			}
			continue
		}
		exts = append(exts, ext)
		txIndex = append(txIndex, i)
	}

	app.pending = app.pending[:0]
	err := app.rt.ExecuteBlock(runtime.Block{
		Header:     runtime.Header{BlockNumber: runtime.BlockNumber(block.Height)},
		Extrinsics: exts,
	})
	if err != nil {
		return types.BlockOutcome{}, err
	}

	failed := make(map[int]bool, len(app.pending))
	for _, f := range app.pending {
		failed[f.Index] = true
		f.Index = txIndex[f.Index]
		failures[f.Index] = &f
		outcomes[f.Index].Code = types.CodeDispatchFailed
		if errors.Is(f.Err, system.ErrNonceOverflow) {
			outcomes[f.Index].Code = types.CodeNonceOverflow
		}
		outcomes[f.Index].Info = f.Err.Error()
	}
	for j, ext := range exts {
		if !failed[j] {
			outcomes[txIndex[j]].Events = callEvents(ext)
		}
	}
	for _, f := range failures {
		if f != nil {
			app.reporter.ExtrinsicFailed(*f)
		}
	}

	point := app.point(block.Height)
	app.executed = &point

	return types.BlockOutcome{
		TxOutcomes: outcomes,
		AppHash:    point.appHash,
	}, nil
}

func (app *App) Commit(_ context.Context) (types.CommitResult, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.executed == nil {
		return types.CommitResult{}, errors.New("commit without an executed block")
	}
	app.committed = *app.executed
	app.executed = nil

	return types.CommitResult{
		Height:  app.committed.height,
		AppHash: app.committed.appHash,
	}, nil
}

// Height returns the last committed block height.
func (app *App) Height() uint64 {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.committed.height
}

// ChainID returns the chain ID received at genesis.
func (app *App) ChainID() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.chainID
}

// Snapshot returns the last committed runtime state.
func (app *App) Snapshot() runtime.Snapshot {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.committed.snapshot
}

func (app *App) record(msg string, kv ...string) {
	rec := logfmt.Rec()
	rec = rec.Q("msg", msg)
	for i := 0; i+1 < len(kv); i += 2 {
		rec = rec.Q(kv[i], kv[i+1])
	}
	app.logger.Print(rec.String())
}

// callEvents describes the effect of a call that succeeded.
func callEvents(ext runtime.Extrinsic) []types.Event {
	switch c := ext.Call.(type) {
	case runtime.BalancesCall:
		if t, ok := c.Call.(balances.Transfer[runtime.AccountID, runtime.Balance]); ok {
			return []types.Event{{
				Kind: "transfer",
				Attributes: []types.EventAttribute{
					{Key: "from", Value: ext.Caller},
					{Key: "to", Value: t.To},
					{Key: "amount", Value: strconv.FormatUint(t.Amount, 10)},
				},
			}}
		}
	case runtime.ClaimsCall:
		switch cc := c.Call.(type) {
		case claims.CreateClaim[runtime.AccountID, runtime.Content]:
			return []types.Event{{
				Kind: "claim_created",
				Attributes: []types.EventAttribute{
					{Key: "owner", Value: ext.Caller},
					{Key: "content", Value: cc.Content},
				},
			}}
		case claims.RevokeClaim[runtime.AccountID, runtime.Content]:
			return []types.Event{{
				Kind: "claim_revoked",
				Attributes: []types.EventAttribute{
					{Key: "owner", Value: ext.Caller},
					{Key: "content", Value: cc.Content},
				},
			}}
		}
	}
	return nil
}
