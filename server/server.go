package server

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/etnz/logfmt"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/types"
)

// Compile-time interface check.
var _ minichain.Connection = (*Server)(nil)

// Server wraps an application with lifecycle enforcement. The driver
// talks to the application exclusively through this server.
type Server struct {
	app    minichain.Lifecycle
	guard  *LifecycleGuard
	logger *log.Logger

	// Last block outcome (held between ExecuteBlock and Commit).
	mu             sync.Mutex
	lastOutcome    *types.BlockOutcome
	lastExecHeight uint64
}

// New creates a new Server wrapping the given application.
func New(app minichain.Lifecycle) *Server {
	return &Server{
		app:    app,
		guard:  NewLifecycleGuard(),
		logger: log.Default(),
	}
}

// SetLogger replaces the logger used for block records.
func (s *Server) SetLogger(l *log.Logger) {
	s.logger = l
}

// Handshake performs the startup handshake and transitions the state
// machine to Ready.
func (s *Server) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	if err := s.guard.AcquireHandshake(); err != nil {
		return types.HandshakeResponse{}, err
	}

	resp, err := s.app.Handshake(ctx, req)
	if err != nil {
		s.guard.FailHandshake()
		return resp, err
	}

	s.guard.CompleteHandshake()
	return resp, nil
}

// CheckTx gate-checks a transaction. Safe for concurrent use.
func (s *Server) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	if err := s.guard.CheckConcurrent(); err != nil {
		return types.GateVerdict{}, err
	}
	return s.app.CheckTx(ctx, tx, mctx)
}

// ExecuteBlock executes a block. A rejected block returns the state
// machine to Ready.
func (s *Server) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	if err := s.guard.AcquireExecute(); err != nil {
		return types.BlockOutcome{}, err
	}

	outcome, err := s.app.ExecuteBlock(ctx, block)
	if err != nil {
		s.guard.FailExecute()
		s.logBlock("block rejected", block, nil, err)
		return outcome, err
	}

	s.mu.Lock()
	s.lastOutcome = &outcome
	s.lastExecHeight = block.Height
	s.mu.Unlock()

	s.guard.CompleteExecute()
	s.logBlock("block executed", block, &outcome, nil)
	return outcome, nil
}

// Commit makes the last executed block visible to queries.
func (s *Server) Commit(ctx context.Context) (types.CommitResult, error) {
	if err := s.guard.AcquireCommit(); err != nil {
		return types.CommitResult{}, err
	}

	result, err := s.app.Commit(ctx)
	if err != nil {
		s.guard.FailCommit()
		return result, err
	}

	s.mu.Lock()
	s.lastOutcome = nil
	s.mu.Unlock()

	s.guard.CompleteCommit()
	return result, nil
}

// Query reads application state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	if err := s.guard.CheckConcurrent(); err != nil {
		return types.StateQueryResult{}, err
	}
	return s.app.Query(ctx, req)
}

// LastOutcome returns the most recent BlockOutcome (between
// ExecuteBlock and Commit). Returns nil if no outcome is pending.
func (s *Server) LastOutcome() *types.BlockOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// State returns the lifecycle state name.
func (s *Server) State() string {
	return s.guard.State()
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }

func (s *Server) logBlock(msg string, block types.FinalizedBlock, outcome *types.BlockOutcome, err error) {
	rec := logfmt.Rec()
	rec = rec.Q("msg", msg)
	rec = rec.Q("height", strconv.FormatUint(block.Height, 10))
	rec = rec.Q("time", block.Time.ToTime().Format(time.RFC3339Nano))
	if outcome != nil {
		failed := 0
		for _, o := range outcome.TxOutcomes {
			if !o.OK() {
				failed++
			}
		}
		rec = rec.Q("txs", strconv.Itoa(len(outcome.TxOutcomes)))
		rec = rec.Q("failed", strconv.Itoa(failed))
	}
	if err != nil {
		rec = rec.Q("error", err.Error())
	}
	s.logger.Print(rec.String())
}
