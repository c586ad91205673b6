// Package server provides the driver-side wrapper that enforces the
// node lifecycle state machine around an application.
package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrOutOfOrder is returned when a lifecycle call arrives in a state
// that does not allow it.
var ErrOutOfOrder = errors.New("lifecycle call out of order")

// lifecycleState represents a state in the node lifecycle.
type lifecycleState uint32

const (
	// stateInit: Waiting for Handshake. No other calls allowed.
	stateInit lifecycleState = iota
	// stateReady: Handshake complete, no block in flight. CheckTx and
	// Query are allowed concurrently; ExecuteBlock is the next
	// sequential call.
	stateReady
	// stateExecuting: ExecuteBlock is running.
	stateExecuting
	// stateExecuted: ExecuteBlock returned successfully. Commit is
	// the only valid next sequential call.
	stateExecuted
	// stateCommitting: Commit is running.
	stateCommitting
)

func (s lifecycleState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateReady:
		return "Ready"
	case stateExecuting:
		return "Executing"
	case stateExecuted:
		return "Executed"
	case stateCommitting:
		return "Committing"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// LifecycleGuard enforces the lifecycle state machine:
//
//	Init → Ready → Executing → Executed → Committing → Ready
//
// A rejected block returns Executing to Ready so the driver can
// submit a corrected one.
type LifecycleGuard struct {
	state atomic.Uint32
	// Serialises sequential calls (ExecuteBlock, Commit).
	seqMu sync.Mutex
	// Gates concurrent calls until Handshake has completed.
	handshakeDone atomic.Bool
}

// NewLifecycleGuard creates a guard in the Init state.
func NewLifecycleGuard() *LifecycleGuard {
	g := &LifecycleGuard{}
	g.state.Store(uint32(stateInit))
	return g
}

// State returns the current lifecycle state.
func (g *LifecycleGuard) State() string {
	return lifecycleState(g.state.Load()).String()
}

func outOfOrder(call string, got, want lifecycleState) error {
	return fmt.Errorf("%w: %s called in state %s (expected %s)", ErrOutOfOrder, call, got, want)
}

// AcquireHandshake transitions Init → Ready.
func (g *LifecycleGuard) AcquireHandshake() error {
	if !g.state.CompareAndSwap(uint32(stateInit), uint32(stateReady)) {
		return outOfOrder("Handshake", lifecycleState(g.state.Load()), stateInit)
	}
	return nil
}

// CompleteHandshake marks handshake as done, enabling concurrent calls.
func (g *LifecycleGuard) CompleteHandshake() {
	g.handshakeDone.Store(true)
}

// FailHandshake rolls back state to Init if handshake fails.
func (g *LifecycleGuard) FailHandshake() {
	g.state.Store(uint32(stateInit))
}

// AcquireExecute transitions Ready → Executing. It blocks while
// another sequential call is in progress.
func (g *LifecycleGuard) AcquireExecute() error {
	g.seqMu.Lock()
	if state := lifecycleState(g.state.Load()); state != stateReady {
		g.seqMu.Unlock()
		return outOfOrder("ExecuteBlock", state, stateReady)
	}
	g.state.Store(uint32(stateExecuting))
	return nil
}

// CompleteExecute transitions Executing → Executed.
func (g *LifecycleGuard) CompleteExecute() {
	g.state.Store(uint32(stateExecuted))
	g.seqMu.Unlock()
}

// FailExecute transitions Executing → Ready after a rejected block.
func (g *LifecycleGuard) FailExecute() {
	g.state.Store(uint32(stateReady))
	g.seqMu.Unlock()
}

// AcquireCommit transitions Executed → Committing.
func (g *LifecycleGuard) AcquireCommit() error {
	g.seqMu.Lock()
	if state := lifecycleState(g.state.Load()); state != stateExecuted {
		g.seqMu.Unlock()
		return outOfOrder("Commit", state, stateExecuted)
	}
	g.state.Store(uint32(stateCommitting))
	return nil
}

// FailCommit transitions Committing → Executed so Commit can be
// retried.
func (g *LifecycleGuard) FailCommit() {
	g.state.Store(uint32(stateExecuted))
	g.seqMu.Unlock()
}

// CompleteCommit transitions Committing → Ready.
func (g *LifecycleGuard) CompleteCommit() {
	g.state.Store(uint32(stateReady))
	g.seqMu.Unlock()
}

// CheckConcurrent reports whether concurrent calls are allowed
// (any state after Handshake).
func (g *LifecycleGuard) CheckConcurrent() error {
	if !g.handshakeDone.Load() {
		return fmt.Errorf("%w: concurrent call before Handshake completed", ErrOutOfOrder)
	}
	return nil
}

// IsReady returns true if the guard is in the Ready state.
func (g *LifecycleGuard) IsReady() bool {
	return lifecycleState(g.state.Load()) == stateReady
}
