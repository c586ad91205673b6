package minichain

import (
	"errors"
	"fmt"
)

// ErrWrongBlockNumber is the cause of a BlockError raised when a
// block's header does not carry the next block number.
var ErrWrongBlockNumber = errors.New("wrong block number")

// ErrUnknownCall is returned by a dispatcher handed a call it does not
// own, including a nil call.
var ErrUnknownCall = errors.New("unknown call")

// DispatchError is a recoverable, pallet-level failure. It is
// returned by a pallet's Dispatch, passed through the runtime
// unchanged, and reported by the block executor without halting the
// block.
//
// Two DispatchErrors match under errors.Is when Module and Kind are
// equal, so pallets can export sentinel values and still attach a
// specific reason.
type DispatchError struct {
	Module string
	Kind   string
	Reason string
}

func (e *DispatchError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Module, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Module, e.Kind, e.Reason)
}

// Is reports whether target is a DispatchError of the same module
// and kind.
func (e *DispatchError) Is(target error) bool {
	t, ok := target.(*DispatchError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Kind == t.Kind
}

// WithReason returns a copy of e carrying reason.
func (e *DispatchError) WithReason(reason string) *DispatchError {
	return &DispatchError{Module: e.Module, Kind: e.Kind, Reason: reason}
}

// NewDispatchError creates a new DispatchError.
func NewDispatchError(module, kind string) *DispatchError {
	return &DispatchError{Module: module, Kind: kind}
}

// IsDispatchError checks whether an error is a DispatchError and
// returns it.
func IsDispatchError(err error) (*DispatchError, bool) {
	var d *DispatchError
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

// BlockError signals that a block was rejected as a whole before any
// of its extrinsics ran.
type BlockError struct {
	// Number declared in the block header.
	Number uint64
	// Number the runtime expected.
	Expected uint64
	Err      error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %d rejected (expected %d): %v", e.Number, e.Expected, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// NewBlockError creates a new BlockError.
func NewBlockError(number, expected uint64, err error) *BlockError {
	return &BlockError{Number: number, Expected: expected, Err: err}
}

// IsBlockError checks whether an error is a BlockError and returns it.
func IsBlockError(err error) (*BlockError, bool) {
	var b *BlockError
	if errors.As(err, &b) {
		return b, true
	}
	return nil, false
}
