package runtime

import (
	"github.com/blockberries/minichain"
)

// ExecuteBlock applies block to the runtime.
//
// The header must carry the block number following the current one.
// Otherwise a *minichain.BlockError is returned and nothing changes,
// the block counter included.
//
// Extrinsics then run strictly in order. The caller's nonce is
// incremented before the call is dispatched and is kept even if the
// call fails. A failed call is reported to the runtime's Reporter and
// execution moves on to the next extrinsic; effects of earlier
// extrinsics are never rolled back. Only the header check fails the
// block.
func (r *Runtime) ExecuteBlock(block Block) error {
	declared := block.Header.BlockNumber

	expected, err := r.system.NextBlockNumber()
	if err != nil {
		return minichain.NewBlockError(uint64(declared), uint64(r.system.BlockNumber()), err)
	}
	if declared != expected {
		return minichain.NewBlockError(uint64(declared), uint64(expected), minichain.ErrWrongBlockNumber)
	}
	if err := r.system.AdvanceBlockNumber(); err != nil {
		return minichain.NewBlockError(uint64(declared), uint64(expected), err)
	}

	for i, ext := range block.Extrinsics {
		// An account whose nonce cannot advance cannot be charged for
		// the extrinsic, so its call is not dispatched.
		if err := r.system.IncNonce(ext.Caller); err != nil {
			r.reportFailure(declared, i, ext.Caller, err)
			continue
		}
		if err := r.Dispatch(ext.Caller, ext.Call); err != nil {
			r.reportFailure(declared, i, ext.Caller, err)
		}
	}
	return nil
}

func (r *Runtime) reportFailure(block BlockNumber, index int, caller AccountID, err error) {
	if r.reporter == nil {
		return
	}
	r.reporter.ExtrinsicFailed(ExtrinsicFailure{
		BlockNumber: block,
		Index:       index,
		Caller:      caller,
		Err:         err,
	})
}
