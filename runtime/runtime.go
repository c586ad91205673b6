// Package runtime composes the system, balances and claims pallets
// into one state machine and executes blocks against it.
//
// The runtime fixes every type parameter the pallets are generic over.
// It owns each pallet exclusively; pallets never see one another and
// only interact through Dispatch.
package runtime

import (
	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/pallets/balances"
	"github.com/blockberries/minichain/pallets/claims"
	"github.com/blockberries/minichain/pallets/system"
)

// Concrete bindings shared by every pallet in this runtime.
type (
	AccountID   = string
	BlockNumber = uint32
	Nonce       = uint32
	Balance     = uint64
	Content     = string
)

type (
	Header    = minichain.Header[BlockNumber]
	Extrinsic = minichain.Extrinsic[AccountID, Call]
	Block     = minichain.Block[BlockNumber, AccountID, Call]
)

// Runtime owns one instance of every pallet.
//
// A Runtime is not safe for concurrent use. Whoever holds it is the
// only party allowed to mutate it.
type Runtime struct {
	system   *system.Pallet[AccountID, BlockNumber, Nonce]
	balances *balances.Pallet[AccountID, Balance]
	claims   *claims.Pallet[AccountID, Content]

	reporter Reporter
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithReporter sets where per-extrinsic failures are reported. The
// default writes logfmt records through the standard logger.
func WithReporter(r Reporter) Option {
	return func(rt *Runtime) {
		rt.reporter = r
	}
}

// New creates a runtime with every pallet empty and the block counter
// at zero.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		system:   system.New[AccountID, BlockNumber, Nonce](),
		balances: balances.New[AccountID, Balance](),
		claims:   claims.New[AccountID, Content](),
		reporter: LogReporter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// System returns the system pallet.
func (r *Runtime) System() *system.Pallet[AccountID, BlockNumber, Nonce] {
	return r.system
}

// Balances returns the balances pallet. Its SetBalance is the
// administrative primitive used to seed genesis state.
func (r *Runtime) Balances() *balances.Pallet[AccountID, Balance] {
	return r.balances
}

// Claims returns the claims pallet.
func (r *Runtime) Claims() *claims.Pallet[AccountID, Content] {
	return r.claims
}

// BlockNumber returns the number of the last executed block.
func (r *Runtime) BlockNumber() BlockNumber {
	return r.system.BlockNumber()
}
