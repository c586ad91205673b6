// Package system implements the base pallet: the block counter and
// the per-account nonces. Every other pallet shares the account
// identifier type this pallet is instantiated with.
package system

import (
	"slices"

	"github.com/blockberries/minichain"
)

// ModuleName identifies the pallet in dispatch errors and reports.
const ModuleName = "system"

var (
	// ErrNonceOverflow is returned by IncNonce when an account's
	// nonce is already at the maximum of its type.
	ErrNonceOverflow = minichain.NewDispatchError(ModuleName, "NonceOverflow")
	// ErrBlockNumberOverflow is returned by AdvanceBlockNumber at the
	// maximum block number.
	ErrBlockNumberOverflow = minichain.NewDispatchError(ModuleName, "BlockNumberOverflow")
)

// Pallet holds the block counter and the account nonces.
//
// A is the account identifier, B the block number and N the nonce
// type.
type Pallet[A minichain.AccountID, B minichain.Unsigned, N minichain.Unsigned] struct {
	blockNumber B
	nonce       map[A]N
}

// New creates an empty system pallet at block zero.
func New[A minichain.AccountID, B minichain.Unsigned, N minichain.Unsigned]() *Pallet[A, B, N] {
	return &Pallet[A, B, N]{nonce: make(map[A]N)}
}

// BlockNumber returns the number of the last processed block.
func (p *Pallet[A, B, N]) BlockNumber() B {
	return p.blockNumber
}

// NextBlockNumber returns the number the next block must carry.
func (p *Pallet[A, B, N]) NextBlockNumber() (B, error) {
	next, ok := minichain.CheckedAdd(p.blockNumber, 1)
	if !ok {
		return p.blockNumber, ErrBlockNumberOverflow
	}
	return next, nil
}

// AdvanceBlockNumber increments the block counter by one.
func (p *Pallet[A, B, N]) AdvanceBlockNumber() error {
	next, err := p.NextBlockNumber()
	if err != nil {
		return err
	}
	p.blockNumber = next
	return nil
}

// SetBlockNumber overwrites the block counter. Like SetNonce it is an
// administrative primitive for restoring state and for tests.
func (p *Pallet[A, B, N]) SetBlockNumber(n B) {
	p.blockNumber = n
}

// Nonce returns the number of extrinsics who has submitted. Unseen
// accounts read as zero and are not inserted.
func (p *Pallet[A, B, N]) Nonce(who A) N {
	return p.nonce[who]
}

// IncNonce increments who's nonce by one. At the maximum of N the
// nonce is left unchanged and ErrNonceOverflow is returned; it never
// wraps.
func (p *Pallet[A, B, N]) IncNonce(who A) error {
	next, ok := minichain.CheckedAdd(p.nonce[who], 1)
	if !ok {
		return ErrNonceOverflow
	}
	p.nonce[who] = next
	return nil
}

// SetNonce overwrites who's nonce. It is an administrative primitive
// for genesis and tests, not reachable through dispatch.
func (p *Pallet[A, B, N]) SetNonce(who A, n N) {
	p.nonce[who] = n
}

// Accounts returns every account with a recorded nonce, in order.
func (p *Pallet[A, B, N]) Accounts() []A {
	accounts := make([]A, 0, len(p.nonce))
	for who := range p.nonce {
		accounts = append(accounts, who)
	}
	slices.Sort(accounts)
	return accounts
}
