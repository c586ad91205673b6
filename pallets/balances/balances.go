// Package balances implements the pallet holding account balances and
// the transfer operation between them.
package balances

import (
	"fmt"
	"slices"

	"github.com/blockberries/minichain"
)

// ModuleName identifies the pallet in dispatch errors and reports.
const ModuleName = "balances"

var (
	// ErrInsufficientBalance is returned when a transfer would take the
	// sender below zero.
	ErrInsufficientBalance = minichain.NewDispatchError(ModuleName, "InsufficientBalance")
	// ErrOverflow is returned when a transfer would push the receiver
	// past the maximum balance.
	ErrOverflow = minichain.NewDispatchError(ModuleName, "Overflow")
)

// Pallet maps accounts to balances. Absent accounts hold zero.
//
// A is the account identifier shared with the system pallet, V the
// balance type.
type Pallet[A minichain.AccountID, V minichain.Unsigned] struct {
	balances map[A]V
}

// New creates an empty balances pallet.
func New[A minichain.AccountID, V minichain.Unsigned]() *Pallet[A, V] {
	return &Pallet[A, V]{balances: make(map[A]V)}
}

// SetBalance overwrites who's balance. It is an administrative
// primitive for genesis and is not reachable through dispatch.
func (p *Pallet[A, V]) SetBalance(who A, value V) {
	p.balances[who] = value
}

// Balance returns who's balance, zero for unseen accounts.
func (p *Pallet[A, V]) Balance(who A) V {
	return p.balances[who]
}

// Transfer moves amount from one account to another. Both balances
// are computed before either is written, so a failed transfer leaves
// state untouched.
func (p *Pallet[A, V]) Transfer(from, to A, amount V) error {
	fromBalance := p.Balance(from)
	newFrom, ok := minichain.CheckedSub(fromBalance, amount)
	if !ok {
		return ErrInsufficientBalance.WithReason(fmt.Sprintf("%v has %v, needs %v", from, fromBalance, amount))
	}
	if from == to {
		return nil
	}

	toBalance := p.Balance(to)
	newTo, ok := minichain.CheckedAdd(toBalance, amount)
	if !ok {
		return ErrOverflow.WithReason(fmt.Sprintf("%v holds %v, cannot receive %v", to, toBalance, amount))
	}

	p.balances[from] = newFrom
	p.balances[to] = newTo
	return nil
}

// TotalIssuance returns the sum of all balances, or false if the sum
// does not fit in V.
func (p *Pallet[A, V]) TotalIssuance() (V, bool) {
	var total V
	for _, who := range p.Accounts() {
		sum, ok := minichain.CheckedAdd(total, p.balances[who])
		if !ok {
			return total, false
		}
		total = sum
	}
	return total, true
}

// Accounts returns every account with a stored balance, in order.
func (p *Pallet[A, V]) Accounts() []A {
	accounts := make([]A, 0, len(p.balances))
	for who := range p.balances {
		accounts = append(accounts, who)
	}
	slices.Sort(accounts)
	return accounts
}
