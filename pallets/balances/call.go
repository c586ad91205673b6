package balances

import (
	"fmt"

	"github.com/blockberries/minichain"
)

// Compile-time interface check.
var _ minichain.Dispatcher[string, Call[string, uint64]] = (*Pallet[string, uint64])(nil)

// Call is the union of operations callers may dispatch to this pallet.
type Call[A minichain.AccountID, V minichain.Unsigned] interface {
	isBalancesCall()
}

// Transfer moves Amount from the caller to To.
type Transfer[A minichain.AccountID, V minichain.Unsigned] struct {
	To     A
	Amount V
}

func (Transfer[A, V]) isBalancesCall() {}

// Dispatch routes call on behalf of caller.
func (p *Pallet[A, V]) Dispatch(caller A, call Call[A, V]) error {
	switch c := call.(type) {
	case Transfer[A, V]:
		return p.Transfer(caller, c.To, c.Amount)
	default:
		return fmt.Errorf("%s: %w %T", ModuleName, minichain.ErrUnknownCall, call)
	}
}
