package claims

import (
	"fmt"

	"github.com/blockberries/minichain"
)

// Compile-time interface check.
var _ minichain.Dispatcher[string, Call[string, string]] = (*Pallet[string, string])(nil)

// Call is the union of operations callers may dispatch to this pallet.
type Call[A minichain.AccountID, C minichain.AccountID] interface {
	isClaimsCall()
}

// CreateClaim claims Content for the caller.
type CreateClaim[A minichain.AccountID, C minichain.AccountID] struct {
	Content C
}

// RevokeClaim releases the caller's claim on Content.
type RevokeClaim[A minichain.AccountID, C minichain.AccountID] struct {
	Content C
}

func (CreateClaim[A, C]) isClaimsCall() {}
func (RevokeClaim[A, C]) isClaimsCall() {}

// Dispatch routes call on behalf of caller.
func (p *Pallet[A, C]) Dispatch(caller A, call Call[A, C]) error {
	switch c := call.(type) {
	case CreateClaim[A, C]:
		return p.CreateClaim(caller, c.Content)
	case RevokeClaim[A, C]:
		return p.RevokeClaim(caller, c.Content)
	default:
		return fmt.Errorf("%s: %w %T", ModuleName, minichain.ErrUnknownCall, call)
	}
}
