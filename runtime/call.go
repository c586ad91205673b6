package runtime

import (
	"fmt"

	"github.com/blockberries/minichain"
	"github.com/blockberries/minichain/pallets/balances"
	"github.com/blockberries/minichain/pallets/claims"
)

// Compile-time interface check.
var _ minichain.Dispatcher[AccountID, Call] = (*Runtime)(nil)

// Call is the union of every pallet's calls. Each variant wraps one
// pallet's own call union. Adding a pallet means adding a variant
// here and an arm in Dispatch.
type Call interface {
	isRuntimeCall()
}

// BalancesCall routes to the balances pallet.
type BalancesCall struct {
	Call balances.Call[AccountID, Balance]
}

// ClaimsCall routes to the claims pallet.
type ClaimsCall struct {
	Call claims.Call[AccountID, Content]
}

func (BalancesCall) isRuntimeCall() {}
func (ClaimsCall) isRuntimeCall()   {}

// Transfer builds a balances transfer call.
func Transfer(to AccountID, amount Balance) Call {
	return BalancesCall{Call: balances.Transfer[AccountID, Balance]{To: to, Amount: amount}}
}

// CreateClaim builds a claims create call.
func CreateClaim(content Content) Call {
	return ClaimsCall{Call: claims.CreateClaim[AccountID, Content]{Content: content}}
}

// RevokeClaim builds a claims revoke call.
func RevokeClaim(content Content) Call {
	return ClaimsCall{Call: claims.RevokeClaim[AccountID, Content]{Content: content}}
}

// Dispatch forwards call to the pallet that owns it. The pallet's
// error is returned unchanged.
func (r *Runtime) Dispatch(caller AccountID, call Call) error {
	switch c := call.(type) {
	case BalancesCall:
		return r.balances.Dispatch(caller, c.Call)
	case ClaimsCall:
		return r.claims.Dispatch(caller, c.Call)
	default:
		return fmt.Errorf("runtime: %w %T", minichain.ErrUnknownCall, call)
	}
}
