package runtime

import (
	"encoding/json"
	"fmt"
)

// Genesis is the state injected into a pristine runtime before the
// first block.
type Genesis struct {
	Balances map[AccountID]Balance `json:"balances"`
	Claims   map[Content]AccountID `json:"claims,omitempty"`
}

// ParseGenesis decodes a JSON genesis document. Empty input is an
// empty genesis.
func ParseGenesis(data []byte) (Genesis, error) {
	var g Genesis
	if len(data) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(data, &g); err != nil {
		return Genesis{}, fmt.Errorf("parse genesis: %w", err)
	}
	return g, nil
}

// Apply seeds r with the genesis state. It only succeeds on a runtime
// that has not executed any block.
func (g Genesis) Apply(r *Runtime) error {
	if n := r.BlockNumber(); n != 0 {
		return fmt.Errorf("genesis: runtime already at block %d", n)
	}
	for who, balance := range g.Balances {
		r.balances.SetBalance(who, balance)
	}
	for content, owner := range g.Claims {
		if err := r.claims.CreateClaim(owner, content); err != nil {
			return fmt.Errorf("genesis claim: %w", err)
		}
	}
	return nil
}
