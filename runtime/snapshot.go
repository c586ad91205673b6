package runtime

import "slices"

// AccountState is everything the runtime stores for one account.
type AccountState struct {
	ID      AccountID `cramberry:"1" json:"id"`
	Nonce   Nonce     `cramberry:"2" json:"nonce"`
	Balance Balance   `cramberry:"3" json:"balance"`
}

// ClaimState is one claimed piece of content.
type ClaimState struct {
	Content Content   `cramberry:"1" json:"content"`
	Owner   AccountID `cramberry:"2" json:"owner"`
}

// Snapshot is a deterministic, ordered copy of the runtime's state.
// Two runtimes that executed the same blocks from the same genesis
// produce identical snapshots.
type Snapshot struct {
	BlockNumber BlockNumber    `cramberry:"1" json:"block_number"`
	Accounts    []AccountState `cramberry:"2" json:"accounts"`
	Claims      []ClaimState   `cramberry:"3" json:"claims"`
}

// Snapshot copies the current state. Accounts known to any pallet
// are listed once, sorted by ID; claims are sorted by content.
func (r *Runtime) Snapshot() Snapshot {
	ids := append(r.system.Accounts(), r.balances.Accounts()...)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	snap := Snapshot{
		BlockNumber: r.system.BlockNumber(),
		Accounts:    make([]AccountState, 0, len(ids)),
	}
	for _, id := range ids {
		snap.Accounts = append(snap.Accounts, AccountState{
			ID:      id,
			Nonce:   r.system.Nonce(id),
			Balance: r.balances.Balance(id),
		})
	}

	contents := r.claims.Contents()
	snap.Claims = make([]ClaimState, 0, len(contents))
	for _, content := range contents {
		owner, _ := r.claims.Owner(content)
		snap.Claims = append(snap.Claims, ClaimState{Content: content, Owner: owner})
	}
	return snap
}

// Account returns the snapshot entry for id, if any.
func (s Snapshot) Account(id AccountID) (AccountState, bool) {
	i, found := slices.BinarySearchFunc(s.Accounts, id, func(a AccountState, id AccountID) int {
		switch {
		case a.ID < id:
			return -1
		case a.ID > id:
			return 1
		default:
			return 0
		}
	})
	if !found {
		return AccountState{}, false
	}
	return s.Accounts[i], true
}
