// Package claims implements a proof-of-existence pallet: a piece of
// content can be claimed by at most one account at a time.
package claims

import (
	"fmt"
	"slices"

	"github.com/blockberries/minichain"
)

// ModuleName identifies the pallet in dispatch errors and reports.
const ModuleName = "claims"

var (
	// ErrAlreadyClaimed is returned when creating a claim that exists.
	ErrAlreadyClaimed = minichain.NewDispatchError(ModuleName, "AlreadyClaimed")
	// ErrNoSuchClaim is returned when revoking a claim that does not exist.
	ErrNoSuchClaim = minichain.NewDispatchError(ModuleName, "NoSuchClaim")
	// ErrNotClaimOwner is returned when revoking another account's claim.
	ErrNotClaimOwner = minichain.NewDispatchError(ModuleName, "NotClaimOwner")
)

// Pallet maps content to the account that claimed it.
//
// A is the account identifier shared with the system pallet, C the
// content key.
type Pallet[A minichain.AccountID, C minichain.AccountID] struct {
	claims map[C]A
}

// New creates an empty claims pallet.
func New[A minichain.AccountID, C minichain.AccountID]() *Pallet[A, C] {
	return &Pallet[A, C]{claims: make(map[C]A)}
}

// Owner returns the account holding the claim on content.
func (p *Pallet[A, C]) Owner(content C) (A, bool) {
	owner, ok := p.claims[content]
	return owner, ok
}

// CreateClaim records caller as the owner of content.
func (p *Pallet[A, C]) CreateClaim(caller A, content C) error {
	if owner, ok := p.claims[content]; ok {
		return ErrAlreadyClaimed.WithReason(fmt.Sprintf("%v is owned by %v", content, owner))
	}
	p.claims[content] = caller
	return nil
}

// RevokeClaim removes caller's claim on content.
func (p *Pallet[A, C]) RevokeClaim(caller A, content C) error {
	owner, ok := p.claims[content]
	if !ok {
		return ErrNoSuchClaim.WithReason(fmt.Sprintf("%v", content))
	}
	if owner != caller {
		return ErrNotClaimOwner.WithReason(fmt.Sprintf("%v is owned by %v, not %v", content, owner, caller))
	}
	delete(p.claims, content)
	return nil
}

// Contents returns every claimed content key, in order.
func (p *Pallet[A, C]) Contents() []C {
	contents := make([]C, 0, len(p.claims))
	for content := range p.claims {
		contents = append(contents, content)
	}
	slices.Sort(contents)
	return contents
}
