package types

// Extrinsic is the wire form of a caller and the call it submits.
// Signatures are not part of the format.
type Extrinsic struct {
	Caller string `cramberry:"1"`
	Call   Call   `cramberry:"2"`
}

// Call is a tagged union: exactly one pallet field must be set.
type Call struct {
	Balances *BalancesCall `cramberry:"1"`
	Claims   *ClaimsCall   `cramberry:"2"`
}

// BalancesCall is a tagged union of balances pallet calls.
type BalancesCall struct {
	Transfer *TransferCall `cramberry:"1"`
}

// TransferCall moves Amount from the caller to To.
type TransferCall struct {
	To     string `cramberry:"1"`
	Amount uint64 `cramberry:"2"`
}

// ClaimsCall is a tagged union of claims pallet calls.
type ClaimsCall struct {
	Create *ClaimCall `cramberry:"1"`
	Revoke *ClaimCall `cramberry:"2"`
}

// ClaimCall names the content a claim call acts on.
type ClaimCall struct {
	Content string `cramberry:"1"`
}
