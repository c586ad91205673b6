package chaingrpc

import "github.com/blockberries/minichain/types"

// Request types for the two RPCs whose Lifecycle signature is not a
// single message. Everything else goes on the wire as a types value.

// CheckTxRequest carries an encoded extrinsic and whether the mempool
// sees it for the first time or is revalidating it after a commit.
type CheckTxRequest struct {
	Tx      types.Tx             `cramberry:"1"`
	Context types.MempoolContext `cramberry:"2"`
}

// CommitRequest is the (empty) request for Lifecycle.Commit.
type CommitRequest struct{}
