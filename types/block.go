package types

// TxOutcome is the result of executing a single transaction.
type TxOutcome struct {
	// Position of this tx in the block (0-indexed).
	Index uint32 `cramberry:"1"`
	// Result code. 0 = success, see the Code* constants.
	Code uint32 `cramberry:"2"`
	// Human-readable failure reason.
	Info string `cramberry:"3"`
	// Events emitted by this transaction.
	Events []Event `cramberry:"4"`
}

// Result codes carried by TxOutcome.Code.
const (
	CodeOK uint32 = iota
	// The tx could not be decoded; no caller was charged.
	CodeDecodeFailed
	// The caller's nonce was advanced but the call failed.
	CodeDispatchFailed
	// The caller's nonce could not be advanced; the call was skipped.
	CodeNonceOverflow
)

// OK returns true if the transaction executed successfully.
func (t TxOutcome) OK() bool { return t.Code == CodeOK }

// BlockOutcome is the output of executing a block.
type BlockOutcome struct {
	// Per-transaction results, in block order.
	TxOutcomes []TxOutcome `cramberry:"1"`
	// State root after this block.
	AppHash AppHash `cramberry:"2"`
}

// FinalizedBlock is a block delivered to the application for
// execution. Height is the block number declared in its header.
// Time is recorded in the node's block log; the runtime never reads it.
type FinalizedBlock struct {
	Height uint64    `cramberry:"1"`
	Time   Timestamp `cramberry:"2"`
	Txs    []Tx      `cramberry:"3"`
}

// CommitResult is returned once the application has made the last
// executed block visible to queries.
type CommitResult struct {
	Height  uint64  `cramberry:"1"`
	AppHash AppHash `cramberry:"2"`
}
