// Package types defines the wire types exchanged between a minichain
// node application and the driver feeding it blocks.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Encoding is handled by the
// application codec and the transport packages.
package types

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// AppHash is a deterministic fingerprint of the runtime state after
// execution.
type AppHash [32]byte

// Tx is an encoded extrinsic. The driver never inspects its contents.
type Tx []byte

// QueryPath names the piece of state a query reads
// (e.g., "/balance", "/claim").
type QueryPath string

// BlockID uniquely identifies a point in the chain.
type BlockID struct {
	Height uint64 `cramberry:"1"`
	Hash   Hash   `cramberry:"2"`
}
