package types

// HandshakeRequest is sent by the driver on every startup.
type HandshakeRequest struct {
	// The last block the DRIVER committed. Nil = genesis (fresh chain).
	LastCommitted *BlockID `cramberry:"1"`
	// Raw genesis document. Only set when LastCommitted is nil.
	Genesis *GenesisDoc `cramberry:"2"`
}

// HandshakeResponse is the application's reply, reporting its state.
type HandshakeResponse struct {
	// The last block the APP committed. Nil = app has no blocks.
	LastBlock *BlockID `cramberry:"1"`
	// App hash at that height (for consistency check with the driver).
	AppHash *AppHash `cramberry:"2"`
}
