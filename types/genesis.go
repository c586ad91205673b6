package types

// GenesisDoc is the raw genesis document for chain initialization.
type GenesisDoc struct {
	ChainID     string    `cramberry:"1"`
	GenesisTime Timestamp `cramberry:"2"`
	// Runtime genesis state (JSON, see runtime.Genesis).
	AppState []byte `cramberry:"3"`
}
