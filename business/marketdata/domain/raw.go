package domain

// RawLevel is a single untyped order book level as decoded from an exchange
// response. Values may be JSON numbers or strings depending on the venue.
type RawLevel struct {
	Price any
	Size  any
}

// RawTicker carries ticker fields exactly as the exchange returned them,
// remapped to common names by the provider but not yet validated.
type RawTicker struct {
	Exchange  string
	Product   string
	Timestamp any
	Bid       any
	Ask       any
	BidSize   any
	AskSize   any
	Volume    any
	// Extra holds venue fields outside the canonical set, preserved verbatim.
	Extra map[string]string
}

// RawOrderBook carries untyped book sides, best price first.
type RawOrderBook struct {
	Exchange  string
	Product   string
	Timestamp any
	Bids      []RawLevel
	Asks      []RawLevel
	Extra     map[string]string
}
