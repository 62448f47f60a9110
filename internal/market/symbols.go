package market

// Symbol identifies a tradable asset. The universe is fixed at startup.
type Symbol string

// Spec describes one tradable symbol: its opening price and how far a
// single tick may move it, as a symmetric fraction of the current price.
type Spec struct {
	Symbol     Symbol
	StartPrice int64
	MaxMovePct float64 // e.g. 0.04 = each tick moves at most ±4%
}

// DefaultUniverse returns the four-stock game universe. All symbols open
// at the same price; volatility is what tells them apart.
func DefaultUniverse() []Spec {
	return []Spec{
		{Symbol: "A", StartPrice: 50000, MaxMovePct: 0.02},
		{Symbol: "B", StartPrice: 50000, MaxMovePct: 0.04},
		{Symbol: "C", StartPrice: 50000, MaxMovePct: 0.06},
		{Symbol: "D", StartPrice: 50000, MaxMovePct: 0.10},
	}
}
