package market

import (
	"math"
	"math/rand"
)

// Simulator produces the next tick's prices for the whole universe via a
// bounded random walk. It holds no market state of its own: each call is a
// pure function of the prices passed in and the random source, so a seeded
// Simulator replays the same path every time.
type Simulator struct {
	specs map[Symbol]Spec
	order []Symbol // fixed iteration order so a seed fully determines the path
	rng   *rand.Rand
}

// NewSimulator creates a simulator over the given universe. The seed fixes
// the price path, which tests rely on; production wiring seeds from time.
func NewSimulator(specs []Spec, seed int64) *Simulator {
	s := &Simulator{
		specs: make(map[Symbol]Spec, len(specs)),
		order: make([]Symbol, 0, len(specs)),
		rng:   rand.New(rand.NewSource(seed)),
	}
	for _, spec := range specs {
		s.specs[spec.Symbol] = spec
		s.order = append(s.order, spec.Symbol)
	}
	return s
}

// Symbols returns the universe in its fixed order.
func (s *Simulator) Symbols() []Symbol {
	out := make([]Symbol, len(s.order))
	copy(out, s.order)
	return out
}

// Knows reports whether sym is part of the universe.
func (s *Simulator) Knows(sym Symbol) bool {
	_, ok := s.specs[sym]
	return ok
}

// StartingPrices returns each symbol's opening price.
func (s *Simulator) StartingPrices() map[Symbol]int64 {
	prices := make(map[Symbol]int64, len(s.order))
	for sym, spec := range s.specs {
		prices[sym] = spec.StartPrice
	}
	return prices
}

// NextTick computes new prices from the current ones. For each symbol a
// percentage delta is drawn uniformly from [-MaxMovePct, +MaxMovePct],
// applied multiplicatively and rounded to the currency unit. Prices are
// clamped to a floor of 1 so a symbol can never go to zero or negative.
// changes[sym] = newPrices[sym] - current[sym].
func (s *Simulator) NextTick(current map[Symbol]int64) (newPrices, changes map[Symbol]int64) {
	newPrices = make(map[Symbol]int64, len(s.order))
	changes = make(map[Symbol]int64, len(s.order))

	for _, sym := range s.order {
		spec := s.specs[sym]
		price := current[sym]
		if price < 1 {
			price = spec.StartPrice
		}

		pct := (s.rng.Float64()*2 - 1) * spec.MaxMovePct
		next := price + int64(math.Round(float64(price)*pct))
		if next < 1 {
			next = 1
		}

		newPrices[sym] = next
		changes[sym] = next - price
	}

	return newPrices, changes
}
