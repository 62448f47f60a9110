package game

import (
	"errors"

	"stockgame/internal/market"
)

var (
	ErrInvalidState         = errors.New("round not active")
	ErrUnknownSymbol        = errors.New("unknown symbol")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Participant is one connection's ledger: cash and per-symbol holdings.
// The record is created lazily on first connect and lives for the
// connection's lifetime, surviving across rounds. Cash and holdings are
// never allowed to go negative; a trade either applies fully or not at all.
type Participant struct {
	ID       string
	Cash     int64
	Holdings map[market.Symbol]int64
}

// NewParticipant creates a participant with the given starting cash and no
// holdings.
func NewParticipant(id string, initialCash int64) *Participant {
	return &Participant{
		ID:       id,
		Cash:     initialCash,
		Holdings: make(map[market.Symbol]int64),
	}
}

// Reset returns the participant to round-start state.
func (p *Participant) Reset(initialCash int64) {
	p.Cash = initialCash
	p.Holdings = make(map[market.Symbol]int64)
}

// Buy debits price*qty from cash and credits qty of sym. Fails with
// ErrInsufficientFunds if the cost exceeds available cash.
func (p *Participant) Buy(sym market.Symbol, price, qty int64) error {
	cost := price * qty
	if cost > p.Cash {
		return ErrInsufficientFunds
	}
	p.Cash -= cost
	p.Holdings[sym] += qty
	return nil
}

// Sell credits price*qty to cash and debits qty of sym. Fails with
// ErrInsufficientHoldings if the participant holds fewer than qty shares.
func (p *Participant) Sell(sym market.Symbol, price, qty int64) error {
	if qty > p.Holdings[sym] {
		return ErrInsufficientHoldings
	}
	p.Cash += price * qty
	p.Holdings[sym] -= qty
	return nil
}

// Profit values the participant at the given prices relative to the round's
// starting cash. It is recomputed from scratch on every call rather than
// tracked incrementally, so it can never drift from the ledger.
func (p *Participant) Profit(prices map[market.Symbol]int64, initialCash int64) int64 {
	total := p.Cash
	for sym, qty := range p.Holdings {
		total += qty * prices[sym]
	}
	return total - initialCash
}

// Liquidate sells every holding at the given prices, leaving the
// participant all-cash. Used at round end so final balances are comparable.
func (p *Participant) Liquidate(prices map[market.Symbol]int64) {
	for sym, qty := range p.Holdings {
		if qty > 0 {
			p.Cash += qty * prices[sym]
		}
		delete(p.Holdings, sym)
	}
}
