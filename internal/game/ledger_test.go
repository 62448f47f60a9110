package game

import (
	"testing"

	"stockgame/internal/market"
)

func TestBuyThenSellAtHigherPrice(t *testing.T) {
	p := NewParticipant("p1", 1000000)
	prices := map[market.Symbol]int64{"SYM": 10000}

	if err := p.Buy("SYM", prices["SYM"], 1); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if p.Cash != 990000 {
		t.Errorf("expected cash 990000, got %d", p.Cash)
	}
	if p.Holdings["SYM"] != 1 {
		t.Errorf("expected 1 share, got %d", p.Holdings["SYM"])
	}

	// Price moves up, then the position is closed.
	prices["SYM"] = 11000
	if err := p.Sell("SYM", prices["SYM"], 1); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if p.Cash != 1001000 {
		t.Errorf("expected cash 1001000, got %d", p.Cash)
	}
	if p.Holdings["SYM"] != 0 {
		t.Errorf("expected 0 shares, got %d", p.Holdings["SYM"])
	}
	if profit := p.Profit(prices, 1000000); profit != 1000 {
		t.Errorf("expected profit 1000, got %d", profit)
	}
}

func TestBuyInsufficientFunds(t *testing.T) {
	p := NewParticipant("p1", 5000)

	err := p.Buy("SYM", 10000, 1)
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if p.Cash != 5000 {
		t.Errorf("cash changed on rejected buy: %d", p.Cash)
	}
	if p.Holdings["SYM"] != 0 {
		t.Errorf("holdings changed on rejected buy: %d", p.Holdings["SYM"])
	}
}

func TestSellInsufficientHoldings(t *testing.T) {
	p := NewParticipant("p1", 100000)

	err := p.Sell("SYM", 10000, 1)
	if err != ErrInsufficientHoldings {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}
	if p.Cash != 100000 {
		t.Errorf("cash changed on rejected sell: %d", p.Cash)
	}

	if err := p.Buy("SYM", 10000, 2); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if err := p.Sell("SYM", 10000, 3); err != ErrInsufficientHoldings {
		t.Fatalf("expected ErrInsufficientHoldings selling 3 of 2, got %v", err)
	}
	if p.Holdings["SYM"] != 2 {
		t.Errorf("holdings changed on rejected sell: %d", p.Holdings["SYM"])
	}
}

func TestTradesConserveValue(t *testing.T) {
	p := NewParticipant("p1", 500000)
	prices := map[market.Symbol]int64{"A": 50000, "B": 30000}

	value := func() int64 {
		total := p.Cash
		for sym, qty := range p.Holdings {
			total += qty * prices[sym]
		}
		return total
	}

	ops := []struct {
		action string
		sym    market.Symbol
		qty    int64
	}{
		{"buy", "A", 3}, {"buy", "B", 5}, {"sell", "A", 1},
		{"buy", "A", 2}, {"sell", "B", 5}, {"sell", "A", 4},
	}

	for i, op := range ops {
		var err error
		if op.action == "buy" {
			err = p.Buy(op.sym, prices[op.sym], op.qty)
		} else {
			err = p.Sell(op.sym, prices[op.sym], op.qty)
		}
		if err != nil {
			t.Fatalf("op %d (%s %d %s) failed: %v", i, op.action, op.qty, op.sym, err)
		}
		if p.Cash < 0 {
			t.Fatalf("op %d: cash went negative: %d", i, p.Cash)
		}
		for sym, qty := range p.Holdings {
			if qty < 0 {
				t.Fatalf("op %d: holdings[%s] went negative: %d", i, sym, qty)
			}
		}
		// Every trade is a cash/holding swap at the current price.
		if v := value(); v != 500000 {
			t.Fatalf("op %d: total value %d, want 500000", i, v)
		}
	}
}

func TestResetAndLiquidate(t *testing.T) {
	p := NewParticipant("p1", 500000)
	prices := map[market.Symbol]int64{"A": 50000}

	if err := p.Buy("A", 50000, 4); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	prices["A"] = 60000
	p.Liquidate(prices)
	if p.Cash != 540000 {
		t.Errorf("expected cash 540000 after liquidation, got %d", p.Cash)
	}
	if len(p.Holdings) != 0 {
		t.Errorf("expected empty holdings after liquidation, got %v", p.Holdings)
	}

	p.Reset(500000)
	if p.Cash != 500000 || len(p.Holdings) != 0 {
		t.Errorf("reset left cash=%d holdings=%v", p.Cash, p.Holdings)
	}
	if profit := p.Profit(prices, 500000); profit != 0 {
		t.Errorf("expected 0 profit after reset, got %d", profit)
	}
}
