package models

import (
	"fmt"
	"math"
)

// Holding is one symbol's position in the paper-trading book. Value and
// PnL are derived from quantity, mark price and cost basis; the backend
// sends them for display but MarketValue/PnLPercent are the canonical
// derivations on the client.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"` // > 0; zero-quantity holdings are removed server-side
	AvgPrice float64 `json:"avg_price"`
	Price    float64 `json:"price"` // latest mark
	Value    float64 `json:"value"`
	PnL      float64 `json:"pnl"` // percent vs cost basis
}

// MarketValue returns quantity times the latest mark price.
func (h *Holding) MarketValue() float64 { return h.Quantity * h.Price }

// PnLPercent returns the percentage gain or loss against cost basis.
func (h *Holding) PnLPercent() float64 {
	if h.AvgPrice <= 0 {
		return 0
	}
	return (h.Price - h.AvgPrice) / h.AvgPrice * 100
}

// Portfolio is the user's paper-trading book. The client never computes
// TotalEquity itself; it always takes the server's value on update so a
// locally-guessed equity cannot drift from the backend's recomputation.
type Portfolio struct {
	TotalEquity float64   `json:"total_equity"`
	Cash        float64   `json:"cash"`
	Holdings    []Holding `json:"holdings"`
}

// Holding returns the position for symbol, if any.
func (p *Portfolio) Holding(symbol string) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// HoldingsValue sums the derived market value of all positions.
func (p *Portfolio) HoldingsValue() float64 {
	var sum float64
	for i := range p.Holdings {
		sum += p.Holdings[i].MarketValue()
	}
	return sum
}

// CheckInvariant verifies total_equity == cash + sum(holding value)
// within tol. Every confirmed portfolio update must satisfy this.
func (p *Portfolio) CheckInvariant(tol float64) error {
	want := p.Cash + p.HoldingsValue()
	if math.Abs(p.TotalEquity-want) > tol {
		return fmt.Errorf("portfolio equity mismatch: total_equity=%.4f cash+holdings=%.4f", p.TotalEquity, want)
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers.
func (p *Portfolio) Clone() Portfolio {
	out := *p
	out.Holdings = make([]Holding, len(p.Holdings))
	copy(out.Holdings, p.Holdings)
	return out
}

// EquityPoint is one sample of the portfolio history series, ordered
// oldest to newest. Display only; never merged into Portfolio.
type EquityPoint struct {
	Time   string  `json:"time"`
	Equity float64 `json:"equity"`
}
