package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolding_Derivations(t *testing.T) {
	h := Holding{Symbol: "AAPL", Quantity: 10, AvgPrice: 100, Price: 110}
	assert.InDelta(t, 1100, h.MarketValue(), 1e-9)
	assert.InDelta(t, 10, h.PnLPercent(), 1e-9)
}

func TestHolding_PnLWithZeroCostBasis(t *testing.T) {
	h := Holding{Quantity: 1, AvgPrice: 0, Price: 50}
	assert.Zero(t, h.PnLPercent())
}

func TestPortfolio_CheckInvariant(t *testing.T) {
	p := Portfolio{
		TotalEquity: 10_500,
		Cash:        9_400,
		Holdings: []Holding{
			{Symbol: "AAPL", Quantity: 10, Price: 110},
		},
	}
	require.NoError(t, p.CheckInvariant(0.01))

	p.TotalEquity = 11_000
	assert.Error(t, p.CheckInvariant(0.01))
}

func TestPortfolio_CloneIsDeep(t *testing.T) {
	p := Portfolio{Cash: 100, Holdings: []Holding{{Symbol: "TSLA", Quantity: 1}}}
	c := p.Clone()
	c.Holdings[0].Quantity = 5
	assert.Equal(t, 1.0, p.Holdings[0].Quantity)
}

func TestPortfolio_HoldingLookup(t *testing.T) {
	p := Portfolio{Holdings: []Holding{{Symbol: "MSFT", Quantity: 2}}}
	h, ok := p.Holding("MSFT")
	require.True(t, ok)
	assert.Equal(t, 2.0, h.Quantity)

	_, ok = p.Holding("NVDA")
	assert.False(t, ok)
}
