package pnl

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/conviction/internal/modules/ledger"
)

type stubQuotes struct {
	prices map[string]float64
}

func (s *stubQuotes) CurrentPrice(ticker string) (float64, bool) {
	p, ok := s.prices[ticker]
	return p, ok
}

func newTestCalculator(prices map[string]float64) *Calculator {
	return NewCalculator(&stubQuotes{prices: prices}, zerolog.Nop())
}

func TestCalculate_OpenPosition(t *testing.T) {
	c := newTestCalculator(map[string]float64{"NVDA": 120})

	results := c.Calculate([]ledger.Position{{
		ActorID:     "leg-a",
		ActorName:   "A",
		Ticker:      "NVDA",
		SharesHeld:  100,
		CostBasis:   10000,
		TradesCount: 2,
	}})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, StatusOpen, r.Status)
	assert.Equal(t, 100.0, r.AvgCostBasis)
	assert.Equal(t, 12000.0, r.PositionValue)
	assert.Equal(t, 2000.0, r.UnrealizedPnL)
	assert.Equal(t, 2000.0, r.TotalPnL)
	assert.InDelta(t, 20.0, r.ReturnPercent, 1e-9)
}

func TestCalculate_ClosedPositionWithRealized(t *testing.T) {
	c := newTestCalculator(map[string]float64{"NVDA": 120})

	results := c.Calculate([]ledger.Position{{
		ActorID:     "leg-a",
		Ticker:      "NVDA",
		SharesHeld:  0,
		CostBasis:   0,
		RealizedPnL: 5000,
	}})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, StatusClosed, r.Status)
	assert.Equal(t, 0.0, r.UnrealizedPnL)
	assert.Equal(t, 5000.0, r.TotalPnL)
	// Zero cost basis: denominator floored to 1, no division panic.
	assert.InDelta(t, 500000.0, r.ReturnPercent, 1e-9)
}

func TestCalculate_EmptyPositionSkipped(t *testing.T) {
	c := newTestCalculator(map[string]float64{"NVDA": 120})

	results := c.Calculate([]ledger.Position{{
		ActorID: "leg-a",
		Ticker:  "NVDA",
	}})
	assert.Empty(t, results)
}

func TestCalculate_UnavailablePriceSkipsRowOnly(t *testing.T) {
	c := newTestCalculator(map[string]float64{"NVDA": 120})

	results := c.Calculate([]ledger.Position{
		{ActorID: "leg-a", Ticker: "MYST", SharesHeld: 10, CostBasis: 1000},
		{ActorID: "leg-a", Ticker: "NVDA", SharesHeld: 10, CostBasis: 1000},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "NVDA", results[0].Ticker)
}
