package ledger

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/conviction/internal/domain"
)

// fixedPrices resolves every (ticker, date) to a fixed table entry.
type fixedPrices struct {
	prices map[string]float64
}

func (f *fixedPrices) PriceOn(ticker string, _ time.Time) (float64, bool) {
	p, ok := f.prices[ticker]
	return p, ok
}

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func buy(actor, ticker, sizeRange string, d int) domain.TradeRecord {
	return domain.TradeRecord{
		ActorType:     domain.ActorLegislator,
		ActorID:       actor,
		ActorName:     actor,
		Ticker:        ticker,
		Direction:     domain.DirectionBuy,
		SizeRangeText: sizeRange,
		TradeDate:     day(d),
	}
}

func sell(actor, ticker, sizeRange string, d int) domain.TradeRecord {
	t := buy(actor, ticker, sizeRange, d)
	t.Direction = domain.DirectionSell
	return t
}

func newTestBuilder(prices map[string]float64) *Builder {
	return NewBuilder(&fixedPrices{prices: prices}, zerolog.Nop())
}

func TestBuild_SingleBuy(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	positions := b.Build([]domain.TradeRecord{buy("leg-a", "NVDA", "15K-50K", 10)})
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.InDelta(t, 325.0, pos.SharesHeld, 1e-9) // 32500 / 100
	assert.Equal(t, 32500.0, pos.CostBasis)
	assert.Equal(t, 0.0, pos.RealizedPnL)
	assert.Equal(t, 1, pos.TradesCount)
}

func TestBuild_BuyThenProfitableSell(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	// Buy 32500/100 = 325 shares at avg cost 100. Sell with a disclosed
	// price of 150: 15K-50K midpoint -> 32500/150 ≈ 216.67 shares sold.
	sellTrade := sell("leg-a", "NVDA", "15K-50K", 20)
	price := 150.0
	sellTrade.ExactPrice = &price

	positions := b.Build([]domain.TradeRecord{
		buy("leg-a", "NVDA", "15K-50K", 10),
		sellTrade,
	})
	require.Len(t, positions, 1)

	pos := positions[0]
	soldShares := 32500.0 / 150.0
	assert.InDelta(t, soldShares*(150.0-100.0), pos.RealizedPnL, 1e-6)
	assert.InDelta(t, 325.0-soldShares, pos.SharesHeld, 1e-6)
	assert.Equal(t, 2, pos.TradesCount)
}

func TestBuild_OversellClampsToZero(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	oversell := sell("leg-a", "NVDA", "250K-500K", 20) // far more than held
	sellPrice := 120.0
	oversell.ExactPrice = &sellPrice

	positions := b.Build([]domain.TradeRecord{
		buy("leg-a", "NVDA", "15K-50K", 10), // 325 shares at avg cost 100
		oversell,
	})
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, 0.0, pos.SharesHeld)
	// Residual cost basis is zeroed with the shares so a later buy starts
	// a clean average-cost computation.
	assert.Equal(t, 0.0, pos.CostBasis)
	// Realized P&L is still recorded against the pre-sale average cost:
	// 375000/120 shares sold at a 20-dollar gain each.
	assert.InDelta(t, (375000.0/120.0)*20.0, pos.RealizedPnL, 1e-6)
}

func TestBuild_SellWithNoPositionIgnored(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	positions := b.Build([]domain.TradeRecord{sell("leg-a", "NVDA", "15K-50K", 10)})
	require.Len(t, positions, 1)

	pos := positions[0]
	assert.Equal(t, 0.0, pos.SharesHeld)
	assert.Equal(t, 0.0, pos.RealizedPnL)
	assert.Equal(t, 1, pos.TradesCount)
}

func TestBuild_UnresolvableTradesDropped(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	noValue := buy("leg-a", "NVDA", "abc", 10)
	noPrice := buy("leg-a", "MYST", "15K-50K", 11)

	positions := b.Build([]domain.TradeRecord{
		noValue,
		noPrice,
		buy("leg-a", "NVDA", "15K-50K", 12),
	})

	// The unpriceable MYST pair still appears, but with nothing applied.
	require.Len(t, positions, 2)
	for _, pos := range positions {
		if pos.Ticker == "MYST" {
			assert.Equal(t, 0, pos.TradesCount)
			assert.Equal(t, 0.0, pos.CostBasis)
		}
		if pos.Ticker == "NVDA" {
			assert.Equal(t, 1, pos.TradesCount)
			assert.Equal(t, 32500.0, pos.CostBasis)
		}
	}
}

func TestBuild_BuyOnlyHasZeroRealized(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	positions := b.Build([]domain.TradeRecord{
		buy("leg-a", "NVDA", "15K-50K", 10),
		buy("leg-a", "NVDA", "50K-100K", 15),
		buy("leg-a", "NVDA", "1K-15K", 20),
	})
	require.Len(t, positions, 1)
	assert.Equal(t, 0.0, positions[0].RealizedPnL)
	assert.Equal(t, 3, positions[0].TradesCount)
}

func TestBuild_ChronologicalOrderRegardlessOfInput(t *testing.T) {
	b := newTestBuilder(map[string]float64{"NVDA": 100})

	// Sell arrives first in the slice but later by date; replay order is
	// by trade_date, so the buy is applied first.
	positions := b.Build([]domain.TradeRecord{
		sell("leg-a", "NVDA", "1K-15K", 20),
		buy("leg-a", "NVDA", "15K-50K", 10),
	})
	require.Len(t, positions, 1)
	assert.Greater(t, positions[0].SharesHeld, 0.0)
	assert.Equal(t, 2, positions[0].TradesCount)
}
