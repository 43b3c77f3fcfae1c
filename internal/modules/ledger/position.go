// Package ledger maintains running share and cost-basis state per
// (actor, ticker) pair. Positions are recomputed from the trade log on
// every run; nothing here is persisted incrementally.
package ledger

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/domain"
)

// Position is the running state for one (actor, ticker) pair.
// Share counts are estimates: disclosures report bucketed notional ranges,
// so shares are derived as midpoint dollars over a resolved trade price.
type Position struct {
	ActorID     string  `json:"actor_id"`
	ActorName   string  `json:"actor_name"`
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	SharesHeld  float64 `json:"shares_held"`
	CostBasis   float64 `json:"cost_basis"`
	RealizedPnL float64 `json:"realized_pnl"`
	TradesCount int     `json:"trades_count"`
}

// PriceLookup resolves a historical price for a ticker on a given date.
// Implementations return ok=false when no price can be resolved; the
// caller then drops the trade rather than booking it at zero.
type PriceLookup interface {
	PriceOn(ticker string, date time.Time) (float64, bool)
}

// Builder replays trade histories into positions.
type Builder struct {
	prices PriceLookup
	log    zerolog.Logger
}

// NewBuilder creates a position builder
func NewBuilder(prices PriceLookup, log zerolog.Logger) *Builder {
	return &Builder{
		prices: prices,
		log:    log.With().Str("service", "ledger").Logger(),
	}
}

// Build replays all trades into positions keyed by (actor_id, ticker).
// Trades are applied in strict trade_date order per pair. Trades with no
// resolvable price or notional value are dropped, never treated as zero.
func (b *Builder) Build(trades []domain.TradeRecord) []Position {
	type key struct {
		actorID string
		ticker  string
	}

	grouped := make(map[key][]domain.TradeRecord)
	for _, t := range trades {
		k := key{actorID: t.ActorID, ticker: t.Ticker}
		grouped[k] = append(grouped[k], t)
	}

	positions := make([]Position, 0, len(grouped))
	for k, pairTrades := range grouped {
		sort.SliceStable(pairTrades, func(i, j int) bool {
			return pairTrades[i].TradeDate.Before(pairTrades[j].TradeDate)
		})

		pos := Position{
			ActorID:     k.actorID,
			ActorName:   pairTrades[0].ActorName,
			Ticker:      k.ticker,
			CompanyName: pairTrades[0].CompanyName,
		}
		for i := range pairTrades {
			b.apply(&pos, &pairTrades[i])
		}
		positions = append(positions, pos)
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].ActorID != positions[j].ActorID {
			return positions[i].ActorID < positions[j].ActorID
		}
		return positions[i].Ticker < positions[j].Ticker
	})

	return positions
}

// apply mutates the position with one trade.
func (b *Builder) apply(pos *Position, trade *domain.TradeRecord) {
	price, ok := b.resolvePrice(trade)
	if !ok {
		b.log.Debug().
			Str("ticker", trade.Ticker).
			Str("actor", trade.ActorID).
			Str("date", trade.TradeDate.Format("2006-01-02")).
			Msg("Dropping trade with unresolvable price")
		return
	}

	dollars, ok := trade.NotionalValue()
	if !ok {
		b.log.Debug().
			Str("ticker", trade.Ticker).
			Str("actor", trade.ActorID).
			Str("range", trade.SizeRangeText).
			Msg("Dropping trade with unresolvable value")
		return
	}

	estimatedShares := dollars / price

	if trade.IsBuy() {
		pos.SharesHeld += estimatedShares
		pos.CostBasis += dollars
		pos.TradesCount++
		return
	}

	// SELL: only meaningful against an open position.
	if pos.SharesHeld > 0 {
		avgCost := pos.CostBasis / pos.SharesHeld
		pos.RealizedPnL += estimatedShares * (price - avgCost)
		pos.SharesHeld -= estimatedShares

		// Estimated sells can exceed estimated holdings. Clamp to zero and
		// zero the residual cost basis so a later buy starts a clean
		// average-cost computation instead of inheriting phantom dollars.
		if pos.SharesHeld <= 0 {
			pos.SharesHeld = 0
			pos.CostBasis = 0
		}
	}
	pos.TradesCount++
}

// resolvePrice picks the disclosed per-share price when present, otherwise
// falls back to a historical lookup for the trade date.
func (b *Builder) resolvePrice(trade *domain.TradeRecord) (float64, bool) {
	if trade.ExactPrice != nil && *trade.ExactPrice > 0 {
		return *trade.ExactPrice, true
	}
	if b.prices == nil {
		return 0, false
	}
	return b.prices.PriceOn(trade.Ticker, trade.TradeDate)
}
