// Package pnl turns ledger positions into valuation snapshots.
package pnl

import (
	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/modules/ledger"
)

// Position status values.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Result is one read-only P&L snapshot row for a position.
type Result struct {
	ActorID       string  `json:"actor_id"`
	ActorName     string  `json:"actor_name"`
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	SharesHeld    float64 `json:"shares_held"`
	CostBasis     float64 `json:"cost_basis"`
	AvgCostBasis  float64 `json:"avg_cost_basis"` // per share
	CurrentPrice  float64 `json:"current_price"`
	PositionValue float64 `json:"position_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	RealizedPnL   float64 `json:"realized_pnl"`
	TotalPnL      float64 `json:"total_pnl"`
	ReturnPercent float64 `json:"return_percent"`
	TradesCount   int     `json:"trades_count"`
	Status        string  `json:"status"`
}

// QuoteSource resolves current prices. ok=false means the price is
// unavailable and the row is skipped, never valued at zero.
type QuoteSource interface {
	CurrentPrice(ticker string) (float64, bool)
}

// Calculator computes P&L snapshots from positions and current prices.
type Calculator struct {
	quotes QuoteSource
	log    zerolog.Logger
}

// NewCalculator creates a P&L calculator
func NewCalculator(quotes QuoteSource, log zerolog.Logger) *Calculator {
	return &Calculator{
		quotes: quotes,
		log:    log.With().Str("service", "pnl").Logger(),
	}
}

// Calculate produces one snapshot row per position that has open shares or
// any realized P&L. Positions whose current price is unavailable are logged
// and skipped; the rest of the batch proceeds. Output is a full
// recomputation, never merged with prior snapshots.
func (c *Calculator) Calculate(positions []ledger.Position) []Result {
	var results []Result
	for _, pos := range positions {
		if pos.SharesHeld <= 0 && pos.RealizedPnL == 0 {
			continue
		}

		price, ok := c.quotes.CurrentPrice(pos.Ticker)
		if !ok {
			c.log.Warn().
				Str("ticker", pos.Ticker).
				Str("actor", pos.ActorID).
				Msg("Price unavailable, skipping P&L row")
			continue
		}

		results = append(results, compute(pos, price))
	}

	return results
}

func compute(pos ledger.Position, price float64) Result {
	r := Result{
		ActorID:      pos.ActorID,
		ActorName:    pos.ActorName,
		Ticker:       pos.Ticker,
		CompanyName:  pos.CompanyName,
		SharesHeld:   pos.SharesHeld,
		CostBasis:    pos.CostBasis,
		CurrentPrice: price,
		RealizedPnL:  pos.RealizedPnL,
		TradesCount:  pos.TradesCount,
		Status:       StatusClosed,
	}

	if pos.SharesHeld > 0 {
		r.Status = StatusOpen
		r.AvgCostBasis = pos.CostBasis / pos.SharesHeld
		r.PositionValue = pos.SharesHeld * price
		r.UnrealizedPnL = r.PositionValue - pos.CostBasis
	}

	r.TotalPnL = r.UnrealizedPnL + pos.RealizedPnL

	// Denominator floored to 1 so fully-exited positions with zeroed cost
	// basis still produce a finite (if crude) percentage.
	denominator := pos.CostBasis
	if denominator < 1 {
		denominator = 1
	}
	r.ReturnPercent = r.TotalPnL / denominator * 100

	return r
}
