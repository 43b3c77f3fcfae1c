package signals

import (
	"fmt"
	"time"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
)

// PriorBuyChecker reports whether the actor bought the ticker within
// [from, to). The analysis service backs this with the trade log; tests
// back it with a map.
type PriorBuyChecker func(actorID, ticker string, from, to time.Time) (bool, error)

// DetectFirstBuys fires when an actor's BUY has no prior BUY of the same
// ticker by the same actor in the preceding 12 months and the trade value
// clears the configured floor. A first entry after a year away is a
// deliberate act, not portfolio maintenance.
func DetectFirstBuys(trades []domain.TradeRecord, cfg Config, hadPriorBuy PriorBuyChecker) ([]alerts.Alert, error) {
	var out []alerts.Alert
	for i := range trades {
		t := &trades[i]
		if !t.IsBuy() {
			continue
		}

		value, ok := t.NotionalValue()
		if !ok || value < cfg.FirstBuyMinValue {
			continue
		}

		from := t.TradeDate.AddDate(-1, 0, 0)
		prior, err := hadPriorBuy(t.ActorID, t.Ticker, from, t.TradeDate)
		if err != nil {
			return nil, fmt.Errorf("failed to check prior buys for %s/%s: %w", t.ActorID, t.Ticker, err)
		}
		if prior {
			continue
		}

		a := alerts.Alert{
			SignalType:   alerts.SignalFirstBuy12Months,
			Ticker:       t.Ticker,
			CompanyName:  t.CompanyName,
			Score:        1,
			Summary:      fmt.Sprintf("%s opened a position in %s (first buy in 12 months)", t.ActorName, t.Ticker),
			Participants: []string{t.ActorName},
			Dates:        []time.Time{t.TradeDate},
			Evidence:     []domain.TradeRecord{*t},
			Details: map[string]interface{}{
				"actor_id":   t.ActorID,
				"actor_type": string(t.ActorType),
				"value":      value,
			},
		}
		a.Finalize()
		out = append(out, a)
	}

	return out, nil
}
