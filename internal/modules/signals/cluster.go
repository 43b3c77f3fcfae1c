package signals

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
)

// cluster accumulates evidence for one (ticker, actor class) group.
type cluster struct {
	ticker     string
	company    string
	actorType  domain.ActorType
	actors     map[string]struct{}
	names      []string
	dates      []time.Time
	trades     []domain.TradeRecord
	values     []float64
	totalValue float64
}

// DetectClusterBuys groups BUY trades by ticker and actor class and fires
// when enough distinct actors bought enough aggregate dollars. The minimum
// cluster size is class-dependent: legislators move in smaller packs than
// insiders.
func DetectClusterBuys(trades []domain.TradeRecord, cfg Config) []alerts.Alert {
	clusters := groupClusters(trades, domain.DirectionBuy)

	var out []alerts.Alert
	for _, c := range clusters {
		minSize := cfg.InsiderMinClusterSize
		if c.actorType == domain.ActorLegislator {
			minSize = cfg.LegislatorMinClusterSize
		}

		if len(c.actors) < minSize || c.totalValue < cfg.MinClusterValue {
			continue
		}

		out = append(out, clusterAlert(alerts.SignalClusterBuy, c,
			fmt.Sprintf("%d %ss bought %s (≈$%.0f total)",
				len(c.actors), c.actorType, c.ticker, c.totalValue)))
	}

	return out
}

// DetectBearishClusterSells applies the same grouping to SELL trades with
// stricter thresholds. Sell clusters are noisier: routine diversification
// and tax-driven sales produce coincidental groupings that buys do not.
func DetectBearishClusterSells(trades []domain.TradeRecord, cfg Config) []alerts.Alert {
	clusters := groupClusters(trades, domain.DirectionSell)

	var out []alerts.Alert
	for _, c := range clusters {
		if len(c.actors) < cfg.SellMinClusterSize || c.totalValue < cfg.SellMinClusterValue {
			continue
		}

		out = append(out, clusterAlert(alerts.SignalBearishClusterSell, c,
			fmt.Sprintf("%d %ss sold %s (≈$%.0f total)",
				len(c.actors), c.actorType, c.ticker, c.totalValue)))
	}

	return out
}

// groupClusters buckets trades of one direction by (ticker, actor class).
// Trades with no resolvable value never contribute to the aggregate sum or
// the distinct-actor tally.
func groupClusters(trades []domain.TradeRecord, direction domain.TradeDirection) map[string]*cluster {
	clusters := make(map[string]*cluster)

	for i := range trades {
		t := &trades[i]
		if t.Direction != direction {
			continue
		}
		if t.ActorType != domain.ActorLegislator && t.ActorType != domain.ActorInsider {
			continue
		}

		value, ok := t.NotionalValue()
		if !ok {
			continue
		}

		key := t.Ticker + "|" + string(t.ActorType)
		c, exists := clusters[key]
		if !exists {
			c = &cluster{
				ticker:    t.Ticker,
				actorType: t.ActorType,
				actors:    make(map[string]struct{}),
			}
			clusters[key] = c
		}

		if _, seen := c.actors[t.ActorID]; !seen {
			c.actors[t.ActorID] = struct{}{}
			c.names = append(c.names, t.ActorName)
		}
		if c.company == "" {
			c.company = t.CompanyName
		}
		c.dates = append(c.dates, t.TradeDate)
		c.trades = append(c.trades, *t)
		c.values = append(c.values, value)
		c.totalValue += value
	}

	return clusters
}

func clusterAlert(signalType string, c *cluster, summary string) alerts.Alert {
	mean, std := stat.MeanStdDev(c.values, nil)
	if len(c.values) < 2 {
		std = 0 // sample stddev is undefined for a single trade
	}

	a := alerts.Alert{
		SignalType:   signalType,
		Ticker:       c.ticker,
		CompanyName:  c.company,
		Score:        float64(len(c.actors)),
		Summary:      summary,
		Participants: c.names,
		Dates:        c.dates,
		Evidence:     c.trades,
		Details: map[string]interface{}{
			"actor_type":     string(c.actorType),
			"distinct_count": len(c.actors),
			"total_value":    c.totalValue,
			"mean_value":     mean,
			"stddev_value":   std,
		},
	}
	a.Finalize()
	return a
}
