package convergence

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
)

// Source labels for timeline points.
const (
	sourceLegislator = "legislator"
	sourceInsider    = "insider"
	sourceFund       = "fund"
)

// Scoring components. The base is the floor for any three-source
// convergence; the ideal cascade is informed actors first, institutions
// last; the reverse order suggests followers rather than leaders.
const (
	scoreBase         = 5.0
	scoreIdealCascade = 3.0
	scoreReverseOrder = -1.0
	scoreTightWindow  = 2.0
	scoreBipartisan   = 1.0

	tightWindow = 14 * 24 * time.Hour
	scoreMin    = 0.0
	scoreMax    = 10.0
)

// timelinePoint is one source's anchor date on the convergence timeline.
type timelinePoint struct {
	source string
	date   time.Time
}

// ScoreTemporal computes the temporal-convergence score for one ticker.
// Requires non-empty evidence from all three sources; returns nil (no
// signal, not an error) otherwise. The timeline anchors are the earliest
// legislator BUY, the earliest insider BUY, and the latest fund holding
// snapshot date.
func ScoreTemporal(ev Evidence, fundSnapshotDates []time.Time) *alerts.Alert {
	var (
		earliestLeg, earliestIns time.Time
		evidence                 []domain.TradeRecord
		company                  string
		parties                  = map[string]struct{}{}
	)

	for i := range ev.Trades {
		t := &ev.Trades[i]
		if !t.IsBuy() {
			continue
		}
		switch t.ActorType {
		case domain.ActorLegislator:
			if earliestLeg.IsZero() || t.TradeDate.Before(earliestLeg) {
				earliestLeg = t.TradeDate
			}
			if t.Party != "" {
				parties[t.Party] = struct{}{}
			}
		case domain.ActorInsider:
			if earliestIns.IsZero() || t.TradeDate.Before(earliestIns) {
				earliestIns = t.TradeDate
			}
		default:
			continue
		}
		if company == "" {
			company = t.CompanyName
		}
		evidence = append(evidence, *t)
	}

	var latestFund time.Time
	for _, d := range fundSnapshotDates {
		if d.After(latestFund) {
			latestFund = d
		}
	}

	if earliestLeg.IsZero() || earliestIns.IsZero() || latestFund.IsZero() {
		return nil
	}

	timeline := []timelinePoint{
		{source: sourceLegislator, date: earliestLeg},
		{source: sourceInsider, date: earliestIns},
		{source: sourceFund, date: latestFund},
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].date.Before(timeline[j].date)
	})

	score := scoreBase
	var reasons []string

	switch {
	case orderIs(timeline, sourceLegislator, sourceInsider, sourceFund):
		score += scoreIdealCascade
		reasons = append(reasons, "ideal cascade")
	case orderIs(timeline, sourceFund, sourceInsider, sourceLegislator):
		score += scoreReverseOrder
		reasons = append(reasons, "reverse order")
	}

	span := timeline[2].date.Sub(timeline[0].date)
	if span <= tightWindow {
		score += scoreTightWindow
		reasons = append(reasons, "tight window")
	}

	_, dem := parties[domain.PartyDemocrat]
	_, rep := parties[domain.PartyRepublican]
	bipartisan := dem && rep
	if bipartisan {
		score += scoreBipartisan
		reasons = append(reasons, "bipartisan")
	}

	if score < scoreMin {
		score = scoreMin
	}
	if score > scoreMax {
		score = scoreMax
	}

	a := alerts.Alert{
		SignalType:  alerts.SignalTemporalConvergence,
		Ticker:      ev.Ticker,
		CompanyName: company,
		Score:       score,
		Summary:     fmt.Sprintf("%s temporal convergence scored %.0f/10", ev.Ticker, score),
		Dates:       []time.Time{earliestLeg, earliestIns, latestFund},
		Evidence:    evidence,
		Details: map[string]interface{}{
			"earliest_legislator_buy": earliestLeg.Format("2006-01-02"),
			"earliest_insider_buy":    earliestIns.Format("2006-01-02"),
			"latest_fund_snapshot":    latestFund.Format("2006-01-02"),
			"span_days":               int(span.Hours() / 24),
			"bipartisan":              bipartisan,
			"reasons":                 reasons,
		},
	}
	a.Finalize()
	return &a
}

func orderIs(timeline []timelinePoint, first, second, third string) bool {
	return timeline[0].source == first &&
		timeline[1].source == second &&
		timeline[2].source == third
}
