// Package convergence correlates evidence across the three disclosure
// sources. A signal that shows up independently from legislators, insiders,
// and funds is worth far more than any single-source signal.
package convergence

import (
	"fmt"
	"time"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
)

// Evidence is the per-ticker input to the correlator: trades already
// filtered to one ticker and the correlation window, plus the fund managers
// holding the ticker in any disclosed quarter.
type Evidence struct {
	Ticker      string
	Trades      []domain.TradeRecord
	FundHolders []string
}

// AllowListed reports whether a legislator actor ID is on the curated
// high-conviction allow-list.
type AllowListed func(actorID string) bool

// DetectTrinity fires when one ticker shows, within the correlation window,
// at least one insider BUY, at least one allow-listed legislator BUY, and
// at least one recorded fund holding from any quarter. Returns nil when any
// leg of the trinity is missing.
func DetectTrinity(ev Evidence, allowListed AllowListed) *alerts.Alert {
	var (
		legislators  []string
		insiders     []string
		dates        []time.Time
		evidence     []domain.TradeRecord
		company      string
		seenActor    = map[string]struct{}{}
		allowListHit bool
	)

	for i := range ev.Trades {
		t := &ev.Trades[i]
		if !t.IsBuy() {
			continue
		}

		switch t.ActorType {
		case domain.ActorLegislator:
			if _, dup := seenActor[t.ActorID]; !dup {
				seenActor[t.ActorID] = struct{}{}
				legislators = append(legislators, t.ActorName)
			}
			if allowListed(t.ActorID) {
				allowListHit = true
			}
		case domain.ActorInsider:
			if _, dup := seenActor[t.ActorID]; !dup {
				seenActor[t.ActorID] = struct{}{}
				insiders = append(insiders, t.ActorName)
			}
		default:
			continue
		}
		if company == "" {
			company = t.CompanyName
		}
		dates = append(dates, t.TradeDate)
		evidence = append(evidence, *t)
	}

	if len(insiders) == 0 || !allowListHit || len(ev.FundHolders) == 0 {
		return nil
	}

	participants := append([]string{}, legislators...)
	participants = append(participants, insiders...)
	participants = append(participants, ev.FundHolders...)

	a := alerts.Alert{
		SignalType:  alerts.SignalTrinity,
		Ticker:      ev.Ticker,
		CompanyName: company,
		Score:       float64(len(legislators) + len(insiders) + len(ev.FundHolders)),
		Summary: fmt.Sprintf("%s: %d legislator(s), %d insider(s), %d fund(s) aligned",
			ev.Ticker, len(legislators), len(insiders), len(ev.FundHolders)),
		Participants: participants,
		Dates:        dates,
		Evidence:     evidence,
		Details: map[string]interface{}{
			"legislators":  legislators,
			"insiders":     insiders,
			"fund_holders": ev.FundHolders,
		},
	}
	a.Finalize()
	return &a
}
