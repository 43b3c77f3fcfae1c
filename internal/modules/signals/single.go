package signals

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
)

// DetectHighConvictionBuys fires once per BUY whose actor is on the curated
// allow-list, independent of cluster size or trade value.
func DetectHighConvictionBuys(trades []domain.TradeRecord, cfg Config) []alerts.Alert {
	var out []alerts.Alert
	for i := range trades {
		t := &trades[i]
		if !t.IsBuy() || !cfg.IsHighConviction(t.ActorID) {
			continue
		}

		a := alerts.Alert{
			SignalType:   alerts.SignalHighConvictionBuy,
			Ticker:       t.Ticker,
			CompanyName:  t.CompanyName,
			Score:        1,
			Summary:      fmt.Sprintf("%s bought %s", t.ActorName, t.Ticker),
			Participants: []string{t.ActorName},
			Dates:        []time.Time{t.TradeDate},
			Evidence:     []domain.TradeRecord{*t},
			Details: map[string]interface{}{
				"actor_id":   t.ActorID,
				"actor_type": string(t.ActorType),
			},
		}
		if value, ok := t.NotionalValue(); ok {
			a.Details["value"] = value
		}
		a.Finalize()
		out = append(out, a)
	}

	return out
}

// DetectCEOCFOBuys fires on insider purchases by a CEO or CFO above the
// configured floor. Executives buying their own stock with their own money
// is the single strongest insider signal.
func DetectCEOCFOBuys(trades []domain.TradeRecord, cfg Config) []alerts.Alert {
	var out []alerts.Alert
	for i := range trades {
		t := &trades[i]
		if !t.IsBuy() || t.ActorType != domain.ActorInsider {
			continue
		}

		title := normalizeTitle(t.Title)
		if title != "CEO" && title != "CFO" {
			continue
		}

		value, ok := t.NotionalValue()
		if !ok || value < cfg.ExecutiveBuyMinValue {
			continue
		}

		a := alerts.Alert{
			SignalType:   alerts.SignalCEOCFOBuy,
			Ticker:       t.Ticker,
			CompanyName:  t.CompanyName,
			Score:        2,
			Summary:      fmt.Sprintf("%s (%s) bought $%.0f of %s", t.ActorName, title, value, t.Ticker),
			Participants: []string{t.ActorName},
			Dates:        []time.Time{t.TradeDate},
			Evidence:     []domain.TradeRecord{*t},
			Details: map[string]interface{}{
				"title": title,
				"value": value,
			},
		}
		a.Finalize()
		out = append(out, a)
	}

	return out
}

// DetectLargeSingleBuys fires on any single BUY at or above the configured
// dollar threshold.
func DetectLargeSingleBuys(trades []domain.TradeRecord, cfg Config) []alerts.Alert {
	var out []alerts.Alert
	for i := range trades {
		t := &trades[i]
		if !t.IsBuy() {
			continue
		}

		value, ok := t.NotionalValue()
		if !ok || value < cfg.LargeSingleBuyMinValue {
			continue
		}

		a := alerts.Alert{
			SignalType:   alerts.SignalLargeSingleBuy,
			Ticker:       t.Ticker,
			CompanyName:  t.CompanyName,
			Score:        1,
			Summary:      fmt.Sprintf("%s bought $%.0f of %s", t.ActorName, value, t.Ticker),
			Participants: []string{t.ActorName},
			Dates:        []time.Time{t.TradeDate},
			Evidence:     []domain.TradeRecord{*t},
			Details: map[string]interface{}{
				"actor_type": string(t.ActorType),
				"value":      value,
			},
		}
		a.Finalize()
		out = append(out, a)
	}

	return out
}

// normalizeTitle reduces free-text insider titles to a canonical executive
// role. Forms use anything from "CEO" to "Chief Executive Officer" to
// "C.E.O. & President".
func normalizeTitle(title string) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(title, ".", ""))
	switch {
	case strings.Contains(cleaned, "CHIEF EXECUTIVE OFFICER"), containsWord(cleaned, "CEO"):
		return "CEO"
	case strings.Contains(cleaned, "CHIEF FINANCIAL OFFICER"), containsWord(cleaned, "CFO"):
		return "CFO"
	}
	return strings.TrimSpace(cleaned)
}

func containsWord(s, word string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '&' || r == '/' || r == ';'
	}) {
		if f == word {
			return true
		}
	}
	return false
}
