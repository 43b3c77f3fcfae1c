// Package domain contains the core types shared across modules.
// Trade records are normalized once at the ingestion boundary; everything
// downstream (ledger, detectors, correlator) depends only on these types.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActorType identifies the class of informed actor behind a disclosure.
type ActorType string

const (
	ActorLegislator ActorType = "legislator"
	ActorInsider    ActorType = "insider"
	ActorFund       ActorType = "fund"
)

// Valid reports whether the actor type is one of the known classes.
func (a ActorType) Valid() bool {
	switch a {
	case ActorLegislator, ActorInsider, ActorFund:
		return true
	}
	return false
}

// TradeDirection is the disclosed side of a trade.
type TradeDirection string

const (
	DirectionBuy  TradeDirection = "BUY"
	DirectionSell TradeDirection = "SELL"
)

// Valid reports whether the direction is BUY or SELL.
func (d TradeDirection) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Normalized party labels for legislator records.
const (
	PartyDemocrat   = "Democrat"
	PartyRepublican = "Republican"
)

// NormalizeParty maps the free-text party field of a raw disclosure to a
// canonical label. Unknown parties are passed through trimmed.
func NormalizeParty(party string) string {
	switch strings.ToUpper(strings.TrimSpace(party)) {
	case "D", "DEM", "DEMOCRAT", "DEMOCRATIC":
		return PartyDemocrat
	case "R", "REP", "REPUBLICAN":
		return PartyRepublican
	}
	return strings.TrimSpace(party)
}

// TradeRecord is a single normalized trade disclosure. Records are immutable
// once ingested; legislator-only fields are empty for other actor classes.
type TradeRecord struct {
	ActorType      ActorType      `json:"actor_type"`
	ActorID        string         `json:"actor_id"`
	ActorName      string         `json:"actor_name"`
	Party          string         `json:"party,omitempty"`   // legislator only
	Chamber        string         `json:"chamber,omitempty"` // legislator only
	State          string         `json:"state,omitempty"`   // legislator only
	Ticker         string         `json:"ticker"`
	CompanyName    string         `json:"company_name,omitempty"`
	Direction      TradeDirection `json:"direction"`
	SizeRangeText  string         `json:"size_range,omitempty"`  // bucketed notional range, e.g. "15K-50K"
	ExactValue     *float64       `json:"exact_value,omitempty"` // exact notional dollars when disclosed
	ExactPrice     *float64       `json:"exact_price,omitempty"` // per-share price when disclosed
	TradeDate      time.Time      `json:"trade_date"`
	DisclosureDate *time.Time     `json:"disclosure_date,omitempty"`
	Title          string         `json:"title,omitempty"`      // insider only, e.g. "CEO"
	OwnerType      string         `json:"owner_type,omitempty"` // insider only, e.g. "Officer"
}

// Validate checks the invariants required before a record enters the trade log.
func (t *TradeRecord) Validate() error {
	if !t.ActorType.Valid() {
		return fmt.Errorf("invalid actor type: %q", t.ActorType)
	}
	if strings.TrimSpace(t.ActorID) == "" {
		return fmt.Errorf("actor_id is required")
	}
	if strings.TrimSpace(t.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	if !t.Direction.Valid() {
		return fmt.Errorf("invalid direction: %q", t.Direction)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("trade_date is required")
	}
	if t.DisclosureDate != nil && t.DisclosureDate.Before(t.TradeDate) {
		return fmt.Errorf("disclosure_date %s precedes trade_date %s",
			t.DisclosureDate.Format("2006-01-02"), t.TradeDate.Format("2006-01-02"))
	}
	return nil
}

// NotionalValue resolves the dollar value of the trade. Exact values win;
// otherwise the midpoint of the disclosed size range is used. Returns false
// when no valuation can be derived - such trades must never be treated as $0.
func (t *TradeRecord) NotionalValue() (float64, bool) {
	if t.ExactValue != nil {
		return *t.ExactValue, true
	}
	sr, err := ParseSizeRange(t.SizeRangeText)
	if err != nil {
		return 0, false
	}
	return sr.Midpoint(), true
}

// IsBuy reports whether the trade is a purchase.
func (t *TradeRecord) IsBuy() bool {
	return t.Direction == DirectionBuy
}

// FundHolding is one quarterly disclosed equity position of a fund manager.
// Holdings are immutable per quarter; PeriodEnd carries the explicit quarter
// end date so adjacent-quarter comparisons can reject gaps in collection.
type FundHolding struct {
	ManagerID    string    `json:"manager_id"`
	ManagerName  string    `json:"manager_name"`
	Ticker       string    `json:"ticker"`
	Shares       float64   `json:"shares"`
	PortfolioPct float64   `json:"portfolio_pct"`
	Value        float64   `json:"value"`
	Quarter      string    `json:"quarter"` // label, e.g. "2025Q4"
	PeriodEnd    time.Time `json:"period_end"`
}

// Validate checks the invariants required before a holding enters the log.
func (h *FundHolding) Validate() error {
	if strings.TrimSpace(h.ManagerID) == "" {
		return fmt.Errorf("manager_id is required")
	}
	if strings.TrimSpace(h.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}
	if h.Shares < 0 {
		return fmt.Errorf("shares must be non-negative, got %f", h.Shares)
	}
	if strings.TrimSpace(h.Quarter) == "" {
		return fmt.Errorf("quarter label is required")
	}
	if h.PeriodEnd.IsZero() {
		return fmt.Errorf("period_end is required")
	}
	return nil
}
