// Package alerts defines the alert model, its content-derived identity,
// and the sent-alert log used for cross-run deduplication.
package alerts

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aristath/conviction/internal/domain"
)

// Signal type identifiers.
const (
	SignalClusterBuy          = "cluster_buy"
	SignalBearishClusterSell  = "bearish_cluster_sell"
	SignalHighConvictionBuy   = "high_conviction_buy"
	SignalCEOCFOBuy           = "ceo_cfo_buy"
	SignalLargeSingleBuy      = "large_single_buy"
	SignalFirstBuy12Months    = "first_buy_12_months"
	SignalTrinity             = "trinity"
	SignalTemporalConvergence = "temporal_convergence"
)

// Alert is one emitted signal. ID is derived from signal type, ticker,
// participants, and dates only, so the same underlying evidence always
// produces the same alert across runs regardless of trade ordering, and
// enrichment fields (Evidence, CompanyName, Details) never re-fire an
// already-sent alert.
type Alert struct {
	ID           string                 `json:"id"`
	SignalType   string                 `json:"signal_type"`
	Ticker       string                 `json:"ticker"`
	CompanyName  string                 `json:"company_name,omitempty"`
	Score        float64                `json:"score"`
	Summary      string                 `json:"summary"`
	Participants []string               `json:"participants"`
	Dates        []time.Time            `json:"dates"`
	Evidence     []domain.TradeRecord   `json:"evidence,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

const (
	maxHashParticipants = 5
	maxHashDates        = 10
	participantMaxLen   = 24
)

// ComputeID derives the deterministic alert identity from signal type,
// ticker, participants, and evidence dates. Participants and dates are
// deduplicated and sorted before hashing, so input permutation cannot
// change the ID. The ID is the first 16 hex characters of a SHA-256 over
// the canonical form.
func ComputeID(signalType, ticker string, participants []string, dates []time.Time) string {
	names := canonicalParticipants(participants)
	days := canonicalDates(dates)

	var sb strings.Builder
	sb.WriteString(signalType)
	sb.WriteString("|")
	sb.WriteString(strings.ToUpper(ticker))
	sb.WriteString("|")
	sb.WriteString(strings.Join(names, ","))
	sb.WriteString("|")
	sb.WriteString(strings.Join(days, ","))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])[:16]
}

// Finalize fills in the alert ID from the alert's own evidence fields.
func (a *Alert) Finalize() {
	a.ID = ComputeID(a.SignalType, a.Ticker, a.Participants, a.Dates)
}

// canonicalParticipants dedupes, truncates, sorts, and caps the participant
// names used for identity.
func canonicalParticipants(participants []string) []string {
	seen := make(map[string]struct{}, len(participants))
	names := make([]string, 0, len(participants))
	for _, p := range participants {
		name := truncateName(strings.TrimSpace(p))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxHashParticipants {
		names = names[:maxHashParticipants]
	}
	return names
}

// truncateName caps a participant name at participantMaxLen characters
// without splitting a multi-byte rune.
func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= participantMaxLen {
		return name
	}
	return string([]rune(name)[:participantMaxLen])
}

// canonicalDates dedupes, sorts, and caps the evidence dates used for identity.
func canonicalDates(dates []time.Time) []string {
	seen := make(map[string]struct{}, len(dates))
	days := make([]string, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		day := d.Format("2006-01-02")
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Strings(days)
	if len(days) > maxHashDates {
		days = days[:maxHashDates]
	}
	return days
}
