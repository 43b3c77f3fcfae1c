package trades

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/events"
)

// IngestResult summarizes one batch ingestion.
type IngestResult struct {
	Received  int `json:"received"`
	Inserted  int `json:"inserted"`
	Duplicate int `json:"duplicate"`
	Rejected  int `json:"rejected"`
}

// Service normalizes and records trade disclosures.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new trade ingestion service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "trades").Logger(),
	}
}

// Ingest validates, normalizes, and stores a batch of trade disclosures.
// Invalid records are counted and skipped, never stored; duplicates of
// already recorded disclosures are skipped silently.
func (s *Service) Ingest(records []domain.TradeRecord) (*IngestResult, error) {
	result := &IngestResult{Received: len(records)}

	for i := range records {
		trade := records[i]
		normalize(&trade)

		if err := trade.Validate(); err != nil {
			result.Rejected++
			s.log.Warn().
				Err(err).
				Str("actor", trade.ActorName).
				Str("ticker", trade.Ticker).
				Msg("Rejected trade disclosure")
			continue
		}

		inserted, err := s.repo.Insert(&trade)
		if err != nil {
			return result, fmt.Errorf("failed to store trade for %s: %w", trade.Ticker, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicate++
		}
	}

	s.log.Info().
		Int("received", result.Received).
		Int("inserted", result.Inserted).
		Int("duplicate", result.Duplicate).
		Int("rejected", result.Rejected).
		Msg("Trade batch ingested")

	if s.bus != nil && result.Inserted > 0 {
		s.bus.Publish(events.TradesIngested, "trades", result)
	}

	return result, nil
}

// normalize applies the canonical field forms before validation.
func normalize(t *domain.TradeRecord) {
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	t.ActorID = strings.ToLower(strings.TrimSpace(t.ActorID))
	t.ActorName = strings.TrimSpace(t.ActorName)
	t.Party = domain.NormalizeParty(t.Party)
	t.Direction = domain.TradeDirection(strings.ToUpper(strings.TrimSpace(string(t.Direction))))
	t.SizeRangeText = strings.TrimSpace(t.SizeRangeText)
}
