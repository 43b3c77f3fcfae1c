// Package services contains the cross-module orchestration layer.
package services

import (
	"time"

	"github.com/rs/zerolog"
)

// QuoteClient is the upstream price source.
type QuoteClient interface {
	CurrentPrice(ticker string) (float64, error)
	CloseOn(ticker string, date time.Time) (float64, error)
}

// PriceService resolves prices through a run-scoped cache. A new instance
// is created for every analysis run; cached prices are never carried across
// runs, so a stale cache cannot poison later output. Failed lookups are
// cached too - one slow upstream miss must not be retried for every trade
// that references the same ticker.
type PriceService struct {
	client     QuoteClient
	log        zerolog.Logger
	current    map[string]float64
	currentBad map[string]struct{}
	closes     map[string]float64
	closesBad  map[string]struct{}
}

// NewPriceService creates a run-scoped price service
func NewPriceService(client QuoteClient, log zerolog.Logger) *PriceService {
	return &PriceService{
		client:     client,
		log:        log.With().Str("service", "prices").Logger(),
		current:    make(map[string]float64),
		currentBad: make(map[string]struct{}),
		closes:     make(map[string]float64),
		closesBad:  make(map[string]struct{}),
	}
}

// CurrentPrice returns the latest price for the ticker, ok=false when the
// lookup fails. Satisfies the P&L calculator's quote source.
func (s *PriceService) CurrentPrice(ticker string) (float64, bool) {
	if price, ok := s.current[ticker]; ok {
		return price, true
	}
	if _, bad := s.currentBad[ticker]; bad {
		return 0, false
	}

	price, err := s.client.CurrentPrice(ticker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("Current price unavailable")
		s.currentBad[ticker] = struct{}{}
		return 0, false
	}

	s.current[ticker] = price
	return price, true
}

// PriceOn returns the historical close for the ticker on the date, ok=false
// when no close can be resolved. Satisfies the ledger's price lookup.
func (s *PriceService) PriceOn(ticker string, date time.Time) (float64, bool) {
	key := ticker + "|" + date.Format("2006-01-02")
	if price, ok := s.closes[key]; ok {
		return price, true
	}
	if _, bad := s.closesBad[key]; bad {
		return 0, false
	}

	price, err := s.client.CloseOn(ticker, date)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).
			Str("date", date.Format("2006-01-02")).
			Msg("Historical close unavailable")
		s.closesBad[key] = struct{}{}
		return 0, false
	}

	s.closes[key] = price
	return price, true
}
