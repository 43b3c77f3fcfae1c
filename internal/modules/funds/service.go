package funds

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/events"
)

// IngestResult summarizes one holdings batch ingestion.
type IngestResult struct {
	Received  int `json:"received"`
	Inserted  int `json:"inserted"`
	Duplicate int `json:"duplicate"`
	Rejected  int `json:"rejected"`
}

// Service normalizes and records fund holdings and computes
// quarter-over-quarter activity.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new fund holdings service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "funds").Logger(),
	}
}

// Ingest validates, normalizes, and stores a batch of quarterly holdings.
func (s *Service) Ingest(holdings []domain.FundHolding) (*IngestResult, error) {
	result := &IngestResult{Received: len(holdings)}

	for i := range holdings {
		h := holdings[i]
		h.Ticker = strings.ToUpper(strings.TrimSpace(h.Ticker))
		h.ManagerID = strings.ToLower(strings.TrimSpace(h.ManagerID))
		h.ManagerName = strings.TrimSpace(h.ManagerName)

		if err := h.Validate(); err != nil {
			result.Rejected++
			s.log.Warn().
				Err(err).
				Str("manager", h.ManagerName).
				Str("ticker", h.Ticker).
				Msg("Rejected fund holding")
			continue
		}

		inserted, err := s.repo.Insert(&h)
		if err != nil {
			return result, fmt.Errorf("failed to store holding for %s: %w", h.Ticker, err)
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
		Msg("Holdings batch ingested")

	if s.bus != nil && result.Inserted > 0 {
		s.bus.Publish(events.HoldingsIngested, "funds", result)
	}

	return result, nil
}

// RecentActivity classifies every manager's most recent quarter against the
// quarter before it. Managers with fewer than two quarters on file, or with
// a gap between quarter end dates, are skipped.
func (s *Service) RecentActivity() ([]Change, error) {
	managerIDs, err := s.repo.GetManagerIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}

	var all []Change
	for _, managerID := range managerIDs {
		changes, err := s.activityForManager(managerID)
		if err != nil {
			return nil, err
		}
		all = append(all, changes...)
	}

	return all, nil
}

func (s *Service) activityForManager(managerID string) ([]Change, error) {
	quarters, err := s.repo.GetRecentQuarters(managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quarters for %s: %w", managerID, err)
	}
	if len(quarters) < 2 {
		return nil, nil
	}

	current, err := s.repo.GetByManagerQuarter(managerID, quarters[0])
	if err != nil {
		return nil, err
	}
	previous, err := s.repo.GetByManagerQuarter(managerID, quarters[1])
	if err != nil {
		return nil, err
	}
	if len(current) == 0 || len(previous) == 0 {
		return nil, nil
	}

	// Quarters must be adjacent. A collection gap would make "ADD" span
	// more time than one quarter, so those comparisons are dropped.
	if !ConsecutiveQuarters(previous[0].PeriodEnd, current[0].PeriodEnd) {
		s.log.Warn().
			Str("manager", managerID).
			Str("current", quarters[0]).
			Str("previous", quarters[1]).
			Msg("Skipping fund comparison across non-adjacent quarters")
		return nil, nil
	}

	return ClassifyQuarter(current, previous), nil
}
