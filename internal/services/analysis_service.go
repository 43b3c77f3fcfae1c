package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/config"
	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/events"
	"github.com/aristath/conviction/internal/modules/alerts"
	"github.com/aristath/conviction/internal/modules/convergence"
	"github.com/aristath/conviction/internal/modules/funds"
	"github.com/aristath/conviction/internal/modules/ledger"
	"github.com/aristath/conviction/internal/modules/pnl"
	"github.com/aristath/conviction/internal/modules/signals"
)

// TradeStore is the slice of the trade log the analysis run reads.
type TradeStore interface {
	GetActiveTickersSince(since time.Time) ([]string, error)
	GetByTickerSince(ticker string, since time.Time) ([]domain.TradeRecord, error)
	GetByActor(actorID string) ([]domain.TradeRecord, error)
	GetLegislatorActorIDs() ([]string, error)
	HasBuyInWindow(actorID, ticker string, from, to time.Time) (bool, error)
	CountSince(since time.Time) (int, error)
}

// FundStore is the slice of the holdings log the correlator reads.
type FundStore interface {
	GetHolders(ticker string) ([]string, error)
	GetSnapshotDates(ticker string) ([]time.Time, error)
}

// FundActivitySource classifies quarter-over-quarter fund changes.
type FundActivitySource interface {
	RecentActivity() ([]funds.Change, error)
}

// AlertLog is the sent-alert log used for cross-run deduplication.
type AlertLog interface {
	WasSent(alertID string) (bool, error)
	MarkSent(alert *alerts.Alert) error
}

// SnapshotStore persists P&L snapshots.
type SnapshotStore interface {
	SaveSnapshots(results []pnl.Result, snapshotDate time.Time) error
}

// RunLog records analysis runs.
type RunLog interface {
	Start(trigger string) (string, error)
	Finish(id string, scanned, emitted, suppressed int) error
	Fail(id string, runErr error) error
}

// Summary is the outcome of one analysis run.
type Summary struct {
	RunID            string         `json:"run_id"`
	Trigger          string         `json:"trigger"`
	TradesScanned    int            `json:"trades_scanned"`
	TickersScanned   int            `json:"tickers_scanned"`
	FundChanges      []funds.Change `json:"fund_changes,omitempty"`
	PnLRows          int            `json:"pnl_rows"`
	AlertsEmitted    int            `json:"alerts_emitted"`
	AlertsSuppressed int            `json:"alerts_suppressed"`
	NewAlerts        []alerts.Alert `json:"new_alerts"`
	Duration         string         `json:"duration"`
}

// AnalysisService runs the full pipeline: replay the trade log into
// positions and P&L, run every signal detector, correlate across sources,
// and deduplicate alerts against the sent log. Each run recomputes from
// the persisted logs; an aborted run leaves no partial state behind.
type AnalysisService struct {
	tradeStore   TradeStore
	fundStore    FundStore
	fundActivity FundActivitySource
	alertLog     AlertLog
	snapshots    SnapshotStore
	runs         RunLog
	quotes       QuoteClient
	bus          *events.Bus
	detectorCfg  signals.Config
	thresholds   config.DetectorThresholds
	log          zerolog.Logger
	now          func() time.Time
}

// NewAnalysisService creates the analysis orchestrator
func NewAnalysisService(
	tradeStore TradeStore,
	fundStore FundStore,
	fundActivity FundActivitySource,
	alertLog AlertLog,
	snapshots SnapshotStore,
	runs RunLog,
	quotes QuoteClient,
	bus *events.Bus,
	cfg *config.Config,
	log zerolog.Logger,
) *AnalysisService {
	return &AnalysisService{
		tradeStore:   tradeStore,
		fundStore:    fundStore,
		fundActivity: fundActivity,
		alertLog:     alertLog,
		snapshots:    snapshots,
		runs:         runs,
		quotes:       quotes,
		bus:          bus,
		detectorCfg:  signals.NewConfig(cfg.Detectors, cfg.HighConvictionActorIDs),
		thresholds:   cfg.Detectors,
		log:          log.With().Str("service", "analysis").Logger(),
		now:          time.Now,
	}
}

// Run executes one full analysis pass.
func (s *AnalysisService) Run(trigger string) (*Summary, error) {
	started := s.now()

	runID, err := s.runs.Start(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	s.bus.Publish(events.RunStarted, "analysis", map[string]string{"run_id": runID, "trigger": trigger})
	s.log.Info().Str("run_id", runID).Str("trigger", trigger).Msg("Analysis run started")

	summary, err := s.execute(runID, trigger)
	if err != nil {
		_ = s.runs.Fail(runID, err)
		s.bus.Publish(events.RunFailed, "analysis", map[string]string{"run_id": runID, "error": err.Error()})
		return nil, err
	}

	summary.Duration = s.now().Sub(started).Round(time.Millisecond).String()
	if err := s.runs.Finish(runID, summary.TradesScanned, summary.AlertsEmitted, summary.AlertsSuppressed); err != nil {
		return nil, err
	}
	s.bus.Publish(events.RunCompleted, "analysis", summary)

	s.log.Info().
		Str("run_id", runID).
		Int("trades", summary.TradesScanned).
		Int("emitted", summary.AlertsEmitted).
		Int("suppressed", summary.AlertsSuppressed).
		Str("duration", summary.Duration).
		Msg("Analysis run completed")

	return summary, nil
}

func (s *AnalysisService) execute(runID, trigger string) (*Summary, error) {
	summary := &Summary{RunID: runID, Trigger: trigger, NewAlerts: []alerts.Alert{}}

	clusterCutoff := s.now().AddDate(0, 0, -s.thresholds.ClusterWindowDays)
	trinityCutoff := s.now().AddDate(0, 0, -s.thresholds.TrinityWindowDays)

	tickers, err := s.tradeStore.GetActiveTickersSince(clusterCutoff)
	if err != nil {
		return nil, err
	}
	summary.TickersScanned = len(tickers)

	recentByTicker := make(map[string][]domain.TradeRecord, len(tickers))
	var recent []domain.TradeRecord
	for _, ticker := range tickers {
		trades, err := s.tradeStore.GetByTickerSince(ticker, clusterCutoff)
		if err != nil {
			return nil, err
		}
		recentByTicker[ticker] = trades
		recent = append(recent, trades...)
	}
	summary.TradesScanned = len(recent)

	// Run-scoped price cache. Never survives the run.
	prices := NewPriceService(s.quotes, s.log)

	if err := s.computePnL(prices, summary); err != nil {
		return nil, err
	}

	detected, err := s.runDetectors(recent)
	if err != nil {
		return nil, err
	}

	correlated, err := s.runCorrelator(recentByTicker, trinityCutoff)
	if err != nil {
		return nil, err
	}
	detected = append(detected, correlated...)

	if s.fundActivity != nil {
		changes, err := s.fundActivity.RecentActivity()
		if err != nil {
			return nil, err
		}
		summary.FundChanges = changes
	}

	if err := s.emit(detected, summary); err != nil {
		return nil, err
	}

	return summary, nil
}

// computePnL replays every legislator's trade history into positions and
// persists a fresh snapshot set.
func (s *AnalysisService) computePnL(prices *PriceService, summary *Summary) error {
	actorIDs, err := s.tradeStore.GetLegislatorActorIDs()
	if err != nil {
		return err
	}

	var history []domain.TradeRecord
	for _, actorID := range actorIDs {
		trades, err := s.tradeStore.GetByActor(actorID)
		if err != nil {
			return err
		}
		history = append(history, trades...)
	}

	builder := ledger.NewBuilder(prices, s.log)
	positions := builder.Build(history)

	calculator := pnl.NewCalculator(prices, s.log)
	results := calculator.Calculate(positions)
	summary.PnLRows = len(results)

	if err := s.snapshots.SaveSnapshots(results, s.now()); err != nil {
		return err
	}

	s.bus.Publish(events.PnLUpdated, "pnl", map[string]int{"rows": len(results)})
	return nil
}

func (s *AnalysisService) runDetectors(recent []domain.TradeRecord) ([]alerts.Alert, error) {
	var out []alerts.Alert

	out = append(out, signals.DetectClusterBuys(recent, s.detectorCfg)...)
	out = append(out, signals.DetectBearishClusterSells(recent, s.detectorCfg)...)
	out = append(out, signals.DetectHighConvictionBuys(recent, s.detectorCfg)...)
	out = append(out, signals.DetectCEOCFOBuys(recent, s.detectorCfg)...)
	out = append(out, signals.DetectLargeSingleBuys(recent, s.detectorCfg)...)

	firstBuys, err := signals.DetectFirstBuys(recent, s.detectorCfg, s.tradeStore.HasBuyInWindow)
	if err != nil {
		return nil, err
	}
	out = append(out, firstBuys...)

	return out, nil
}

func (s *AnalysisService) runCorrelator(recentByTicker map[string][]domain.TradeRecord, trinityCutoff time.Time) ([]alerts.Alert, error) {
	var out []alerts.Alert

	for ticker, trades := range recentByTicker {
		windowed := make([]domain.TradeRecord, 0, len(trades))
		for _, t := range trades {
			if !t.TradeDate.Before(trinityCutoff) {
				windowed = append(windowed, t)
			}
		}
		if len(windowed) == 0 {
			continue
		}

		holders, err := s.fundStore.GetHolders(ticker)
		if err != nil {
			return nil, err
		}
		snapshotDates, err := s.fundStore.GetSnapshotDates(ticker)
		if err != nil {
			return nil, err
		}

		ev := convergence.Evidence{
			Ticker:      ticker,
			Trades:      windowed,
			FundHolders: holders,
		}

		if a := convergence.DetectTrinity(ev, s.detectorCfg.IsHighConviction); a != nil {
			out = append(out, *a)
		}
		if a := convergence.ScoreTemporal(ev, snapshotDates); a != nil {
			out = append(out, *a)
		}
	}

	return out, nil
}

// emit deduplicates alerts against the sent log and publishes the new ones.
func (s *AnalysisService) emit(detected []alerts.Alert, summary *Summary) error {
	for i := range detected {
		alert := detected[i]

		sent, err := s.alertLog.WasSent(alert.ID)
		if err != nil {
			return err
		}
		if sent {
			summary.AlertsSuppressed++
			continue
		}

		if err := s.alertLog.MarkSent(&alert); err != nil {
			return err
		}
		summary.AlertsEmitted++
		summary.NewAlerts = append(summary.NewAlerts, alert)
		s.bus.Publish(events.AlertEmitted, "signals", alert)

		s.log.Info().
			Str("alert_id", alert.ID).
			Str("signal", alert.SignalType).
			Str("ticker", alert.Ticker).
			Float64("score", alert.Score).
			Msg("Alert emitted")
	}

	return nil
}
