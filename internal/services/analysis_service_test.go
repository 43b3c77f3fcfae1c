package services_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/conviction/internal/config"
	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/events"
	"github.com/aristath/conviction/internal/modules/alerts"
	"github.com/aristath/conviction/internal/services"
	mocks "github.com/aristath/conviction/internal/testing"
)

func testAppConfig() *config.Config {
	return &config.Config{
		HighConvictionActorIDs: []string{"leg-pelosi"},
		Detectors: config.DetectorThresholds{
			ClusterWindowDays:        30,
			LegislatorMinClusterSize: 2,
			InsiderMinClusterSize:    3,
			MinClusterValue:          100_000,
			SellMinClusterSize:       4,
			SellMinClusterValue:      500_000,
			ExecutiveBuyMinValue:     50_000,
			LargeSingleBuyMinValue:   250_000,
			FirstBuyMinValue:         25_000,
			TrinityWindowDays:        30,
		},
	}
}

type fixture struct {
	tradeStore *mocks.MockTradeStore
	fundStore  *mocks.MockFundStore
	alertLog   *mocks.MockAlertLog
	snapshots  *mocks.MockSnapshotStore
	runLog     *mocks.MockRunLog
	quotes     *mocks.MockQuoteClient
	bus        *events.Bus
	svc        *services.AnalysisService
}

func newFixture() *fixture {
	f := &fixture{
		tradeStore: mocks.NewMockTradeStore(),
		fundStore:  mocks.NewMockFundStore(),
		alertLog:   mocks.NewMockAlertLog(),
		snapshots:  mocks.NewMockSnapshotStore(),
		runLog:     mocks.NewMockRunLog(),
		quotes:     mocks.NewMockQuoteClient(),
		bus:        events.NewBus(),
	}
	f.svc = services.NewAnalysisService(
		f.tradeStore, f.fundStore, mocks.NewMockFundActivity(),
		f.alertLog, f.snapshots, f.runLog,
		f.quotes, f.bus, testAppConfig(), zerolog.Nop())
	return f
}

func recentBuy(actorType domain.ActorType, actorID, ticker, sizeRange string, daysAgo int) domain.TradeRecord {
	return domain.TradeRecord{
		ActorType:     actorType,
		ActorID:       actorID,
		ActorName:     actorID,
		Ticker:        ticker,
		Direction:     domain.DirectionBuy,
		SizeRangeText: sizeRange,
		TradeDate:     time.Now().AddDate(0, 0, -daysAgo),
	}
}

func TestRun_EmptyLog(t *testing.T) {
	f := newFixture()

	summary, err := f.svc.Run(services.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TradesScanned)
	assert.Equal(t, 0, summary.AlertsEmitted)

	started, finished, failed := f.runLog.Counts()
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
	assert.Equal(t, 0, failed)
}

func TestRun_ClusterAlertEmittedOnce(t *testing.T) {
	f := newFixture()
	f.quotes.SetPrice("NVDA", 100)

	f.tradeStore.AddTrade(recentBuy(domain.ActorLegislator, "leg-a", "NVDA", "50K-100K", 5))
	f.tradeStore.AddTrade(recentBuy(domain.ActorLegislator, "leg-b", "NVDA", "50K-100K", 3))

	summary, err := f.svc.Run(services.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TradesScanned)
	require.NotEmpty(t, summary.NewAlerts)

	hasCluster := false
	for _, a := range summary.NewAlerts {
		if a.SignalType == alerts.SignalClusterBuy {
			hasCluster = true
		}
	}
	assert.True(t, hasCluster)

	// Second run over the same log: identical evidence, identical alert
	// IDs, everything suppressed.
	again, err := f.svc.Run(services.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, 0, again.AlertsEmitted)
	assert.Equal(t, summary.AlertsEmitted, again.AlertsSuppressed)
}

func TestRun_PnLSnapshotsSaved(t *testing.T) {
	f := newFixture()
	f.quotes.SetPrice("NVDA", 130)

	f.tradeStore.AddTrade(recentBuy(domain.ActorLegislator, "leg-a", "NVDA", "50K-100K", 10))

	summary, err := f.svc.Run(services.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PnLRows)

	saved := f.snapshots.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "leg-a", saved[0].ActorID)
	assert.Equal(t, 130.0, saved[0].CurrentPrice)
}

func TestRun_TrinityAcrossSources(t *testing.T) {
	f := newFixture()
	f.quotes.SetPrice("NVDA", 100)

	f.tradeStore.AddTrade(recentBuy(domain.ActorLegislator, "leg-pelosi", "NVDA", "1M-5M", 20))
	f.tradeStore.AddTrade(recentBuy(domain.ActorInsider, "ins-a", "NVDA", "50K-100K", 10))
	f.fundStore.SetHolders("NVDA", []string{"Berkshire Hathaway"},
		[]time.Time{time.Now().AddDate(0, 0, -5)})

	summary, err := f.svc.Run(services.TriggerManual)
	require.NoError(t, err)

	var trinity, temporal bool
	for _, a := range summary.NewAlerts {
		switch a.SignalType {
		case alerts.SignalTrinity:
			trinity = true
		case alerts.SignalTemporalConvergence:
			temporal = true
			assert.GreaterOrEqual(t, a.Score, 5.0)
		}
	}
	assert.True(t, trinity)
	assert.True(t, temporal)
}

func TestRun_FailureRecorded(t *testing.T) {
	f := newFixture()
	f.tradeStore.SetError(assert.AnError)

	_, err := f.svc.Run(services.TriggerManual)
	require.Error(t, err)

	_, finished, failed := f.runLog.Counts()
	assert.Equal(t, 0, finished)
	assert.Equal(t, 1, failed)
}

func TestRun_AlertEventsPublished(t *testing.T) {
	f := newFixture()
	f.quotes.SetPrice("NVDA", 100)
	f.tradeStore.AddTrade(recentBuy(domain.ActorLegislator, "leg-pelosi", "NVDA", "1M-5M", 2))

	var published int
	f.bus.Subscribe(events.AlertEmitted, func(*events.Event) { published++ })

	summary, err := f.svc.Run(services.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, summary.AlertsEmitted, published)
	assert.Greater(t, published, 0)
}
