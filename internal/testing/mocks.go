// Package testing provides mock implementations of the service-layer
// interfaces for use in unit tests.
package testing

import (
	"sync"
	"time"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/modules/alerts"
	"github.com/aristath/conviction/internal/modules/funds"
	"github.com/aristath/conviction/internal/modules/pnl"
	"github.com/aristath/conviction/internal/services"
)

// MockTradeStore is a mock implementation of services.TradeStore.
type MockTradeStore struct {
	mu       sync.Mutex
	byTicker map[string][]domain.TradeRecord
	byActor  map[string][]domain.TradeRecord
	err      error
}

var _ services.TradeStore = (*MockTradeStore)(nil)

// NewMockTradeStore creates a new mock trade store
func NewMockTradeStore() *MockTradeStore {
	return &MockTradeStore{
		byTicker: make(map[string][]domain.TradeRecord),
		byActor:  make(map[string][]domain.TradeRecord),
	}
}

// AddTrade registers a trade in the mock's indexes.
func (m *MockTradeStore) AddTrade(t domain.TradeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byTicker[t.Ticker] = append(m.byTicker[t.Ticker], t)
	m.byActor[t.ActorID] = append(m.byActor[t.ActorID], t)
}

// SetError makes every method return the given error.
func (m *MockTradeStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetActiveTickersSince returns tickers with trades on or after the cutoff.
func (m *MockTradeStore) GetActiveTickersSince(since time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var tickers []string
	for ticker, trades := range m.byTicker {
		for _, t := range trades {
			if !t.TradeDate.Before(since) {
				tickers = append(tickers, ticker)
				break
			}
		}
	}
	return tickers, nil
}

// GetByTickerSince returns the ticker's trades on or after the cutoff.
func (m *MockTradeStore) GetByTickerSince(ticker string, since time.Time) ([]domain.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var out []domain.TradeRecord
	for _, t := range m.byTicker[ticker] {
		if !t.TradeDate.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetByActor returns the actor's full history.
func (m *MockTradeStore) GetByActor(actorID string) ([]domain.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.TradeRecord{}, m.byActor[actorID]...), nil
}

// GetLegislatorActorIDs returns distinct legislator actor IDs.
func (m *MockTradeStore) GetLegislatorActorIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	var ids []string
	for actorID, trades := range m.byActor {
		if len(trades) > 0 && trades[0].ActorType == domain.ActorLegislator {
			ids = append(ids, actorID)
		}
	}
	return ids, nil
}

// HasBuyInWindow reports whether the actor bought the ticker in [from, to).
func (m *MockTradeStore) HasBuyInWindow(actorID, ticker string, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}

	for _, t := range m.byActor[actorID] {
		if t.Ticker == ticker && t.IsBuy() &&
			!t.TradeDate.Before(from) && t.TradeDate.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

// CountSince counts trades on or after the cutoff.
func (m *MockTradeStore) CountSince(since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}

	count := 0
	for _, trades := range m.byTicker {
		for _, t := range trades {
			if !t.TradeDate.Before(since) {
				count++
			}
		}
	}
	return count, nil
}

// MockFundStore is a mock implementation of services.FundStore.
type MockFundStore struct {
	mu            sync.Mutex
	holders       map[string][]string
	snapshotDates map[string][]time.Time
	err           error
}

var _ services.FundStore = (*MockFundStore)(nil)

// NewMockFundStore creates a new mock fund store
func NewMockFundStore() *MockFundStore {
	return &MockFundStore{
		holders:       make(map[string][]string),
		snapshotDates: make(map[string][]time.Time),
	}
}

// SetHolders sets the fund holders for a ticker.
func (m *MockFundStore) SetHolders(ticker string, holders []string, dates []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[ticker] = holders
	m.snapshotDates[ticker] = dates
}

// SetError makes every method return the given error.
func (m *MockFundStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetHolders returns the fund holders for a ticker.
func (m *MockFundStore) GetHolders(ticker string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.holders[ticker], nil
}

// GetSnapshotDates returns the quarter end dates for a ticker.
func (m *MockFundStore) GetSnapshotDates(ticker string) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshotDates[ticker], nil
}

// MockFundActivity is a mock implementation of services.FundActivitySource.
type MockFundActivity struct {
	mu      sync.Mutex
	changes []funds.Change
	err     error
}

var _ services.FundActivitySource = (*MockFundActivity)(nil)

// NewMockFundActivity creates a new mock fund activity source
func NewMockFundActivity() *MockFundActivity {
	return &MockFundActivity{}
}

// SetChanges sets the changes to return.
func (m *MockFundActivity) SetChanges(changes []funds.Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = changes
}

// RecentActivity returns the configured changes.
func (m *MockFundActivity) RecentActivity() ([]funds.Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changes, m.err
}

// MockAlertLog is a mock implementation of services.AlertLog.
type MockAlertLog struct {
	mu   sync.Mutex
	sent map[string]*alerts.Alert
	err  error
}

var _ services.AlertLog = (*MockAlertLog)(nil)

// NewMockAlertLog creates a new mock alert log
func NewMockAlertLog() *MockAlertLog {
	return &MockAlertLog{sent: make(map[string]*alerts.Alert)}
}

// SetError makes every method return the given error.
func (m *MockAlertLog) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// WasSent reports whether an alert ID is in the log.
func (m *MockAlertLog) WasSent(alertID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.sent[alertID]
	return ok, nil
}

// MarkSent records an alert.
func (m *MockAlertLog) MarkSent(alert *alerts.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent[alert.ID] = alert
	return nil
}

// SentCount returns the number of recorded alerts.
func (m *MockAlertLog) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// MockSnapshotStore is a mock implementation of services.SnapshotStore.
type MockSnapshotStore struct {
	mu      sync.Mutex
	results []pnl.Result
	err     error
}

var _ services.SnapshotStore = (*MockSnapshotStore)(nil)

// NewMockSnapshotStore creates a new mock snapshot store
func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{}
}

// SetError makes SaveSnapshots return the given error.
func (m *MockSnapshotStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SaveSnapshots stores the results in memory.
func (m *MockSnapshotStore) SaveSnapshots(results []pnl.Result, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results = results
	return nil
}

// Saved returns the last saved results.
func (m *MockSnapshotStore) Saved() []pnl.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results
}

// MockRunLog is a mock implementation of services.RunLog.
type MockRunLog struct {
	mu       sync.Mutex
	started  int
	finished int
	failed   int
	err      error
}

var _ services.RunLog = (*MockRunLog)(nil)

// NewMockRunLog creates a new mock run log
func NewMockRunLog() *MockRunLog {
	return &MockRunLog{}
}

// Start records a run start.
func (m *MockRunLog) Start(string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.started++
	return "run-1", nil
}

// Finish records a run finish.
func (m *MockRunLog) Finish(string, int, int, int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished++
	return nil
}

// Fail records a run failure.
func (m *MockRunLog) Fail(string, error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
	return nil
}

// Counts returns (started, finished, failed).
func (m *MockRunLog) Counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.finished, m.failed
}

// MockQuoteClient is a mock implementation of services.QuoteClient.
type MockQuoteClient struct {
	mu      sync.Mutex
	current map[string]float64
	closes  map[string]float64
	err     error
}

var _ services.QuoteClient = (*MockQuoteClient)(nil)

// NewMockQuoteClient creates a new mock quote client
func NewMockQuoteClient() *MockQuoteClient {
	return &MockQuoteClient{
		current: make(map[string]float64),
		closes:  make(map[string]float64),
	}
}

// SetPrice sets both the current price and every historical close for a ticker.
func (m *MockQuoteClient) SetPrice(ticker string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[ticker] = price
	m.closes[ticker] = price
}

// SetError makes every method return the given error.
func (m *MockQuoteClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CurrentPrice returns the configured price.
func (m *MockQuoteClient) CurrentPrice(ticker string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	price, ok := m.current[ticker]
	if !ok {
		return 0, errNoPrice(ticker)
	}
	return price, nil
}

// CloseOn returns the configured close.
func (m *MockQuoteClient) CloseOn(ticker string, _ time.Time) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	price, ok := m.closes[ticker]
	if !ok {
		return 0, errNoPrice(ticker)
	}
	return price, nil
}

type errNoPrice string

func (e errNoPrice) Error() string { return "no price configured for " + string(e) }
