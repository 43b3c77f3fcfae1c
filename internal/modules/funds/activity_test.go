package funds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/conviction/internal/domain"
)

func holding(ticker string, shares float64, quarter string) domain.FundHolding {
	return domain.FundHolding{
		ManagerID:   "fund-berkshire",
		ManagerName: "Berkshire Hathaway",
		Ticker:      ticker,
		Shares:      shares,
		Quarter:     quarter,
	}
}

func TestClassifyQuarter_NewPosition(t *testing.T) {
	current := []domain.FundHolding{holding("OXY", 1000, "2026Q1")}
	previous := []domain.FundHolding{holding("AAPL", 500, "2025Q4")}

	changes := ClassifyQuarter(current, previous)
	require.Len(t, changes, 1)
	assert.Equal(t, ActivityBuy, changes[0].Activity)
	assert.Equal(t, "OXY", changes[0].Ticker)
}

func TestClassifyQuarter_Add(t *testing.T) {
	current := []domain.FundHolding{holding("AAPL", 1500, "2026Q1")}
	previous := []domain.FundHolding{holding("AAPL", 1000, "2025Q4")}

	changes := ClassifyQuarter(current, previous)
	require.Len(t, changes, 1)
	assert.Equal(t, ActivityAdd, changes[0].Activity)
	assert.Equal(t, 1000.0, changes[0].PrevShares)
}

func TestClassifyQuarter_BelowAddThreshold(t *testing.T) {
	// 49% growth is rebalancing noise, not accumulation.
	current := []domain.FundHolding{holding("AAPL", 1490, "2026Q1")}
	previous := []domain.FundHolding{holding("AAPL", 1000, "2025Q4")}

	assert.Empty(t, ClassifyQuarter(current, previous))
}

func TestClassifyQuarter_TrimAndExitIgnored(t *testing.T) {
	current := []domain.FundHolding{holding("AAPL", 400, "2026Q1")}
	previous := []domain.FundHolding{
		holding("AAPL", 1000, "2025Q4"),
		holding("TSLA", 200, "2025Q4"),
	}

	assert.Empty(t, ClassifyQuarter(current, previous))
}

func TestConsecutiveQuarters(t *testing.T) {
	q4 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	q1 := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	q3 := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)

	assert.True(t, ConsecutiveQuarters(q4, q1))
	assert.True(t, ConsecutiveQuarters(q3, q4))

	// Skipped quarter: Q3 -> Q1 spans two quarters.
	assert.False(t, ConsecutiveQuarters(q3, q1))

	// Reversed order is never consecutive.
	assert.False(t, ConsecutiveQuarters(q1, q4))
}
