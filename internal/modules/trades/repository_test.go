package trades

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/conviction/internal/database"
	"github.com/aristath/conviction/internal/domain"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn())
}

func sampleTrade() domain.TradeRecord {
	price := 150.0
	disclosed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return domain.TradeRecord{
		ActorType:      domain.ActorLegislator,
		ActorID:        "leg-a",
		ActorName:      "A. Legislator",
		Party:          domain.PartyDemocrat,
		Chamber:        "House",
		State:          "CA",
		Ticker:         "NVDA",
		CompanyName:    "NVIDIA Corp",
		Direction:      domain.DirectionBuy,
		SizeRangeText:  "50K-100K",
		ExactPrice:     &price,
		TradeDate:      time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		DisclosureDate: &disclosed,
	}
}

func TestInsertDeduplicates(t *testing.T) {
	repo := testRepo(t)

	trade := sampleTrade()
	inserted, err := repo.Insert(&trade)
	require.NoError(t, err)
	assert.True(t, inserted)

	again, err := repo.Insert(&trade)
	require.NoError(t, err)
	assert.False(t, again)

	count, err := repo.CountSince(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertRoundTrip(t *testing.T) {
	repo := testRepo(t)

	trade := sampleTrade()
	_, err := repo.Insert(&trade)
	require.NoError(t, err)

	got, err := repo.GetByActor("leg-a")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.ActorLegislator, got[0].ActorType)
	assert.Equal(t, "NVDA", got[0].Ticker)
	assert.Equal(t, "50K-100K", got[0].SizeRangeText)
	require.NotNil(t, got[0].ExactPrice)
	assert.Equal(t, 150.0, *got[0].ExactPrice)
	assert.Nil(t, got[0].ExactValue)
	require.NotNil(t, got[0].DisclosureDate)
	assert.Equal(t, "2026-02-01", got[0].DisclosureDate.Format("2006-01-02"))
	assert.Equal(t, "2026-01-15", got[0].TradeDate.Format("2006-01-02"))
}

func TestGetByTickerSinceCutoff(t *testing.T) {
	repo := testRepo(t)

	old := sampleTrade()
	old.TradeDate = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	old.DisclosureDate = nil
	recent := sampleTrade()
	recent.ActorID = "leg-b"

	for _, tr := range []domain.TradeRecord{old, recent} {
		_, err := repo.Insert(&tr)
		require.NoError(t, err)
	}

	got, err := repo.GetByTickerSince("NVDA", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "leg-b", got[0].ActorID)

	tickers, err := repo.GetActiveTickersSince(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA"}, tickers)
}

func TestHasBuyInWindowBoundaries(t *testing.T) {
	repo := testRepo(t)

	trade := sampleTrade()
	_, err := repo.Insert(&trade)
	require.NoError(t, err)

	tradeDay := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	// Window including the trade date
	has, err := repo.HasBuyInWindow("leg-a", "NVDA", tradeDay, tradeDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, has)

	// Window ending on the trade date (exclusive upper bound)
	has, err = repo.HasBuyInWindow("leg-a", "NVDA", tradeDay.AddDate(-1, 0, 0), tradeDay)
	require.NoError(t, err)
	assert.False(t, has)

	// Different ticker
	has, err = repo.HasBuyInWindow("leg-a", "AAPL", tradeDay, tradeDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestGetLegislatorActorIDs(t *testing.T) {
	repo := testRepo(t)

	leg := sampleTrade()
	insider := sampleTrade()
	insider.ActorType = domain.ActorInsider
	insider.ActorID = "ins-a"
	insider.Party = ""
	insider.Chamber = ""
	insider.State = ""
	insider.Title = "CEO"

	for _, tr := range []domain.TradeRecord{leg, insider} {
		_, err := repo.Insert(&tr)
		require.NoError(t, err)
	}

	ids, err := repo.GetLegislatorActorIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"leg-a"}, ids)
}
