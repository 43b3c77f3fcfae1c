package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrade() TradeRecord {
	return TradeRecord{
		ActorType: ActorLegislator,
		ActorID:   "leg-pelosi",
		ActorName: "Nancy Pelosi",
		Party:     PartyDemocrat,
		Ticker:    "NVDA",
		Direction: DirectionBuy,
		TradeDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestTradeRecordValidate(t *testing.T) {
	trade := validTrade()
	require.NoError(t, trade.Validate())

	noTicker := validTrade()
	noTicker.Ticker = " "
	assert.Error(t, noTicker.Validate())

	badDirection := validTrade()
	badDirection.Direction = "HOLD"
	assert.Error(t, badDirection.Validate())

	badActor := validTrade()
	badActor.ActorType = "robot"
	assert.Error(t, badActor.Validate())
}

func TestTradeRecordValidate_DisclosureBeforeTrade(t *testing.T) {
	trade := validTrade()
	early := trade.TradeDate.AddDate(0, 0, -3)
	trade.DisclosureDate = &early
	assert.Error(t, trade.Validate())

	// Disclosure on the trade date itself is allowed.
	same := trade.TradeDate
	trade.DisclosureDate = &same
	assert.NoError(t, trade.Validate())
}

func TestNotionalValue_ExactWins(t *testing.T) {
	trade := validTrade()
	exact := 42000.0
	trade.ExactValue = &exact
	trade.SizeRangeText = "15K-50K"

	val, ok := trade.NotionalValue()
	require.True(t, ok)
	assert.Equal(t, 42000.0, val)
}

func TestNotionalValue_RangeMidpoint(t *testing.T) {
	trade := validTrade()
	trade.SizeRangeText = "15K-50K"

	val, ok := trade.NotionalValue()
	require.True(t, ok)
	assert.Equal(t, 32500.0, val)
}

func TestNotionalValue_Unresolvable(t *testing.T) {
	trade := validTrade()
	trade.SizeRangeText = "abc"

	_, ok := trade.NotionalValue()
	assert.False(t, ok)
}

func TestNormalizeParty(t *testing.T) {
	assert.Equal(t, PartyDemocrat, NormalizeParty("D"))
	assert.Equal(t, PartyDemocrat, NormalizeParty("democratic"))
	assert.Equal(t, PartyRepublican, NormalizeParty("R"))
	assert.Equal(t, PartyRepublican, NormalizeParty("Republican"))
	assert.Equal(t, "Independent", NormalizeParty(" Independent "))
}
