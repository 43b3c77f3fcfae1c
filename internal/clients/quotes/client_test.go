package quotes

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubClient() *Client {
	return New(0, time.Minute, zerolog.Nop())
}

func TestCurrentPrice(t *testing.T) {
	c := newStubClient()
	c.fetchQuote = func(ticker string) (float64, error) {
		assert.Equal(t, "NVDA", ticker)
		return 123.45, nil
	}

	price, err := c.CurrentPrice("NVDA")
	require.NoError(t, err)
	assert.Equal(t, 123.45, price)
}

func TestCurrentPrice_ZeroPriceIsError(t *testing.T) {
	c := newStubClient()
	c.fetchQuote = func(string) (float64, error) { return 0, nil }

	_, err := c.CurrentPrice("NVDA")
	assert.Error(t, err)
}

func TestCloseOn_PicksLatestOnOrBefore(t *testing.T) {
	c := newStubClient()

	target := time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC) // a Sunday
	c.fetchHistory = func(ticker string, start, end time.Time) ([]Bar, error) {
		return []Bar{
			{Date: time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromFloat(98)},
			{Date: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromFloat(101)},
			{Date: time.Date(2026, 4, 13, 0, 0, 0, 0, time.UTC), Close: decimal.NewFromFloat(105)},
		}, nil
	}

	price, err := c.CloseOn("NVDA", target)
	require.NoError(t, err)
	// Friday's close; Monday's bar is after the target date.
	assert.Equal(t, 101.0, price)
}

func TestCloseOn_NoBarsIsError(t *testing.T) {
	c := newStubClient()
	c.fetchHistory = func(string, time.Time, time.Time) ([]Bar, error) { return nil, nil }

	_, err := c.CloseOn("NVDA", time.Now())
	assert.Error(t, err)
}

func TestRateLimitBackoff(t *testing.T) {
	c := New(0, 50*time.Millisecond, zerolog.Nop())
	c.fetchQuote = func(string) (float64, error) {
		return 0, fmt.Errorf("HTTP 429 Too Many Requests")
	}

	start := time.Now()
	_, err := c.CurrentPrice("NVDA")
	require.Error(t, err)

	// Next call must wait out the backoff window.
	c.fetchQuote = func(string) (float64, error) { return 100, nil }
	_, err = c.CurrentPrice("NVDA")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestMinIntervalEnforced(t *testing.T) {
	c := New(30*time.Millisecond, time.Minute, zerolog.Nop())
	c.fetchQuote = func(string) (float64, error) { return 100, nil }

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.CurrentPrice("NVDA")
		require.NoError(t, err)
	}

	// Three requests need at least two full intervals between them.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(fmt.Errorf("got 429")))
	assert.True(t, isRateLimited(fmt.Errorf("Too Many Requests")))
	assert.False(t, isRateLimited(fmt.Errorf("connection refused")))
}
