// Package quotes wraps the upstream market-data API behind rate limiting.
// One client instance serializes all upstream requests for the process.
package quotes

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Bar is one daily price bar.
type Bar struct {
	Date  time.Time
	Close decimal.Decimal
}

// Client fetches quotes with an enforced minimum inter-request interval and
// an extended backoff when the upstream signals rate limiting.
type Client struct {
	minInterval time.Duration
	backoff     time.Duration
	log         zerolog.Logger

	mu          sync.Mutex
	lastRequest time.Time
	blockedTill time.Time

	// Injectable for tests; default to the live API.
	fetchQuote   func(ticker string) (float64, error)
	fetchHistory func(ticker string, start, end time.Time) ([]Bar, error)
}

// New creates a rate-limited quote client
func New(minInterval, backoff time.Duration, log zerolog.Logger) *Client {
	return &Client{
		minInterval:  minInterval,
		backoff:      backoff,
		log:          log.With().Str("client", "quotes").Logger(),
		fetchQuote:   liveQuote,
		fetchHistory: liveHistory,
	}
}

// CurrentPrice returns the latest market price for the ticker.
func (c *Client) CurrentPrice(ticker string) (float64, error) {
	c.waitTurn()

	price, err := c.fetchQuote(ticker)
	if err != nil {
		c.noteError(err)
		return 0, fmt.Errorf("quote lookup failed for %s: %w", ticker, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("quote for %s returned no price", ticker)
	}

	return price, nil
}

// CloseOn returns the daily close for the ticker on the given date, falling
// back to the most recent close within the preceding week (weekends and
// market holidays have no bar of their own).
func (c *Client) CloseOn(ticker string, date time.Time) (float64, error) {
	c.waitTurn()

	start := date.AddDate(0, 0, -7)
	end := date.AddDate(0, 0, 1)

	bars, err := c.fetchHistory(ticker, start, end)
	if err != nil {
		c.noteError(err)
		return 0, fmt.Errorf("history lookup failed for %s: %w", ticker, err)
	}

	var best *Bar
	for i := range bars {
		b := &bars[i]
		if b.Date.After(date) {
			continue
		}
		if best == nil || b.Date.After(best.Date) {
			best = b
		}
	}
	if best == nil {
		return 0, fmt.Errorf("no close found for %s on or before %s", ticker, date.Format("2006-01-02"))
	}

	price := best.Close.InexactFloat64()
	if price <= 0 {
		return 0, fmt.Errorf("close for %s on %s is not positive", ticker, best.Date.Format("2006-01-02"))
	}

	return price, nil
}

// waitTurn blocks until the rate limiter allows the next upstream request.
func (c *Client) waitTurn() {
	c.mu.Lock()
	now := time.Now()

	wait := time.Duration(0)
	if c.blockedTill.After(now) {
		wait = c.blockedTill.Sub(now)
	}
	if sinceLast := now.Add(wait).Sub(c.lastRequest); sinceLast < c.minInterval {
		wait += c.minInterval - sinceLast
	}

	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// noteError extends the backoff window when the upstream is rate-limiting.
func (c *Client) noteError(err error) {
	if !isRateLimited(err) {
		return
	}

	c.mu.Lock()
	c.blockedTill = time.Now().Add(c.backoff)
	c.mu.Unlock()

	c.log.Warn().
		Dur("backoff", c.backoff).
		Msg("Upstream rate limit hit, backing off")
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func liveQuote(ticker string) (float64, error) {
	q, err := quote.Get(ticker)
	if err != nil {
		return 0, err
	}
	if q == nil {
		return 0, fmt.Errorf("no quote returned for %s", ticker)
	}
	return q.RegularMarketPrice, nil
}

func liveHistory(ticker string, start, end time.Time) ([]Bar, error) {
	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, Bar{
			Date:  time.Unix(int64(b.Timestamp), 0).UTC(),
			Close: b.Close,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return bars, nil
}
