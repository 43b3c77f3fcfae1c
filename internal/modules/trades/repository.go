// Package trades stores and serves the normalized trade disclosure log.
package trades

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/conviction/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository handles trade persistence in the ledger database.
// The trades table is append-only; inserts that collide with an already
// recorded disclosure are silently skipped.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new trade repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert records a trade disclosure. Returns true if the row was newly
// inserted, false if an identical disclosure was already on file.
func (r *Repository) Insert(trade *domain.TradeRecord) (bool, error) {
	var disclosure interface{}
	if trade.DisclosureDate != nil {
		disclosure = trade.DisclosureDate.Format(dateLayout)
	}

	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO trades
			(actor_type, actor_id, actor_name, party, chamber, state,
			 ticker, company_name, direction, size_range, exact_value, exact_price,
			 trade_date, disclosure_date, title, owner_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ActorType, trade.ActorID, trade.ActorName, trade.Party, trade.Chamber,
		trade.State, trade.Ticker, trade.CompanyName, trade.Direction, trade.SizeRangeText,
		trade.ExactValue, trade.ExactPrice, trade.TradeDate.Format(dateLayout),
		disclosure, trade.Title, trade.OwnerType)
	if err != nil {
		return false, fmt.Errorf("failed to insert trade: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}

	return rows > 0, nil
}

// GetByTickerSince returns all trades for a ticker with trade_date on or
// after the cutoff, ordered oldest first.
func (r *Repository) GetByTickerSince(ticker string, since time.Time) ([]domain.TradeRecord, error) {
	rows, err := r.db.Query(selectColumns+`
		FROM trades
		WHERE ticker = ? AND trade_date >= ?
		ORDER BY trade_date ASC, id ASC`,
		ticker, since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByActor returns the full trade history of one actor, oldest first.
// Used by the position ledger, which replays trades chronologically.
func (r *Repository) GetByActor(actorID string) ([]domain.TradeRecord, error) {
	rows, err := r.db.Query(selectColumns+`
		FROM trades
		WHERE actor_id = ?
		ORDER BY trade_date ASC, id ASC`,
		actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for actor %s: %w", actorID, err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetActiveTickersSince returns the distinct tickers with at least one trade
// on or after the cutoff. This is the candidate set for a detection run.
func (r *Repository) GetActiveTickersSince(since time.Time) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ticker FROM trades
		WHERE trade_date >= ?
		ORDER BY ticker`,
		since.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query active tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

// GetLegislatorActorIDs returns the distinct actor IDs of all legislators
// present in the trade log.
func (r *Repository) GetLegislatorActorIDs() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT actor_id FROM trades
		WHERE actor_type = ?
		ORDER BY actor_id`,
		domain.ActorLegislator)
	if err != nil {
		return nil, fmt.Errorf("failed to query legislator actors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan actor id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// HasBuyInWindow reports whether the actor recorded any BUY of the ticker
// with trade_date in [from, to).
func (r *Repository) HasBuyInWindow(actorID, ticker string, from, to time.Time) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM trades
		WHERE actor_id = ? AND ticker = ? AND direction = ?
		  AND trade_date >= ? AND trade_date < ?`,
		actorID, ticker, domain.DirectionBuy,
		from.Format(dateLayout), to.Format(dateLayout)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check prior buys: %w", err)
	}
	return count > 0, nil
}

// CountSince returns the number of trades with trade_date on or after the cutoff.
func (r *Repository) CountSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM trades WHERE trade_date >= ?`,
		since.Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

const selectColumns = `
	SELECT actor_type, actor_id, actor_name, party, chamber, state,
	       ticker, company_name, direction, size_range, exact_value, exact_price,
	       trade_date, disclosure_date, title, owner_type`

func scanTrades(rows *sql.Rows) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var tradeDate string
		var disclosureDate sql.NullString
		var exactValue, exactPrice sql.NullFloat64

		err := rows.Scan(&t.ActorType, &t.ActorID, &t.ActorName, &t.Party, &t.Chamber,
			&t.State, &t.Ticker, &t.CompanyName, &t.Direction, &t.SizeRangeText,
			&exactValue, &exactPrice, &tradeDate, &disclosureDate, &t.Title, &t.OwnerType)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		t.TradeDate, err = time.Parse(dateLayout, tradeDate)
		if err != nil {
			return nil, fmt.Errorf("invalid trade_date %q: %w", tradeDate, err)
		}
		if disclosureDate.Valid {
			d, err := time.Parse(dateLayout, disclosureDate.String)
			if err != nil {
				return nil, fmt.Errorf("invalid disclosure_date %q: %w", disclosureDate.String, err)
			}
			t.DisclosureDate = &d
		}
		if exactValue.Valid {
			v := exactValue.Float64
			t.ExactValue = &v
		}
		if exactPrice.Valid {
			p := exactPrice.Float64
			t.ExactPrice = &p
		}

		trades = append(trades, t)
	}

	return trades, rows.Err()
}
