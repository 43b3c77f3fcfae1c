// Package funds stores quarterly fund holdings and classifies
// quarter-over-quarter position changes.
package funds

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/conviction/internal/domain"
)

const dateLayout = "2006-01-02"

// Repository handles fund holding persistence in the ledger database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new fund holdings repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert records one quarterly holding. Returns true when newly inserted,
// false when the (manager, ticker, quarter) row already exists.
func (r *Repository) Insert(h *domain.FundHolding) (bool, error) {
	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO fund_holdings
			(manager_id, manager_name, ticker, shares, portfolio_pct, value, quarter, period_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ManagerID, h.ManagerName, h.Ticker, h.Shares, h.PortfolioPct, h.Value,
		h.Quarter, h.PeriodEnd.Format(dateLayout))
	if err != nil {
		return false, fmt.Errorf("failed to insert holding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}

	return rows > 0, nil
}

// GetRecentQuarters returns the manager's two most recent quarter labels by
// period end date, newest first. Returns fewer entries when the manager has
// less history.
func (r *Repository) GetRecentQuarters(managerID string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT quarter FROM fund_holdings
		WHERE manager_id = ?
		ORDER BY period_end DESC
		LIMIT 2`,
		managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarters for %s: %w", managerID, err)
	}
	defer rows.Close()

	var quarters []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan quarter: %w", err)
		}
		quarters = append(quarters, q)
	}

	return quarters, rows.Err()
}

// GetByManagerQuarter returns all holdings of one manager in one quarter.
func (r *Repository) GetByManagerQuarter(managerID, quarter string) ([]domain.FundHolding, error) {
	rows, err := r.db.Query(`
		SELECT manager_id, manager_name, ticker, shares, portfolio_pct, value, quarter, period_end
		FROM fund_holdings
		WHERE manager_id = ? AND quarter = ?
		ORDER BY ticker`,
		managerID, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings for %s %s: %w", managerID, quarter, err)
	}
	defer rows.Close()

	return scanHoldings(rows)
}

// GetManagerIDs returns the distinct manager IDs present in the holdings log.
func (r *Repository) GetManagerIDs() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT manager_id FROM fund_holdings ORDER BY manager_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manager ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan manager id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// HasHolding reports whether any fund has ever disclosed a position in the
// ticker, in any quarter.
func (r *Repository) HasHolding(ticker string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM fund_holdings WHERE ticker = ?`, ticker).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check holdings for %s: %w", ticker, err)
	}
	return count > 0, nil
}

// GetHolders returns the distinct manager names with a disclosed position in
// the ticker, any quarter.
func (r *Repository) GetHolders(ticker string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT manager_name FROM fund_holdings
		WHERE ticker = ?
		ORDER BY manager_name`,
		ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query holders of %s: %w", ticker, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan manager name: %w", err)
		}
		names = append(names, n)
	}

	return names, rows.Err()
}

// GetSnapshotDates returns the distinct quarter end dates on which any fund
// disclosed a position in the ticker, ascending.
func (r *Repository) GetSnapshotDates(ticker string) ([]time.Time, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT period_end FROM fund_holdings
		WHERE ticker = ?
		ORDER BY period_end`,
		ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot dates for %s: %w", ticker, err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan period_end: %w", err)
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid period_end %q: %w", raw, err)
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}

func scanHoldings(rows *sql.Rows) ([]domain.FundHolding, error) {
	var holdings []domain.FundHolding
	for rows.Next() {
		var h domain.FundHolding
		var periodEnd string

		err := rows.Scan(&h.ManagerID, &h.ManagerName, &h.Ticker, &h.Shares,
			&h.PortfolioPct, &h.Value, &h.Quarter, &periodEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		h.PeriodEnd, err = time.Parse(dateLayout, periodEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid period_end %q: %w", periodEnd, err)
		}

		holdings = append(holdings, h)
	}

	return holdings, rows.Err()
}
