package pnl

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/conviction/internal/database"
)

const dateLayout = "2006-01-02"

// Repository persists P&L snapshots in the state database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveSnapshots replaces the snapshot set for one date in a single
// transaction. Each run is a full recomputation, so the previous rows for
// the date are discarded first.
func (r *Repository) SaveSnapshots(results []Result, snapshotDate time.Time) error {
	date := snapshotDate.Format(dateLayout)

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM pnl_snapshots WHERE snapshot_date = ?`, date); err != nil {
			return fmt.Errorf("failed to clear snapshots for %s: %w", date, err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO pnl_snapshots
				(actor_id, actor_name, ticker, company_name, shares_held, cost_basis,
				 avg_cost_basis, current_price, position_value, unrealized_pnl,
				 realized_pnl, total_pnl, return_percent, trades_count, status, snapshot_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare snapshot insert: %w", err)
		}
		defer stmt.Close()

		for _, res := range results {
			_, err := stmt.Exec(res.ActorID, res.ActorName, res.Ticker, res.CompanyName,
				res.SharesHeld, res.CostBasis, res.AvgCostBasis, res.CurrentPrice,
				res.PositionValue, res.UnrealizedPnL, res.RealizedPnL, res.TotalPnL,
				res.ReturnPercent, res.TradesCount, res.Status, date)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot for %s/%s: %w", res.ActorID, res.Ticker, err)
			}
		}

		return nil
	})
}

// GetLatest returns the snapshot rows for the most recent snapshot date,
// ordered by total P&L descending. Returns an empty slice when no snapshots
// exist yet.
func (r *Repository) GetLatest() ([]Result, error) {
	var latest sql.NullString
	err := r.db.QueryRow(`SELECT MAX(snapshot_date) FROM pnl_snapshots`).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest snapshot date: %w", err)
	}
	if !latest.Valid {
		return []Result{}, nil
	}

	rows, err := r.db.Query(`
		SELECT actor_id, actor_name, ticker, company_name, shares_held, cost_basis,
		       avg_cost_basis, current_price, position_value, unrealized_pnl,
		       realized_pnl, total_pnl, return_percent, trades_count, status
		FROM pnl_snapshots
		WHERE snapshot_date = ?
		ORDER BY total_pnl DESC`,
		latest.String)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var res Result
		err := rows.Scan(&res.ActorID, &res.ActorName, &res.Ticker, &res.CompanyName,
			&res.SharesHeld, &res.CostBasis, &res.AvgCostBasis, &res.CurrentPrice,
			&res.PositionValue, &res.UnrealizedPnL, &res.RealizedPnL, &res.TotalPnL,
			&res.ReturnPercent, &res.TradesCount, &res.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}
