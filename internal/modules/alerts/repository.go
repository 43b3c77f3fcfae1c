package alerts

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SentAlert is one row of the sent-alert log.
type SentAlert struct {
	AlertID     string    `json:"alert_id"`
	SignalType  string    `json:"signal_type"`
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name,omitempty"`
	Score       float64   `json:"score"`
	Details     string    `json:"details"`
	SentAt      time.Time `json:"sent_at"`
}

// Repository tracks which alerts have already been emitted, keyed by the
// content-derived alert ID.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new sent-alert repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// WasSent reports whether the alert ID is already in the sent log.
func (r *Repository) WasSent(alertID string) (bool, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM alerts_sent WHERE alert_id = ?`, alertID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check sent alert %s: %w", alertID, err)
	}
	return count > 0, nil
}

// MarkSent records an alert in the sent log. Recording the same alert ID
// twice is a no-op.
func (r *Repository) MarkSent(alert *Alert) error {
	details := "{}"
	if alert.Details != nil {
		if encoded, err := json.Marshal(alert.Details); err == nil {
			details = string(encoded)
		}
	}

	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO alerts_sent (alert_id, signal_type, ticker, company_name, score, details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.SignalType, alert.Ticker, alert.CompanyName, alert.Score, details)
	if err != nil {
		return fmt.Errorf("failed to record sent alert %s: %w", alert.ID, err)
	}

	return nil
}

// GetRecent returns the most recently sent alerts, newest first.
func (r *Repository) GetRecent(limit int) ([]SentAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT alert_id, signal_type, ticker, company_name, score, details, sent_at
		FROM alerts_sent
		ORDER BY sent_at DESC, alert_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent alerts: %w", err)
	}
	defer rows.Close()

	alerts := []SentAlert{}
	for rows.Next() {
		var a SentAlert
		var sentAt string
		if err := rows.Scan(&a.AlertID, &a.SignalType, &a.Ticker, &a.CompanyName, &a.Score, &a.Details, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan sent alert: %w", err)
		}
		// SQLite datetime('now') format
		a.SentAt, _ = time.Parse("2006-01-02 15:04:05", sentAt)
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}
