package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/conviction/internal/domain"
	"github.com/aristath/conviction/internal/services"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "conviction",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleIngestTrades accepts a batch of trade disclosures
func (s *Server) handleIngestTrades(w http.ResponseWriter, r *http.Request) {
	var records []domain.TradeRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.container.TradeService.Ingest(records)
	if err != nil {
		s.log.Error().Err(err).Msg("Trade ingestion failed")
		s.writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleIngestHoldings accepts a batch of quarterly fund holdings
func (s *Server) handleIngestHoldings(w http.ResponseWriter, r *http.Request) {
	var holdings []domain.FundHolding
	if err := json.NewDecoder(r.Body).Decode(&holdings); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := s.container.FundService.Ingest(holdings)
	if err != nil {
		s.log.Error().Err(err).Msg("Holdings ingestion failed")
		s.writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleTriggerRun starts a manual analysis run and returns its summary
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.container.AnalysisService.Run(services.TriggerManual)
	if err != nil {
		s.log.Error().Err(err).Msg("Analysis run failed")
		s.writeError(w, http.StatusInternalServerError, "analysis run failed: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// handleListRuns returns recent analysis runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.container.RunRepo.GetRecent(queryLimit(r, 20))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// handleGetPnL returns the latest P&L snapshot set
func (s *Server) handleGetPnL(w http.ResponseWriter, r *http.Request) {
	results, err := s.container.PnLRepo.GetLatest()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load P&L snapshots")
		s.writeError(w, http.StatusInternalServerError, "failed to load P&L snapshots")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"positions": results})
}

// handleGetAlerts returns recently emitted alerts, newest first
func (s *Server) handleGetAlerts(w http.ResponseWriter, r *http.Request) {
	sent, err := s.container.AlertRepo.GetRecent(queryLimit(r, 50))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load alerts")
		s.writeError(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": sent})
}

// handleListBackups returns the archives currently in the backup bucket
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	if s.container.BackupService == nil {
		s.writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	backups, err := s.container.BackupService.ListBackups(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list backups")
		s.writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"backups": backups})
}

// handleTriggerBackup runs a backup immediately
func (s *Server) handleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if s.container.BackupService == nil {
		s.writeError(w, http.StatusServiceUnavailable, "backups are not configured")
		return
	}

	if err := s.container.BackupService.Backup(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Backup failed")
		s.writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// queryLimit parses the ?limit= query parameter, falling back to a default.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	return limit
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
