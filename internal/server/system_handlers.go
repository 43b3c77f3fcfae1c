package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/conviction/internal/database"
	"github.com/aristath/conviction/internal/di"
)

// SystemHandlers serves system monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	container *di.Container
}

// NewSystemHandlers creates the system handlers
func NewSystemHandlers(log zerolog.Logger, container *di.Container) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		container: container,
	}
}

// SystemStatusResponse is the payload of GET /api/system/status.
type SystemStatusResponse struct {
	Status     string  `json:"status"`
	CPUPercent float64 `json:"cpu_percent"`
	RAMPercent float64 `json:"ram_percent"`
	Uptime     string  `json:"uptime"`
	CheckedAt  string  `json:"checked_at"`
}

var processStart = time.Now()

// HandleSystemStatus returns CPU/RAM usage and overall health
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, ramPct := h.getSystemStats()

	status := "healthy"
	if err := h.container.LedgerDB.QuickCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("Ledger database quick check failed")
		status = "degraded"
	}
	if err := h.container.StateDB.QuickCheck(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("State database quick check failed")
		status = "degraded"
	}

	h.writeJSON(w, SystemStatusResponse{
		Status:     status,
		CPUPercent: cpuPct,
		RAMPercent: ramPct,
		Uptime:     time.Since(processStart).Round(time.Second).String(),
		CheckedAt:  time.Now().Format(time.RFC3339),
	})
}

// DatabaseStats is the per-database entry of GET /api/system/database/stats.
type DatabaseStats struct {
	Name    string  `json:"name"`
	SizeMB  float64 `json:"size_mb"`
	Healthy bool    `json:"healthy"`
}

// DatabaseStatsResponse is the payload of GET /api/system/database/stats.
type DatabaseStatsResponse struct {
	Databases   []DatabaseStats `json:"databases"`
	TotalSizeMB float64         `json:"total_size_mb"`
	LastChecked string          `json:"last_checked"`
}

// HandleDatabaseStats returns size and health of each database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	dataDir := h.container.Config.DataDir

	databases := []struct {
		name string
		db   *database.DB
	}{
		{"ledger", h.container.LedgerDB},
		{"state", h.container.StateDB},
	}

	var stats []DatabaseStats
	var totalMB float64
	for _, entry := range databases {
		sizeMB := fileSizeMB(filepath.Join(dataDir, entry.name+".db"))
		totalMB += sizeMB
		stats = append(stats, DatabaseStats{
			Name:    entry.name,
			SizeMB:  sizeMB,
			Healthy: entry.db.QuickCheck(r.Context()) == nil,
		})
	}

	h.writeJSON(w, DatabaseStatsResponse{
		Databases:   stats,
		TotalSizeMB: totalMB,
		LastChecked: time.Now().Format(time.RFC3339),
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sample so the API call does not block for a full second.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
