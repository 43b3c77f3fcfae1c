package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/database"
	"github.com/aristath/conviction/internal/reliability"
	"github.com/aristath/conviction/internal/services"
)

// AnalysisJob runs the scheduled signal analysis pass.
type AnalysisJob struct {
	analysis *services.AnalysisService
	log      zerolog.Logger
}

// NewAnalysisJob creates the analysis job
func NewAnalysisJob(analysis *services.AnalysisService, log zerolog.Logger) *AnalysisJob {
	return &AnalysisJob{
		analysis: analysis,
		log:      log.With().Str("job", "analysis").Logger(),
	}
}

// Run executes a scheduled analysis run
func (j *AnalysisJob) Run() error {
	summary, err := j.analysis.Run(services.TriggerScheduled)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", summary.RunID).
		Int("trades_scanned", summary.TradesScanned).
		Int("alerts_emitted", summary.AlertsEmitted).
		Int("alerts_suppressed", summary.AlertsSuppressed).
		Msg("Scheduled analysis completed")
	return nil
}

// Name returns the job name for the scheduler
func (j *AnalysisJob) Name() string {
	return "analysis"
}

// BackupJob archives the databases to remote storage.
type BackupJob struct {
	backup  *reliability.BackupService
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates the backup job
func NewBackupJob(backup *reliability.BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup:  backup,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Run executes a backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.backup.Backup(ctx)
}

// Name returns the job name for the scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// MaintenanceJob checkpoints the databases' WAL files to prevent bloat.
type MaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates the maintenance job
func NewMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Run checkpoints every database's WAL
func (j *MaintenanceJob) Run() error {
	for name, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, the checkpoint will be retried next cycle
			j.log.Warn().Str("database", name).Err(err).Msg("WAL checkpoint failed")
			continue
		}
		j.log.Debug().Str("database", name).Msg("WAL checkpoint completed")
	}
	return nil
}

// Name returns the job name for the scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}
