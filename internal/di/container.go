// Package di wires the application's services together.
package di

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/conviction/internal/clients/quotes"
	"github.com/aristath/conviction/internal/config"
	"github.com/aristath/conviction/internal/database"
	"github.com/aristath/conviction/internal/events"
	"github.com/aristath/conviction/internal/modules/alerts"
	"github.com/aristath/conviction/internal/modules/funds"
	"github.com/aristath/conviction/internal/modules/pnl"
	"github.com/aristath/conviction/internal/modules/trades"
	"github.com/aristath/conviction/internal/reliability"
	"github.com/aristath/conviction/internal/services"
)

// Container holds every long-lived service. It is built once at startup and
// handed to the server and the scheduler.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	LedgerDB *database.DB
	StateDB  *database.DB

	EventBus *events.Bus

	TradeRepo    *trades.Repository
	TradeService *trades.Service
	FundRepo     *funds.Repository
	FundService  *funds.Service
	PnLRepo      *pnl.Repository
	AlertRepo    *alerts.Repository
	RunRepo      *services.RunRepository

	QuoteClient     *quotes.Client
	AnalysisService *services.AnalysisService
	BackupService   *reliability.BackupService
}

// New builds the container: opens and migrates both databases, then wires
// repositories and services in dependency order.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	if err := ledgerDB.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger database: %w", err)
	}

	stateDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "state.db"),
		Profile: database.ProfileStandard,
		Name:    "state",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := stateDB.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}

	bus := events.NewBus()

	tradeRepo := trades.NewRepository(ledgerDB.Conn())
	tradeService := trades.NewService(tradeRepo, bus, log)
	fundRepo := funds.NewRepository(ledgerDB.Conn())
	fundService := funds.NewService(fundRepo, bus, log)
	pnlRepo := pnl.NewRepository(stateDB.Conn())
	alertRepo := alerts.NewRepository(stateDB.Conn())
	runRepo := services.NewRunRepository(stateDB.Conn())

	quoteClient := quotes.New(
		time.Duration(cfg.QuoteMinIntervalMS)*time.Millisecond,
		time.Duration(cfg.QuoteBackoffSec)*time.Second,
		log)

	analysisService := services.NewAnalysisService(
		tradeRepo, fundRepo, fundService,
		alertRepo, pnlRepo, runRepo,
		quoteClient, bus, cfg, log)

	var backupService *reliability.BackupService
	if cfg.Backup.Enabled() {
		backupService, err = reliability.NewBackupService(cfg.Backup, cfg.DataDir, map[string]*database.DB{
			"ledger": ledgerDB,
			"state":  stateDB,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize backup service: %w", err)
		}
	}

	return &Container{
		Config:          cfg,
		Log:             log,
		LedgerDB:        ledgerDB,
		StateDB:         stateDB,
		EventBus:        bus,
		TradeRepo:       tradeRepo,
		TradeService:    tradeService,
		FundRepo:        fundRepo,
		FundService:     fundService,
		PnLRepo:         pnlRepo,
		AlertRepo:       alertRepo,
		RunRepo:         runRepo,
		QuoteClient:     quoteClient,
		AnalysisService: analysisService,
		BackupService:   backupService,
	}, nil
}

// Close releases the container's resources.
func (c *Container) Close() {
	if c.LedgerDB != nil {
		if err := c.LedgerDB.Close(); err != nil {
			c.Log.Error().Err(err).Msg("Failed to close ledger database")
		}
	}
	if c.StateDB != nil {
		if err := c.StateDB.Close(); err != nil {
			c.Log.Error().Err(err).Msg("Failed to close state database")
		}
	}
}
