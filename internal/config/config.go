// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Valuation lookups
	QuoteMinIntervalMS int // Enforced minimum gap between upstream quote requests
	QuoteBackoffSec    int // Extended backoff applied when upstream rate-limits us

	// Scheduling (cron expressions, empty disables the job)
	AnalysisSchedule string
	BackupSchedule   string

	// High-conviction allow-list: canonical actor IDs resolved at ingestion,
	// never substring-matched against free-text names at detection time.
	HighConvictionActorIDs []string

	Detectors DetectorThresholds
	Backup    *BackupConfig
}

// DetectorThresholds holds the recognized thresholds for each signal detector.
type DetectorThresholds struct {
	ClusterWindowDays        int     // lookback window for cluster grouping
	LegislatorMinClusterSize int     // distinct legislators required for a buy cluster
	InsiderMinClusterSize    int     // distinct insiders required for a buy cluster
	MinClusterValue          float64 // minimum aggregate dollar value for a buy cluster
	SellMinClusterSize       int     // stricter: sell clusters are noisier
	SellMinClusterValue      float64
	ExecutiveBuyMinValue     float64 // CEO/CFO purchase floor
	LargeSingleBuyMinValue   float64
	FirstBuyMinValue         float64
	TrinityWindowDays        int
}

// BackupConfig holds S3-compatible backup storage configuration.
// Backups are disabled when the bucket is empty.
type BackupConfig struct {
	Endpoint  string // custom endpoint for S3-compatible providers (e.g. R2)
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	KeepCount int // number of remote backups to retain
}

// Enabled reports whether backup uploads are configured.
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CONVICTION_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8010),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		QuoteMinIntervalMS: getEnvAsInt("QUOTE_MIN_INTERVAL_MS", 1500),
		QuoteBackoffSec:    getEnvAsInt("QUOTE_BACKOFF_SEC", 60),
		AnalysisSchedule:   getEnv("ANALYSIS_SCHEDULE", "0 30 6 * * *"),
		BackupSchedule:     getEnv("BACKUP_SCHEDULE", "0 0 4 * * SUN"),
		HighConvictionActorIDs: getEnvAsList("HIGH_CONVICTION_ACTORS", []string{
			// Seed list of consistently high-performing disclosed traders.
			// Canonical actor IDs as assigned by the normalizer, not names.
			"leg-pelosi",
			"leg-green-mark",
			"leg-crenshaw",
			"fund-berkshire",
			"fund-scion",
		}),
		Detectors: DetectorThresholds{
			ClusterWindowDays:        getEnvAsInt("CLUSTER_WINDOW_DAYS", 30),
			LegislatorMinClusterSize: getEnvAsInt("LEGISLATOR_MIN_CLUSTER", 2),
			InsiderMinClusterSize:    getEnvAsInt("INSIDER_MIN_CLUSTER", 3),
			MinClusterValue:          getEnvAsFloat("MIN_CLUSTER_VALUE", 100_000),
			SellMinClusterSize:       getEnvAsInt("SELL_MIN_CLUSTER", 4),
			SellMinClusterValue:      getEnvAsFloat("SELL_MIN_CLUSTER_VALUE", 500_000),
			ExecutiveBuyMinValue:     getEnvAsFloat("EXECUTIVE_BUY_MIN_VALUE", 50_000),
			LargeSingleBuyMinValue:   getEnvAsFloat("LARGE_SINGLE_BUY_MIN_VALUE", 250_000),
			FirstBuyMinValue:         getEnvAsFloat("FIRST_BUY_MIN_VALUE", 25_000),
			TrinityWindowDays:        getEnvAsInt("TRINITY_WINDOW_DAYS", 30),
		},
		Backup: &BackupConfig{
			Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:    getEnv("BACKUP_S3_REGION", "auto"),
			Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
			AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
			SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
			KeepCount: getEnvAsInt("BACKUP_KEEP_COUNT", 8),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.QuoteMinIntervalMS < 0 {
		return fmt.Errorf("QUOTE_MIN_INTERVAL_MS must be non-negative")
	}
	if c.Detectors.ClusterWindowDays <= 0 {
		return fmt.Errorf("CLUSTER_WINDOW_DAYS must be positive")
	}
	if c.Backup.Enabled() && (c.Backup.AccessKey == "" || c.Backup.SecretKey == "") {
		return fmt.Errorf("backup bucket configured but credentials missing")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
