// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/fraud"
	"github.com/spinworks/wallet-core/pkg/models"
)

// Config holds the application configuration.
type Config struct {
	HTTPPort string

	WalletsTable      string
	TransactionsTable string
	SpinLogsTable     string
	AlertsTable       string

	SQSQueueURL string

	LockTimeout      time.Duration
	StartingBalances map[models.Currency]decimal.Decimal

	FlushInterval time.Duration
	BatchSize     int
	QueueCapacity int

	WorkerCount     int
	WorkerQueueSize int

	NotifyRetries int
	NotifyBackoff time.Duration

	RecordFailedBets     bool
	IdempotencyCacheSize int

	AdminUserIDs []string

	Fraud fraud.Config
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		WalletsTable:      getEnv("DYNAMODB_WALLETS_TABLE_NAME", ""),
		TransactionsTable: getEnv("DYNAMODB_TRANSACTIONS_TABLE_NAME", ""),
		SpinLogsTable:     getEnv("DYNAMODB_SPIN_LOGS_TABLE_NAME", ""),
		AlertsTable:       getEnv("DYNAMODB_ALERTS_TABLE_NAME", ""),
		SQSQueueURL:       getEnv("SQS_QUEUE_URL", ""),
		Fraud:             fraud.DefaultConfig(),
	}

	if cfg.WalletsTable == "" || cfg.TransactionsTable == "" || cfg.SpinLogsTable == "" || cfg.AlertsTable == "" {
		return nil, fmt.Errorf("one or more DynamoDB table name environment variables are not set")
	}

	var err error
	if cfg.LockTimeout, err = getDuration("WALLET_LOCK_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.FlushInterval, err = getDuration("LEDGER_FLUSH_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = getInt("LEDGER_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity, err = getInt("LEDGER_QUEUE_CAPACITY", 10000); err != nil {
		return nil, err
	}
	if cfg.WorkerCount, err = getInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerQueueSize, err = getInt("WORKER_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.NotifyRetries, err = getInt("NOTIFY_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.NotifyBackoff, err = getDuration("NOTIFY_BACKOFF", 200*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.IdempotencyCacheSize, err = getInt("IDEMPOTENCY_CACHE_SIZE", 4096); err != nil {
		return nil, err
	}
	cfg.RecordFailedBets = getEnv("RECORD_FAILED_BETS", "false") == "true"

	gc, err := getDecimal("STARTING_BALANCE_GC", "1000")
	if err != nil {
		return nil, err
	}
	sc, err := getDecimal("STARTING_BALANCE_SC", "0")
	if err != nil {
		return nil, err
	}
	cfg.StartingBalances = map[models.Currency]decimal.Decimal{
		models.GoldCoins:   gc,
		models.SweepsCoins: sc,
	}

	if roster := getEnv("ADMIN_USER_IDS", ""); roster != "" {
		for _, id := range strings.Split(roster, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
			}
		}
	}

	if cfg.Fraud.HighMultiplierThreshold, err = getDecimal("FRAUD_HIGH_MULTIPLIER", cfg.Fraud.HighMultiplierThreshold.String()); err != nil {
		return nil, err
	}
	if cfg.Fraud.ExtremeRatioThreshold, err = getDecimal("FRAUD_EXTREME_RATIO", cfg.Fraud.ExtremeRatioThreshold.String()); err != nil {
		return nil, err
	}
	if cfg.Fraud.RapidFireCount, err = getInt("FRAUD_RAPID_FIRE_COUNT", cfg.Fraud.RapidFireCount); err != nil {
		return nil, err
	}
	if cfg.Fraud.RapidFireWindow, err = getDuration("FRAUD_RAPID_FIRE_WINDOW", cfg.Fraud.RapidFireWindow); err != nil {
		return nil, err
	}
	if cfg.Fraud.CooldownWindow, err = getDuration("FRAUD_COOLDOWN_WINDOW", cfg.Fraud.CooldownWindow); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func getDecimal(key, defaultValue string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}
