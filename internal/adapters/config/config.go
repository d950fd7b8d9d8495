package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"profitscout/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Selector      SelectorConfig
	Features      FeatureConfig
	Universe      UniverseConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"profitscout"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"market"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

// SelectorConfig holds every filter threshold used by the candidate selector.
// All thresholds are explicit; there are no hidden defaults inside the pipeline.
type SelectorConfig struct {
	MinDTE          int     `envconfig:"SELECTOR_MIN_DTE" default:"10"`
	MaxDTE          int     `envconfig:"SELECTOR_MAX_DTE" default:"60"`
	MinMoneyness    float64 `envconfig:"SELECTOR_MIN_MONEYNESS" default:"1.02"`
	MaxMoneyness    float64 `envconfig:"SELECTOR_MAX_MONEYNESS" default:"1.10"`
	MinOpenInterest int64   `envconfig:"SELECTOR_MIN_OPEN_INTEREST" default:"300"`
	MinVolume       int64   `envconfig:"SELECTOR_MIN_VOLUME" default:"0"`
	MaxSpreadPct    float64 `envconfig:"SELECTOR_MAX_SPREAD_PCT" default:"0.12"`
	MinMidPrice     float64 `envconfig:"SELECTOR_MIN_MID_PRICE" default:"0.50"`
	MinAbsDelta     float64 `envconfig:"SELECTOR_MIN_ABS_DELTA" default:"0.25"`
	MaxAbsDelta     float64 `envconfig:"SELECTOR_MAX_ABS_DELTA" default:"0.45"`

	// ExpectedMoveHaircut discounts the statistical expected move used by
	// the edge-realism gate. Must be in (0, 1].
	ExpectedMoveHaircut float64 `envconfig:"SELECTOR_EXPECTED_MOVE_HAIRCUT" default:"0.85"`

	// MaxCandidatesPerPartition truncates each (ticker, option_type)
	// partition after ranking. 0 keeps every ranked survivor.
	MaxCandidatesPerPartition int `envconfig:"SELECTOR_MAX_CANDIDATES_PER_PARTITION" default:"0"`
}

// Validate rejects configurations the pipeline cannot run with
func (c SelectorConfig) Validate() error {
	if c.MinDTE > c.MaxDTE {
		return errors.Wrapf(errors.ErrInvalidInput, "min_dte %d > max_dte %d", c.MinDTE, c.MaxDTE)
	}
	if c.MinMoneyness > c.MaxMoneyness {
		return errors.Wrapf(errors.ErrInvalidInput, "min_moneyness %.4f > max_moneyness %.4f", c.MinMoneyness, c.MaxMoneyness)
	}
	if c.MinAbsDelta > c.MaxAbsDelta {
		return errors.Wrapf(errors.ErrInvalidInput, "min_abs_delta %.4f > max_abs_delta %.4f", c.MinAbsDelta, c.MaxAbsDelta)
	}
	if c.ExpectedMoveHaircut <= 0 || c.ExpectedMoveHaircut > 1 {
		return errors.Wrapf(errors.ErrInvalidInput, "expected_move_haircut %.4f outside (0, 1]", c.ExpectedMoveHaircut)
	}
	if c.MaxCandidatesPerPartition < 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "max_candidates_per_partition %d negative", c.MaxCandidatesPerPartition)
	}
	return nil
}

// FeatureConfig holds windows for the technical feature calculator.
// 400 calendar days comfortably covers the 200-session SMA plus the 90-row
// delta lookback.
type FeatureConfig struct {
	PriceWindowDays int `envconfig:"FEATURES_PRICE_WINDOW_DAYS" default:"400"`
}

// UniverseConfig supplies the static ticker universe for selection runs
type UniverseConfig struct {
	Tickers []string `envconfig:"UNIVERSE_TICKERS"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals and fan-out limits for background workers
type WorkerConfig struct {
	SelectionInterval  time.Duration `envconfig:"WORKER_SELECTION_INTERVAL" default:"24h"`
	EnrichmentInterval time.Duration `envconfig:"WORKER_ENRICHMENT_INTERVAL" default:"24h"`
	SelectionEnabled   bool          `envconfig:"WORKER_SELECTION_ENABLED" default:"true"`
	EnrichmentEnabled  bool          `envconfig:"WORKER_ENRICHMENT_ENABLED" default:"true"`

	// MaxConcurrency bounds the per-ticker fan-out inside a single run
	MaxConcurrency int `envconfig:"WORKER_MAX_CONCURRENCY" default:"16"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from the environment (and .env when present)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Selector.Validate(); err != nil {
		return nil, errors.Wrap(err, "selector config")
	}

	return &cfg, nil
}
