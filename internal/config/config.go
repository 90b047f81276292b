package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Warehouse WarehouseConfig
	Refresh   RefreshConfig
	Worker    WorkerConfig
	Paths     PathsConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// WarehouseConfig selects and parameterizes the upstream row source.
// Driver "bq" shells out to the bq CLI; "postgres" queries a local mirror
// of the alarms table.
type WarehouseConfig struct {
	Driver        string
	Table         string
	PostgresDSN   string
	EquipmentType string
	QueryTimeout  time.Duration
	RowCap        int
}

type RefreshConfig struct {
	// FullLookbackDays drives the full pull (dashboard regeneration);
	// RefreshLookbackDays drives the sampled refresh pull. The two pulls
	// keep distinct lookbacks and SITE derivations on purpose.
	FullLookbackDays    int
	RefreshLookbackDays int
	DailyAt             string // "HH:MM", local wall clock
	FiscalAnchor        string // "2006-01-02", Walmart fiscal year start
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type PathsConfig struct {
	SnapshotFile  string
	DashboardFile string
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Warehouse: WarehouseConfig{
			Driver:        getEnv("WAREHOUSE_DRIVER", "bq"),
			Table:         getEnv("WAREHOUSE_TABLE", "wmt-edw-sandbox.SYMBOTIC_DATA.snowflake_alarms"),
			PostgresDSN:   getEnv("WAREHOUSE_POSTGRES_DSN", ""),
			EquipmentType: getEnv("EQUIPMENT_TYPE", "AIB"),
			QueryTimeout:  getEnvDuration("WAREHOUSE_QUERY_TIMEOUT", 10*time.Minute),
			RowCap:        getEnvInt("WAREHOUSE_ROW_CAP", 1500000),
		},
		Refresh: RefreshConfig{
			FullLookbackDays:    getEnvInt("FULL_LOOKBACK_DAYS", 56),
			RefreshLookbackDays: getEnvInt("REFRESH_LOOKBACK_DAYS", 35),
			DailyAt:             getEnv("REFRESH_DAILY_AT", "05:00"),
			FiscalAnchor:        getEnv("WM_FISCAL_ANCHOR", "2025-02-01"),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		Paths: PathsConfig{
			SnapshotFile:  getEnv("SNAPSHOT_FILE", "./data/aib_dashboard_data.csv"),
			DashboardFile: getEnv("DASHBOARD_FILE", "./data/aib_dashboard.html"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/aib-incidents.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Warehouse.Driver {
	case "bq":
	case "postgres":
		if c.Warehouse.PostgresDSN == "" {
			return fmt.Errorf("WAREHOUSE_POSTGRES_DSN is required with the postgres driver")
		}
	default:
		return fmt.Errorf("invalid warehouse driver: %s", c.Warehouse.Driver)
	}

	if c.Warehouse.RowCap < 1 {
		return fmt.Errorf("warehouse row cap must be positive: %d", c.Warehouse.RowCap)
	}
	if c.Refresh.FullLookbackDays < 1 || c.Refresh.RefreshLookbackDays < 1 {
		return fmt.Errorf("lookback days must be positive")
	}
	if _, _, err := ParseDailyAt(c.Refresh.DailyAt); err != nil {
		return fmt.Errorf("invalid REFRESH_DAILY_AT: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Refresh.FiscalAnchor); err != nil {
		return fmt.Errorf("invalid WM_FISCAL_ANCHOR: %w", err)
	}

	return nil
}

// FiscalAnchorTime returns the parsed fiscal-year anchor. Only valid after
// a successful Load.
func (c *Config) FiscalAnchorTime() time.Time {
	t, _ := time.Parse("2006-01-02", c.Refresh.FiscalAnchor)
	return t
}

// ParseDailyAt parses an "HH:MM" wall-clock time.
func ParseDailyAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("want HH:MM, got %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
