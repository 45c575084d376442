package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"backoffice-mcp/internal/cache"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Ledger sources.
const (
	SourceFile     = "file"
	SourceREST     = "rest"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// DatabaseConfig holds the connection settings for a hosted Postgres ledger.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath  string
	LogDir    string
	LedgerDir string

	LedgerSource string
	Backend      ledger.RESTConfig
	Database     DatabaseConfig
	SQLitePath   string

	Redis    cache.RedisConfig
	CacheTTL time.Duration

	Thresholds      impact.Thresholds
	DisplayLocale   string
	HTTPAddr        string
	AnalysisTimeout time.Duration

	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Executable directory first (MCP clients start the binary from anywhere)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Then the working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs"))
	ledgerDir := filepath.Join(dataPath, "ledger")

	for _, dir := range []string{logDir, ledgerDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create data directory")
		}
	}

	thresholds, err := loadThresholds()
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		DataPath:     dataPath,
		LogDir:       logDir,
		LedgerDir:    ledgerDir,
		LedgerSource: strings.ToLower(getEnv("LEDGER_SOURCE", SourceFile)),
		Backend: ledger.RESTConfig{
			BaseURL:      getEnv("BACKEND_URL", ""),
			APIKey:       getEnv("BACKEND_API_KEY", ""),
			SalesTable:   getEnv("BACKEND_SALES_TABLE", "sales_entries"),
			EventsTable:  getEnv("BACKEND_EVENTS_TABLE", "events"),
			RequestDelay: time.Duration(getEnvInt("BACKEND_REQUEST_DELAY_MS", 0)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "backoffice"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		SQLitePath: getEnv("SQLITE_PATH", filepath.Join(dataPath, "ledger.db")),
		Redis: cache.RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		CacheTTL:            time.Duration(getEnvInt("CACHE_TTL_SECONDS", 45)) * time.Second,
		Thresholds:          thresholds,
		DisplayLocale:       getEnv("DISPLAY_LOCALE", "es-AR"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		AnalysisTimeout:     time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 30)) * time.Second,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.LedgerSource {
	case SourceFile:
	case SourceREST:
		if c.Backend.BaseURL == "" {
			errs = append(errs, errors.New("BACKEND_URL is required when LEDGER_SOURCE=rest"))
		}
	case SourcePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required when LEDGER_SOURCE=postgres"))
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required when LEDGER_SOURCE=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_SOURCE %q (expected file, rest, postgres or sqlite)", c.LedgerSource))
	}

	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("CACHE_TTL_SECONDS cannot be negative"))
	}
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, errors.New("ANALYSIS_TIMEOUT_SECONDS must be positive"))
	}
	return errors.Join(errs...)
}

// SQLConfig returns the GORM settings for the configured SQL ledger.
func (c *AppConfig) SQLConfig() ledger.SQLConfig {
	if c.LedgerSource == SourceSQLite {
		return ledger.SQLConfig{Driver: SourceSQLite, DSN: c.SQLitePath}
	}
	return ledger.SQLConfig{Driver: SourcePostgres, DSN: c.Database.DSN(), MaxOpenConns: c.Database.MaxConns}
}

// DSN renders the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func loadThresholds() (impact.Thresholds, error) {
	t := impact.DefaultThresholds()
	if v, ok := os.LookupEnv("IMPACT_STRONG_LIFT_PCT"); ok && v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return t, fmt.Errorf("invalid IMPACT_STRONG_LIFT_PCT %q: %w", v, err)
		}
		t.StrongSalesLiftPct = d
	}
	if v, ok := os.LookupEnv("IMPACT_BREAKEVEN_ROI_PCT"); ok && v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return t, fmt.Errorf("invalid IMPACT_BREAKEVEN_ROI_PCT %q: %w", v, err)
		}
		t.BreakEvenROIPct = d
	}
	return t, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
