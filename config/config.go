package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageExcel    = "excel"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
	StorageSheets   = "sheets"
)

// Result naming policies
const (
	ResultPolicyTimestamp = "timestamp"
	ResultPolicyFixed     = "fixed"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Sheets    SheetsConfig
	Table     TableConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects where product tables are read from and results written to
type StorageConfig struct {
	// Type is "excel", "postgres", "memory" or "sheets". memory loads the
	// source sheet from WorkbookPath once and keeps results in memory.
	Type         string `mapstructure:"type"`
	WorkbookPath string `mapstructure:"workbook_path"`
	DatabaseURL  string `mapstructure:"database_url"`
	OrderColumn  string `mapstructure:"order_column"`
}

// SheetsConfig holds Google Sheets API configuration.
// The sheets backend reads products remotely and writes results to the workbook path.
type SheetsConfig struct {
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
}

// TableConfig holds source and result table naming
type TableConfig struct {
	Source       string `mapstructure:"source"`
	ResultPolicy string `mapstructure:"result_policy"` // "timestamp" or "fixed"
	ResultName   string `mapstructure:"result_name"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/prodfilter/")

	// Environment variable settings
	v.SetEnvPrefix("PRODFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	// Storage defaults; empty keys are registered so env vars bind on Unmarshal
	v.SetDefault("storage.type", StorageExcel)
	v.SetDefault("storage.workbook_path", "products.xlsx")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.order_column", "")

	// Sheets defaults
	v.SetDefault("sheets.api_key", "")
	v.SetDefault("sheets.base_url", "https://sheets.googleapis.com")
	v.SetDefault("sheets.spreadsheet_id", "")

	// Table defaults
	v.SetDefault("table.source", "Products")
	v.SetDefault("table.result_policy", ResultPolicyTimestamp)
	v.SetDefault("table.result_name", "Results")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// Validate checks a configuration assembled or modified after Load
func (c *Config) Validate() error {
	return validate(c)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Storage.Type {
	case StorageExcel, StorageMemory:
		if config.Storage.WorkbookPath == "" {
			return fmt.Errorf("workbook path is required when storage type is '%s' (set PRODFILTER_STORAGE_WORKBOOK_PATH)", config.Storage.Type)
		}
	case StoragePostgres:
		if config.Storage.DatabaseURL == "" {
			return fmt.Errorf("database URL is required when storage type is 'postgres' (set PRODFILTER_STORAGE_DATABASE_URL)")
		}
	case StorageSheets:
		if config.Sheets.APIKey == "" || config.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("Sheets API key and spreadsheet ID are required when storage type is 'sheets' (set PRODFILTER_SHEETS_API_KEY and PRODFILTER_SHEETS_SPREADSHEET_ID)")
		}
		if config.Storage.WorkbookPath == "" {
			return fmt.Errorf("workbook path is required for results when storage type is 'sheets'")
		}
	default:
		return fmt.Errorf("storage type must be 'excel', 'postgres', 'memory' or 'sheets', got: %s", config.Storage.Type)
	}

	if config.Table.Source == "" {
		return fmt.Errorf("source table name is required")
	}

	if config.Table.ResultPolicy != ResultPolicyTimestamp && config.Table.ResultPolicy != ResultPolicyFixed {
		return fmt.Errorf("result policy must be 'timestamp' or 'fixed', got: %s", config.Table.ResultPolicy)
	}

	if config.Table.ResultPolicy == ResultPolicyFixed && config.Table.ResultName == "" {
		return fmt.Errorf("result name is required when result policy is 'fixed'")
	}

	if config.Table.ResultPolicy == ResultPolicyFixed && strings.EqualFold(config.Table.ResultName, config.Table.Source) {
		return fmt.Errorf("result name %q must differ from source table %q", config.Table.ResultName, config.Table.Source)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per IP must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
